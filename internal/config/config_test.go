// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PTERODACTYL_API_URL", "https://panel.example.com")
	t.Setenv("PTERODACTYL_API_KEY", "ptla_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []int{3, 1}, cfg.Reminders.DaysBeforeExpiry)
	assert.Equal(t, 60, cfg.Reminders.IntervalMinutes)
	assert.Equal(t, "kpw.local", cfg.Pterodactyl.EmailDomain)
}

func TestLoadParsesListValues(t *testing.T) {
	t.Setenv("PTERODACTYL_API_URL", "https://panel.example.com")
	t.Setenv("PTERODACTYL_API_KEY", "ptla_test")
	t.Setenv("REMINDER_DAYS_BEFORE_EXPIRY", "7, 3 ,1")
	t.Setenv("DISCORD_EXCLUDED_USER_IDS", "111,222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int{7, 3, 1}, cfg.Reminders.DaysBeforeExpiry)
	assert.Equal(t, []string{"111", "222"}, cfg.Discord.ExcludedUserIDs)
}

func TestLoadRequiresPanelSettings(t *testing.T) {
	t.Setenv("PTERODACTYL_API_URL", "")
	t.Setenv("PTERODACTYL_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsNegativeReminderOffset(t *testing.T) {
	t.Setenv("PTERODACTYL_API_URL", "https://panel.example.com")
	t.Setenv("PTERODACTYL_API_KEY", "ptla_test")
	t.Setenv("REMINDER_DAYS_BEFORE_EXPIRY", "-1")

	_, err := Load()
	require.Error(t, err)
}
