// internal/services/reminder_service_test.go
package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
)

func newReminderFixture(t *testing.T) (*gorm.DB, *fakeGateway, *ReminderService) {
	t.Helper()
	db := setupTestDB(t)
	gateway := &fakeGateway{}
	cfg := testConfig()
	svc := NewReminderService(db, NewNotificationService(gateway, cfg), cfg)
	return db, gateway, svc
}

func seedActiveEnding(t *testing.T, db *gorm.DB, organizer string, end time.Time) *models.Application {
	t.Helper()
	application := seedApplication(t, db, models.ApplicationStatusActive, "user-"+organizer)
	require.NoError(t, db.Model(application).Updates(map[string]interface{}{
		"organizer_discord_id": organizer,
		"end_date":             end,
	}).Error)
	return application
}

func TestRemindersMatchConfiguredOffsets(t *testing.T) {
	db, gateway, svc := newReminderFixture(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	// offsets [3,1]: only the 3-day and 1-day rentals get reminders
	seedActiveEnding(t, db, "org-three", now.AddDate(0, 0, 3).Add(5*time.Hour))
	seedActiveEnding(t, db, "org-one", now.AddDate(0, 0, 1))
	seedActiveEnding(t, db, "org-two", now.AddDate(0, 0, 2))

	svc.CheckAndSendReminders(context.Background(), now)

	var recipients []string
	for _, msg := range gateway.direct {
		recipients = append(recipients, msg.Target)
	}
	assert.ElementsMatch(t, []string{"org-three", "org-one"}, recipients)

	for _, msg := range gateway.direct {
		if msg.Target == "org-one" {
			assert.Contains(t, msg.Content, "URGENT")
		} else {
			assert.NotContains(t, msg.Content, "URGENT")
		}
	}
}

func TestExpiredRentalsQueuedForReturn(t *testing.T) {
	db, gateway, svc := newReminderFixture(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	expired := seedActiveEnding(t, db, "org-late", now.Add(-2*time.Hour))
	active := seedActiveEnding(t, db, "org-ok", now.AddDate(0, 0, 10))

	svc.CheckAndSendReminders(context.Background(), now)

	reloaded := &models.Application{}
	require.NoError(t, db.First(reloaded, expired.ID).Error)
	assert.Equal(t, models.ApplicationStatusNeedsBackup, reloaded.Status)

	reloaded = &models.Application{}
	require.NoError(t, db.First(reloaded, active.ID).Error)
	assert.Equal(t, models.ApplicationStatusActive, reloaded.Status)

	// a summary went to the configured channel
	require.Len(t, gateway.channel, 1)
	assert.Equal(t, "channel-1", gateway.channel[0].Target)
	assert.Contains(t, gateway.channel[0].Content, "1 server(s)")
}

func TestScanIgnoresNonActiveStates(t *testing.T) {
	db, gateway, svc := newReminderFixture(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	for _, status := range []models.ApplicationStatus{
		models.ApplicationStatusPending,
		models.ApplicationStatusNeedsBackup,
		models.ApplicationStatusReturned,
		models.ApplicationStatusRejected,
	} {
		application := seedApplication(t, db, status, "user-"+string(status))
		require.NoError(t, db.Model(application).Update("end_date", past).Error)
	}

	svc.CheckAndSendReminders(context.Background(), now)

	assert.Empty(t, gateway.direct)
	assert.Empty(t, gateway.channel)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).
		Where("status = ?", models.ApplicationStatusNeedsBackup).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestScanSurvivesGatewayFailure(t *testing.T) {
	db, gateway, svc := newReminderFixture(t)
	gateway.sendErr = assert.AnError
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	expired := seedActiveEnding(t, db, "org-late", now.Add(-time.Hour))

	svc.CheckAndSendReminders(context.Background(), now)

	// the state change still lands even when every send fails
	reloaded := &models.Application{}
	require.NoError(t, db.First(reloaded, expired.ID).Error)
	assert.Equal(t, models.ApplicationStatusNeedsBackup, reloaded.Status)
}

func TestExpiredSummaryListsApplications(t *testing.T) {
	db, gateway, svc := newReminderFixture(t)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	first := seedActiveEnding(t, db, "org-a", now.Add(-time.Hour))
	second := seedActiveEnding(t, db, "org-b", now.Add(-2*time.Hour))

	svc.CheckAndSendReminders(context.Background(), now)

	require.Len(t, gateway.channel, 1)
	summary := gateway.channel[0].Content
	assert.Contains(t, summary, "2 server(s)")
	assert.Contains(t, summary, fmt.Sprintf("Application ID %d", first.ID))
	assert.Contains(t, summary, fmt.Sprintf("Application ID %d", second.ID))
}
