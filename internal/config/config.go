// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Pterodactyl PterodactylConfig
	Discord     DiscordConfig
	Archive     ArchiveConfig
	Reminders   ReminderConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type AdminConfig struct {
	// Bcrypt hash of the operator password accepted by the login endpoint.
	PasswordHash string
}

type PterodactylConfig struct {
	APIURL string
	APIKey string
	// Panel account emails are derived as <username>@<EmailDomain>.
	EmailDomain string
}

type DiscordConfig struct {
	BotToken string
	GuildIDs []string
	// Role granted to panel-access users, best-effort.
	PanelRoleID string
	// Discord user IDs whose panel access is never revoked.
	ExcludedUserIDs []string
}

type ArchiveConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	// Base folder inside the bucket under which archives are laid out.
	BaseFolderPath string
}

type ReminderConfig struct {
	// Days before expiry at which reminders fire, e.g. [3, 1].
	DaysBeforeExpiry []int
	// Channel mirroring reminders and expiry summaries; empty disables it.
	ChannelID string
	// Scan interval in minutes.
	IntervalMinutes int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "mcserver_wizard"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Pterodactyl: PterodactylConfig{
			APIURL:      getEnv("PTERODACTYL_API_URL", ""),
			APIKey:      getEnv("PTERODACTYL_API_KEY", ""),
			EmailDomain: getEnv("PTERODACTYL_EMAIL_DOMAIN", "kpw.local"),
		},
		Discord: DiscordConfig{
			BotToken:        getEnv("DISCORD_BOT_TOKEN", ""),
			GuildIDs:        getEnvAsSlice("DISCORD_GUILD_IDS", nil),
			PanelRoleID:     getEnv("DISCORD_PANEL_ROLE_ID", ""),
			ExcludedUserIDs: getEnvAsSlice("DISCORD_EXCLUDED_USER_IDS", nil),
		},
		Archive: ArchiveConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("ARCHIVE_S3_BUCKET", "mcserver-backups"),
			BaseFolderPath:  getEnv("ARCHIVE_BASE_PATH", "server-backups"),
		},
		Reminders: ReminderConfig{
			DaysBeforeExpiry: getEnvAsIntSlice("REMINDER_DAYS_BEFORE_EXPIRY", []int{3, 1}),
			ChannelID:        getEnv("REMINDER_CHANNEL_ID", ""),
			IntervalMinutes:  getEnvAsInt("REMINDER_INTERVAL_MINUTES", 60),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Pterodactyl.APIURL == "" {
		return fmt.Errorf("PTERODACTYL_API_URL is required")
	}
	if c.Pterodactyl.APIKey == "" {
		return fmt.Errorf("PTERODACTYL_API_KEY is required")
	}
	for _, days := range c.Reminders.DaysBeforeExpiry {
		if days < 0 {
			return fmt.Errorf("reminder offsets must be non-negative, got %d", days)
		}
	}
	if c.Environment == "production" {
		if c.JWT.SecretKey == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT secret key must be changed in production")
		}
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("admin password hash is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
	}
	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnvAsIntSlice(key string, defaultValue []int) []int {
	parts := getEnvAsSlice(key, nil)
	if parts == nil {
		return defaultValue
	}

	var result []int
	for _, part := range parts {
		if intValue, err := strconv.Atoi(part); err == nil {
			result = append(result, intValue)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
