package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"bookshelf/internal/tracker"
)

// Storage backends
const (
	BackendMock       = "mock"
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// DefaultDigestSchedule sends the reading digest every evening
const DefaultDigestSchedule = "0 20 * * *"

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Backend string

	// SQLite configuration
	SQLitePath string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool
}

// Config holds the application configuration
type Config struct {
	StorageConfig

	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	Port string

	// Reading rules
	ProgressBound tracker.ProgressBound
	Location      *time.Location

	LogLevel string

	// Reading digest
	DigestEnabled      bool
	DigestSchedule     string
	NotificationChatID int64
}

// LoadStorageFromEnv loads only the storage and reading rule settings.
// Tools that do not talk to Telegram use it.
func LoadStorageFromEnv() (*StorageConfig, error) {
	config := &StorageConfig{}

	config.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND")))
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.Backend = BackendMock
	}
	if config.Backend == "" {
		config.Backend = BackendClickHouse
	}

	switch config.Backend {
	case BackendMock:
	case BackendSQLite:
		config.SQLitePath = os.Getenv("SQLITE_PATH")
		if config.SQLitePath == "" {
			config.SQLitePath = "bookshelf.db"
		}
	case BackendClickHouse:
		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
		}

		portStr := os.Getenv("CLICKHOUSE_PORT")
		if portStr == "" {
			config.ClickHousePort = 9000 // Default ClickHouse native port
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
			}
			config.ClickHousePort = port
		}

		config.ClickHouseDatabase = os.Getenv("CLICKHOUSE_DATABASE")
		if config.ClickHouseDatabase == "" {
			config.ClickHouseDatabase = "default"
		}

		config.ClickHouseUser = os.Getenv("CLICKHOUSE_USER")
		if config.ClickHouseUser == "" {
			config.ClickHouseUser = "default"
		}

		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		// Password is optional, can be empty

		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (expected mock, sqlite or clickhouse)", config.Backend)
	}

	return config, nil
}

// LoadRulesFromEnv loads the progress bound and the timezone used for
// timestamps. TIMEZONE defaults to UTC.
func LoadRulesFromEnv() (tracker.ProgressBound, *time.Location, error) {
	bound, err := tracker.ParseProgressBound(os.Getenv("PROGRESS_BOUND"))
	if err != nil {
		return 0, nil, fmt.Errorf("invalid PROGRESS_BOUND: %w", err)
	}

	loc := time.UTC
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	return bound, loc, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Allowed User IDs (required)
	allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
	if allowedIDsStr == "" {
		return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}

	idStrs := strings.Split(allowedIDsStr, ",")
	for _, idStr := range idStrs {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		config.AllowedUserIDs = append(config.AllowedUserIDs, id)
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	config.Port = os.Getenv("PORT")
	if config.Port == "" {
		config.Port = "8080" // Default port
	}

	storageConfig, err := LoadStorageFromEnv()
	if err != nil {
		return nil, err
	}
	config.StorageConfig = *storageConfig

	config.ProgressBound, config.Location, err = LoadRulesFromEnv()
	if err != nil {
		return nil, err
	}

	config.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	// Reading digest (optional)
	config.DigestEnabled = os.Getenv("DIGEST_ENABLED") == "true"
	config.DigestSchedule = os.Getenv("DIGEST_SCHEDULE")
	if config.DigestSchedule == "" {
		config.DigestSchedule = DefaultDigestSchedule
	}
	if chatIDStr := os.Getenv("NOTIFICATION_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(strings.TrimSpace(chatIDStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFICATION_CHAT_ID: %w", err)
		}
		config.NotificationChatID = chatID
	}
	if config.DigestEnabled {
		if config.NotificationChatID == 0 {
			return nil, fmt.Errorf("NOTIFICATION_CHAT_ID is required when DIGEST_ENABLED is true")
		}
		if _, err := cron.ParseStandard(config.DigestSchedule); err != nil {
			return nil, fmt.Errorf("invalid DIGEST_SCHEDULE: %w", err)
		}
	}

	return config, nil
}
