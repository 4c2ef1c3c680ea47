package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	File        string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// HealthConfig configures the liveness endpoint.
type HealthConfig struct {
	Enabled *bool  `yaml:"enabled" envconfig:"HEALTH_ENABLED"`
	Listen  string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	// Port is the platform-provided port (PORT); used when Listen is empty.
	Port int `yaml:"-" envconfig:"PORT"`
}

// IsEnabled reports whether the liveness endpoint should run. Defaults to true.
func (h HealthConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// MenuConfig controls how topics are presented and answered.
type MenuConfig struct {
	Layout          string `yaml:"layout" envconfig:"MENU_LAYOUT"`
	PerRow          int    `yaml:"per_row" envconfig:"MENU_PER_ROW"`
	ResponseMode    string `yaml:"response_mode" envconfig:"MENU_RESPONSE_MODE"`
	IncludePreamble bool   `yaml:"include_preamble" envconfig:"MENU_INCLUDE_PREAMBLE"`
}

// ContentConfig points at an external content file; empty means embedded.
type ContentConfig struct {
	File string `yaml:"file" envconfig:"CONTENT_FILE"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// JournalConfig enables the interaction journal.
type JournalConfig struct {
	Enabled  bool           `yaml:"enabled" envconfig:"JOURNAL_ENABLED"`
	Database DatabaseConfig `yaml:"database"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	LayoutInline = "inline"
	LayoutReply  = "reply"

	ResponseEdit = "edit"
	ResponseSend = "send"
)

const defaultHealthListen = ":8080"

// Config aggregates the whole process configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
	Health   HealthConfig   `yaml:"health"`
	Menu     MenuConfig     `yaml:"menu"`
	Content  ContentConfig  `yaml:"content"`
	Journal  JournalConfig  `yaml:"journal"`
}

// Load reads the configuration and validates it with Normalize.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads an optional .env file, an optional YAML file and then the
// environment, without validation. Environment values win.
func Read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (BOT_TOKEN)")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	cfg.Health.Listen = strings.TrimSpace(cfg.Health.Listen)
	if cfg.Health.Listen == "" {
		if cfg.Health.Port > 0 {
			cfg.Health.Listen = fmt.Sprintf(":%d", cfg.Health.Port)
		} else {
			cfg.Health.Listen = defaultHealthListen
		}
	}

	layout := strings.ToLower(strings.TrimSpace(cfg.Menu.Layout))
	switch layout {
	case "":
		layout = LayoutInline
	case LayoutInline, LayoutReply:
	default:
		return fmt.Errorf("invalid menu.layout %q; allowed: inline, reply", cfg.Menu.Layout)
	}
	cfg.Menu.Layout = layout

	mode := strings.ToLower(strings.TrimSpace(cfg.Menu.ResponseMode))
	switch mode {
	case "":
		mode = ResponseEdit
	case ResponseEdit, ResponseSend:
	default:
		return fmt.Errorf("invalid menu.response_mode %q; allowed: edit, send", cfg.Menu.ResponseMode)
	}
	cfg.Menu.ResponseMode = mode

	if cfg.Menu.PerRow < 0 {
		return fmt.Errorf("menu.per_row must be >= 0")
	}
	if cfg.Menu.PerRow == 0 {
		cfg.Menu.PerRow = 1
	}

	cfg.Content.File = strings.TrimSpace(cfg.Content.File)

	if cfg.Journal.Enabled {
		db := &cfg.Journal.Database
		if strings.TrimSpace(db.Host) == "" || strings.TrimSpace(db.Name) == "" {
			return fmt.Errorf("journal.database.host and journal.database.name are required when journal is enabled")
		}
		if db.Port == "" {
			db.Port = "5432"
		}
		if db.SSLMode == "" {
			db.SSLMode = "disable"
		}
	}
	return nil
}
