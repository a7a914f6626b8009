// Package config provides configuration loading, validation, and management
// for the bot manager. It reads an optional YAML file, a .env file and
// environment variables, sets default values, and validates the result.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/edgard/botmanager/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. BOTMGR_HTTP_ADDR.
const EnvPrefix = "BOTMGR"

// Config defines the application configuration for all components.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	MCP       MCPConfig       `mapstructure:"mcp"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig configures the procedure endpoints.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  validate:"min=1s,max=10m"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=5m"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig points at the SQLite file holding users and bots.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TelegramConfig selects and tunes the bot platform client.
type TelegramConfig struct {
	SDK            string        `mapstructure:"sdk"             validate:"required,oneof=gotelegram botapi"`
	APIURL         string        `mapstructure:"api_url"         validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`
}

// WebhookConfig holds the deployment-derived webhook base address.
// On Vercel (VERCEL=1) the base is https://$VERCEL_URL, otherwise
// $WEBHOOK_ADDRESS is used as-is.
type WebhookConfig struct {
	Address            string `mapstructure:"address"`
	Vercel             string `mapstructure:"vercel"`
	VercelURL          string `mapstructure:"vercel_url"`
	DropPendingUpdates bool   `mapstructure:"drop_pending_updates"`

	// Base is resolved by Load and is the address every webhook URL is built from.
	// Only commands that talk to the platform need it; see RequireWebhookBase.
	Base string `mapstructure:"-" validate:"omitempty,url"`
}

// IsVercel reports whether the process runs on Vercel.
func (w WebhookConfig) IsVercel() bool {
	return w.Vercel == "1"
}

// ResolveBase picks the webhook base address for the current deployment target.
func (w WebhookConfig) ResolveBase() string {
	if w.IsVercel() {
		return "https://" + w.VercelURL
	}
	return w.Address
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MCPConfig configures the stdio tool server.
type MCPConfig struct {
	// UserID is the application user the MCP tools act as.
	UserID string `mapstructure:"user_id"`
}

// Load reads configuration from the given YAML file (optional), the .env file
// in the working directory (optional) and the environment, applies defaults
// and validates the result.
func Load(path string) (*Config, error) {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to load .env file", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment variables are read without the prefix.
	for key, env := range map[string]string{
		"webhook.address":    "WEBHOOK_ADDRESS",
		"webhook.vercel":     "VERCEL",
		"webhook.vercel_url": "VERCEL_URL",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, apperrors.NewConfigError("failed to bind env "+env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewConfigError("failed to read config file "+path, err)
			}
			slog.Debug("configuration file not found, using defaults", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse config", err)
	}
	cfg.Webhook.Base = cfg.Webhook.ResolveBase()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded",
		"db_path", cfg.Database.Path,
		"telegram_sdk", cfg.Telegram.SDK,
		"webhook_base", cfg.Webhook.Base,
		"vercel", cfg.Webhook.IsVercel(),
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}

// Validate checks the struct tags of the whole configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("configuration validation failed", err)
	}
	return nil
}

// RequireWebhookBase fails unless a webhook base address was configured.
func (c *Config) RequireWebhookBase() error {
	if c.Webhook.Base == "" {
		return apperrors.NewConfigError("webhook base address is not set: set WEBHOOK_ADDRESS, or VERCEL=1 and VERCEL_URL", nil)
	}
	return nil
}
