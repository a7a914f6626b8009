package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultHTTPAddr            = ":8080"
	DefaultHTTPRequestTimeout  = 60 * time.Second
	DefaultHTTPShutdownTimeout = 15 * time.Second

	DefaultDBPath = "storage.db"

	DefaultTelegramSDK            = "gotelegram"
	DefaultTelegramAPIURL         = "https://api.telegram.org"
	DefaultTelegramRequestTimeout = 30 * time.Second

	DefaultSQLMaintenanceSchedule = "0 0 3 * * *"  // daily at 03:00
	DefaultWebhookAuditSchedule   = "0 15 * * * *" // hourly
)

// setDefaults registers every key so environment overrides are picked up on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", true)

	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.request_timeout", DefaultHTTPRequestTimeout)
	v.SetDefault("http.shutdown_timeout", DefaultHTTPShutdownTimeout)
	v.SetDefault("http.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("telegram.sdk", DefaultTelegramSDK)
	v.SetDefault("telegram.api_url", DefaultTelegramAPIURL)
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)

	v.SetDefault("webhook.address", "")
	v.SetDefault("webhook.vercel", "")
	v.SetDefault("webhook.vercel_url", "")
	v.SetDefault("webhook.drop_pending_updates", false)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultSQLMaintenanceSchedule)
	v.SetDefault("scheduler.tasks.webhook_audit.enabled", false)
	v.SetDefault("scheduler.tasks.webhook_audit.schedule", DefaultWebhookAuditSchedule)

	v.SetDefault("mcp.user_id", "")
}
