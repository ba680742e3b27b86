package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration. It is loaded once at startup
// and passed by reference; integration toggles and CRM session material live
// in a separate mutable JSON file managed by the crm package.
type Config struct {
	Env      string
	HTTPAddr string

	// DataDir is the root for all durable state: submission log, pending
	// notifications, snapshots and photos.
	DataDir string

	// Staff notification email (SMTP)
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	EmailFromName string
	EmailFrom     string
	NotifyEmail   string
	EmailEnabled  bool

	// Chat webhook (Discord-compatible)
	ChatWebhookURL string
	ChatMentionID  string

	// Automation agent wake signal
	WakeGatewayURL string
	WakeToken      string

	// Static map rendering
	MapsAPIKey     string
	StaticMapURL   string
	StaticMapSize  string
	DefaultMapType string

	// CRM
	CRMBaseURL     string
	CRMConfigFile  string
	DefaultState   string
	DefaultCountry string
}

// Load reads configuration from the environment (and .env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	smtpUser := getEnv("SMTP_USERNAME", "")

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":3000"),

		DataDir: dataDir,

		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      smtpPort,
		SMTPUsername:  smtpUser,
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Quote Widget"),
		EmailFrom:     getEnv("EMAIL_FROM_ADDRESS", smtpUser),
		NotifyEmail:   getEnv("NOTIFY_EMAIL", smtpUser),
		EmailEnabled:  emailEnabled && smtpUser != "",

		ChatWebhookURL: getEnv("CHAT_WEBHOOK_URL", ""),
		ChatMentionID:  getEnv("CHAT_MENTION_USER_ID", ""),

		WakeGatewayURL: getEnv("WAKE_GATEWAY_URL", ""),
		WakeToken:      getEnv("WAKE_GATEWAY_TOKEN", ""),

		MapsAPIKey:     getEnv("MAPS_API_KEY", ""),
		StaticMapURL:   getEnv("STATIC_MAP_URL", "https://maps.googleapis.com/maps/api/staticmap"),
		StaticMapSize:  getEnv("STATIC_MAP_SIZE", "600x400"),
		DefaultMapType: getEnv("STATIC_MAP_TYPE", "satellite"),

		CRMBaseURL:     getEnv("CRM_BASE_URL", "https://secure.copilotcrm.com"),
		CRMConfigFile:  getEnv("CRM_CONFIG_FILE", filepath.Join(dataDir, "copilot-config.json")),
		DefaultState:   getEnv("DEFAULT_STATE", "CO"),
		DefaultCountry: getEnv("DEFAULT_COUNTRY", "US"),
	}

	if cfg.EmailEnabled && cfg.SMTPPassword == "" {
		return nil, fmt.Errorf("SMTP_PASSWORD is required when email is enabled")
	}

	return cfg, nil
}

// SubmissionsFile is the durable JSON log of received quotes.
func (c *Config) SubmissionsFile() string {
	return filepath.Join(c.DataDir, "quote-requests.json")
}

// PendingNotificationsFile holds queued notification records for the agent.
func (c *Config) PendingNotificationsFile() string {
	return filepath.Join(c.DataDir, "pending-notifications.json")
}

// SnapshotsDir is the root for saved map snapshot images.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// PhotosDir is the root for saved customer photos.
func (c *Config) PhotosDir() string {
	return filepath.Join(c.DataDir, "photos")
}

// GetMapsAPIKey returns the static map provider API key.
func (c *Config) GetMapsAPIKey() string { return c.MapsAPIKey }

// GetStaticMapURL returns the static map endpoint.
func (c *Config) GetStaticMapURL() string { return c.StaticMapURL }

// GetStaticMapSize returns the rendered image dimensions.
func (c *Config) GetStaticMapSize() string { return c.StaticMapSize }

// GetStaticMapType returns the map type (satellite, roadmap).
func (c *Config) GetStaticMapType() string { return c.DefaultMapType }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
