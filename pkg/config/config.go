package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Tokens are minted by the identity service; this service only
	// validates them.
	JWTSecret string
	JWTIssuer string

	// Upstream transaction provider
	ProviderBaseURL  string
	ProviderClientID string
	ProviderSecret   string

	// Webhook ingestion
	WebhookSecret        string
	WebhookVerifyEnabled bool

	// Sync tuning
	SyncPageSize    int
	SyncPageDelay   time.Duration
	SyncMinInterval time.Duration

	// Analytics export (optional)
	BQEnabled   bool
	BQProjectID string
	BQDataset   string

	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "pennyworth-backend")
	viper.SetDefault("PROVIDER_BASE_URL", "")
	viper.SetDefault("PROVIDER_CLIENT_ID", "")
	viper.SetDefault("PROVIDER_SECRET", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("WEBHOOK_VERIFY", true)
	viper.SetDefault("SYNC_PAGE_SIZE", 100)
	viper.SetDefault("SYNC_PAGE_DELAY", "0s")
	viper.SetDefault("SYNC_MIN_INTERVAL", "4h")
	viper.SetDefault("BQ_ENABLED", false)
	viper.SetDefault("BQ_PROJECT_ID", "")
	viper.SetDefault("BQ_DATASET", "pennyworth_audit")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.ProviderBaseURL = viper.GetString("PROVIDER_BASE_URL")
	cfg.ProviderClientID = viper.GetString("PROVIDER_CLIENT_ID")
	cfg.ProviderSecret = viper.GetString("PROVIDER_SECRET")
	if cfg.ProviderBaseURL == "" {
		log.Println("Warning: PROVIDER_BASE_URL not set. Transaction sync will fail until configured.")
	}

	cfg.WebhookSecret = viper.GetString("WEBHOOK_SECRET")
	cfg.WebhookVerifyEnabled = viper.GetBool("WEBHOOK_VERIFY")
	if cfg.WebhookVerifyEnabled && cfg.WebhookSecret == "" {
		log.Println("Warning: WEBHOOK_VERIFY is on but WEBHOOK_SECRET is empty. All webhooks will be rejected.")
	}

	cfg.SyncPageSize = viper.GetInt("SYNC_PAGE_SIZE")
	if cfg.SyncPageSize <= 0 {
		cfg.SyncPageSize = 100
	}
	cfg.SyncPageDelay = parseDurationOr("SYNC_PAGE_DELAY", 0)
	cfg.SyncMinInterval = parseDurationOr("SYNC_MIN_INTERVAL", 4*time.Hour)

	cfg.BQEnabled = viper.GetBool("BQ_ENABLED")
	cfg.BQProjectID = viper.GetString("BQ_PROJECT_ID")
	cfg.BQDataset = viper.GetString("BQ_DATASET")
	if cfg.BQEnabled && cfg.BQProjectID == "" {
		log.Println("Warning: BQ_ENABLED is on but BQ_PROJECT_ID is empty. Analytics export disabled.")
		cfg.BQEnabled = false
	}

	cfg.CORSAllowedOrigins = splitAndTrim(viper.GetString("CORS_ALLOWED_ORIGINS"))

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
