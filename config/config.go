package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds everything the server reads from the environment
type Config struct {
	AppEnv    string
	Port      string
	BaseURL   string
	StaticDir string

	JWTSecret  string
	SessionTTL time.Duration

	DBDriver string
	DBDSN    string

	MongoURI string
	MongoDB  string

	GatewayBaseURL     string
	GatewaySecretKey   string
	GatewayCallbackURL string

	MailProvider     string
	PostmarkAPIToken string
	SendgridAPIKey   string
	EmailSender      string

	GoogleClientID     string
	GoogleClientSecret string
}

// IsProduction reports whether error details should be withheld from clients
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// OAuthEnabled reports whether Google sign-in is configured
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load reads the configuration from environment variables. Callers load
// any .env file first.
func Load() (*Config, error) {
	getEnv := func(key string, required bool) (string, error) {
		value := os.Getenv(key)
		if value == "" && required {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg := &Config{
		AppEnv:             envOr("APP_ENV", "development"),
		Port:               envOr("PORT", "8000"),
		StaticDir:          envOr("STATIC_DIR", "public"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", "file:alumni.db?_pragma=busy_timeout(5000)&_time_format=sqlite"),
		MongoURI:           envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            envOr("MONGO_DB", "alumni"),
		GatewayBaseURL:     envOr("GATEWAY_BASE_URL", "https://api.paystack.co"),
		MailProvider:       envOr("MAIL_PROVIDER", "none"),
		PostmarkAPIToken:   os.Getenv("POSTMARK_API_TOKEN"),
		SendgridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		EmailSender:        os.Getenv("EMAIL_SENDER"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
	}
	cfg.BaseURL = envOr("BASE_URL", "http://localhost:"+cfg.Port)
	cfg.GatewayCallbackURL = envOr("GATEWAY_CALLBACK_URL", cfg.BaseURL+"/payment/success")

	var err error
	if cfg.JWTSecret, err = getEnv("JWT_SECRET", true); err != nil {
		return nil, err
	}
	if cfg.GatewaySecretKey, err = getEnv("GATEWAY_SECRET_KEY", true); err != nil {
		return nil, err
	}

	cfg.SessionTTL, err = time.ParseDuration(envOr("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	switch cfg.MailProvider {
	case "postmark":
		if cfg.PostmarkAPIToken == "" {
			return nil, fmt.Errorf("missing required environment variable: POSTMARK_API_TOKEN")
		}
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("missing required environment variable: SENDGRID_API_KEY")
		}
	case "none":
	default:
		return nil, fmt.Errorf("unsupported MAIL_PROVIDER %q", cfg.MailProvider)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
