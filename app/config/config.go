package config

import (
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Logs     LogConfig
	DB       PostgresConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Briefer  BrieferConfig
	QueueURL string
}

type LogConfig struct {
	Style string
	Level string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
}

// AuthConfig points at the hosted auth/data service.
type AuthConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	TokenURL string
	// ServiceKey unlocks the elevated service session.
	ServiceKey string
	// OfficialUserID owns platform sources and the demo brief fallback.
	OfficialUserID string
}

type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	PriceIDProMonthly string
	PriceIDMaxMonthly string
	FrontendURL       string
}

// BrieferConfig controls the summarization engine and batch sizing.
type BrieferConfig struct {
	EngineURL string
	Model     string
	// BatchSize is how many sources one worker batch covers.
	BatchSize int
	// MaxItems caps articles summarized per source.
	MaxItems int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		QueueURL: os.Getenv("QUEUE_URL"),
		Logs: LogConfig{
			Style: os.Getenv("LOG_STYLE"),
			Level: os.Getenv("LOG_LEVEL"),
		},
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     os.Getenv("POSTGRES_PORT"),
		},
		Auth: AuthConfig{
			Issuer:         os.Getenv("AUTH_ISSUER"),
			Audience:       os.Getenv("AUTH_AUDIENCE"),
			JWKSURL:        os.Getenv("AUTH_JWKS_URL"),
			TokenURL:       os.Getenv("AUTH_TOKEN_URL"),
			ServiceKey:     os.Getenv("AUTH_SERVICE_KEY"),
			OfficialUserID: os.Getenv("OFFICIAL_USER_ID"),
		},
		Stripe: StripeConfig{
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDProMonthly: os.Getenv("STRIPE_PRICE_ID_PRO_MONTHLY"),
			PriceIDMaxMonthly: os.Getenv("STRIPE_PRICE_ID_MAX_MONTHLY"),
			FrontendURL:       os.Getenv("FRONTEND_URL"),
		},
		Briefer: BrieferConfig{
			EngineURL: os.Getenv("BRIEF_ENGINE_URL"),
			Model:     os.Getenv("BRIEF_ENGINE_MODEL"),
			BatchSize: getenvInt("BRIEF_BATCH_SIZE", 10),
			MaxItems:  getenvInt("BRIEF_MAX_ITEMS", 5),
		},
	}

	return cfg, nil
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
