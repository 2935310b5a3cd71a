package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	// PaymentProvider selects the gateway integration: "razorpay" or "stripe".
	PaymentProvider string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string // optional; empty disables webhook acceptance
	RazorpayBaseURL       string

	StripeAPIKey        string
	StripeWebhookSecret string // optional; empty disables webhook acceptance

	AdminUsername     string
	AdminPassword     string // plain comparison fallback
	AdminPasswordHash string // bcrypt hash, preferred when set
	JWTSecret         string

	// SMTP settings are optional; when incomplete the admin notifier is disabled.
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	AdminEmail string

	// Kafka settings are optional; when empty no payment events are published.
	KafkaBrokers       []string
	PaymentEventsTopic string
}

func LoadConfig() (*Config, error) {
	// A .env file is optional; the system environment wins either way.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),

		PaymentProvider: getEnv("PAYMENT_PROVIDER", "razorpay"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayBaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),

		StripeAPIKey:        os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),

		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPPort:   getEnv("SMTP_PORT", "587"),
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),

		PaymentEventsTopic: getEnv("PAYMENT_EVENTS_TOPIC", "payment-events"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required Postgres environment variables")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}

	switch cfg.PaymentProvider {
	case "razorpay":
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set")
		}
	case "stripe":
		if cfg.StripeAPIKey == "" {
			return nil, fmt.Errorf("STRIPE_API_KEY must be set")
		}
	default:
		return nil, fmt.Errorf("unknown PAYMENT_PROVIDER %q", cfg.PaymentProvider)
	}

	return cfg, nil
}

// NotifierConfigured reports whether the optional admin email channel has
// everything it needs.
func (c *Config) NotifierConfigured() bool {
	return c.AdminEmail != "" && c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
