package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string
	SQLitePath  string

	// Redis configuration, empty means in-process transaction locks
	RedisURL string
	LockTTL  time.Duration

	// Click merchant credentials
	SecretKey string
	ServiceID int64
	// SERVICE_ID as read, checked by Validate
	serviceIDRaw string

	// Merchant API protection for /transactions and /products
	MerchantAPIKey string

	// Telegram notification configuration
	BotToken       string
	ChatID         string
	TelegramAPIURL string

	// Brevo email configuration
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoToEmail   string

	NotifyTimeout time.Duration
	LogLevel      string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "7812"),
		Mode:           getEnv("GIN_MODE", "debug"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "click-merchant.db"),
		RedisURL:       getEnv("REDIS_URL", ""),
		LockTTL:        getEnvDuration("LOCK_TTL", 10*time.Second),
		SecretKey:      getEnv("SECRET_KEY", ""),
		ServiceID:      int64(getEnvInt("SERVICE_ID", 0)),
		serviceIDRaw:   getEnv("SERVICE_ID", ""),
		MerchantAPIKey: getEnv("MERCHANT_API_KEY", ""),
		BotToken:       getEnv("BOT_TOKEN", ""),
		ChatID:         getEnv("CHAT_ID", ""),
		TelegramAPIURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		BrevoAPIKey:    getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail: getEnv("BREVO_FROM_EMAIL", ""),
		BrevoToEmail:   getEnv("BREVO_TO_EMAIL", ""),
		NotifyTimeout:  getEnvDuration("NOTIFY_TIMEOUT", 45*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the service cannot run without.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is not set")
	}
	if c.serviceIDRaw != "" {
		if _, err := strconv.ParseInt(c.serviceIDRaw, 10, 64); err != nil {
			return fmt.Errorf("SERVICE_ID must be an integer, got %q", c.serviceIDRaw)
		}
	}
	if c.Port == "" {
		return errors.New("PORT is empty")
	}
	return nil
}

// TelegramEnabled reports whether order notifications go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// BrevoEnabled reports whether order notifications are also e-mailed.
func (c *Config) BrevoEnabled() bool {
	return c.BrevoAPIKey != "" && c.BrevoFromEmail != "" && c.BrevoToEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
