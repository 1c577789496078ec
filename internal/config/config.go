// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type TelegramConfig struct {
	BotToken string
	OwnerID  int64
}

type SheetsConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Telegram   TelegramConfig
	Sheets     SheetsConfig
	Storage    StorageConfig
	Redis      RedisConfig
	CacheTTL   time.Duration
	HealthAddr string
}

// Load reads the environment. A missing .env file is fine; missing required
// variables are not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			OwnerID:  envInt64("OWNER_TELEGRAM_ID", 0),
		},
		Sheets: SheetsConfig{
			BaseURL: os.Getenv("SHEETS_API_URL"),
			Token:   os.Getenv("SHEETS_API_TOKEN"),
			Timeout: time.Duration(envInt("SHEETS_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    envString("S3_BUCKET", "rental-receipts"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
			UseSSL:    os.Getenv("S3_USE_SSL") == "true",
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		CacheTTL:   time.Duration(envInt("CACHE_TTL_SECONDS", 120)) * time.Second,
		HealthAddr: envString("HEALTH_ADDR", ":8080"),
	}

	if cfg.Sheets.BaseURL == "" {
		return nil, fmt.Errorf("SHEETS_API_URL is required")
	}
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	return cfg, nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envInt64(name string, fallback int64) int64 {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}
