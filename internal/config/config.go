package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config - глобальная конфигурация бота
type Config struct {
	Env string // "local", "prod"

	Telegram   TelegramConfig
	Database   DatabaseConfig
	Polymarket PolymarketConfig
	Watch      WatchConfig
}

type TelegramConfig struct {
	BotToken string
	AdminID  int64
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PolymarketConfig struct {
	GammaURL  string
	DataURL   string
	GraphURL  string
	StreamURL string
	Timeout   time.Duration
}

type WatchConfig struct {
	PollInterval   time.Duration // Период всех четырех циклов
	WalletDelay    time.Duration // Пауза между кошельками внутри цикла
	ArbResetWindow time.Duration // Период полного сброса дедуп-кэша арбитража
}

// LoadConfig загружает настройки из окружения (.env подхватывается
// godotenv/autoload в main).
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Telegram: TelegramConfig{
			BotToken: os.Getenv("BOT_TOKEN"),
			AdminID:  getEnvInt64("ADMIN_ID", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "polarbot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Polymarket: PolymarketConfig{
			GammaURL:  getEnv("POLYMARKET_GAMMA_URL", "https://gamma-api.polymarket.com"),
			DataURL:   getEnv("POLYMARKET_DATA_URL", "https://data-api.polymarket.com"),
			GraphURL:  getEnv("POLYMARKET_GRAPH_URL", "https://api.thegraph.com/subgraphs/name/polymarket/matic-markets-7"),
			StreamURL: getEnv("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
			Timeout:   getEnvDuration("POLYMARKET_TIMEOUT_SECONDS", 15*time.Second),
		},
		Watch: WatchConfig{
			PollInterval:   getEnvDuration("POLL_INTERVAL_SECONDS", 60*time.Second),
			WalletDelay:    getEnvDuration("WALLET_DELAY_SECONDS", 2*time.Second),
			ArbResetWindow: getEnvDuration("ARB_RESET_SECONDS", 300*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if c.Watch.ArbResetWindow <= 0 {
		return fmt.Errorf("ARB_RESET_SECONDS must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration читает значение в секундах
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
