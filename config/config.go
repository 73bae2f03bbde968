package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Platform PlatformConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr string
	DB   int
}

type TelegramConfig struct {
	Token string
}

type PlatformConfig struct {
	BaseURL string // restaurant platform API (menu, chat assistant, orders, schedule)
	Timeout time.Duration
	MenuTTL time.Duration // how long activated-menu responses stay cached
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	timeoutSec, _ := strconv.Atoi(getEnv("PLATFORM_TIMEOUT_SECONDS", "15"))
	menuTTLSec, _ := strconv.Atoi(getEnv("MENU_CACHE_TTL_SECONDS", "120"))

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "assistant"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
			DB:   redisDB,
		},
		Telegram: TelegramConfig{
			Token: getEnv("TOKEN", ""),
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_API_URL", ""),
			Timeout: time.Duration(timeoutSec) * time.Second,
			MenuTTL: time.Duration(menuTTLSec) * time.Second,
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
