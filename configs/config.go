package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	PostgresURI       string
	RedisURI          string
	MediaRoot         string
	GalleryDLBinary   string
	DownloadTimeout   time.Duration
	SingleShotTimeout time.Duration
	TelegramAPIBase   string
	TelegramBotToken  string
	TelegramChatID    string
	AllowedUserID     int64
	AdminUsername     string
	AdminPasswordHash string
	R2                R2
	SecretKey         string
	CookieName        string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", "127.0.0.1:6379"),
		MediaRoot:         getEnv("MEDIA_ROOT", "/data/media"),
		GalleryDLBinary:   getEnv("GALLERY_DL_BINARY", "gallery-dl"),
		DownloadTimeout:   getEnvDuration("DOWNLOAD_TIMEOUT", 15*time.Minute),
		SingleShotTimeout: getEnvDuration("SINGLE_SHOT_TIMEOUT", 10*time.Minute),
		TelegramAPIBase:   getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
		AllowedUserID:     getEnvInt64("ALLOWED_USER_ID", 0),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "media_dashboard_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
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
