package config

import (
	"log"
	"os"

	"RescueHub/pkg/logger"
	"RescueHub/pkg/util"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log logger.LogConfig

	JWTSecret          string `env:"JWT_SECRET"`
	AccessTokenMinutes int64  `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	RefreshTokenDays   int64  `env:"REFRESH_TOKEN_EXPIRE_DAYS"`

	// AI provider selection: openai (DeepSeek-compatible), gigachat, yandex.
	AIProvider   string `env:"AI_PROVIDER"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIBase   string `env:"OPENAI_BASE_URL"`
	OpenAIModel  string `env:"OPENAI_MODEL"`

	GigaChatAuthKey string `env:"GIGACHAT_AUTH_KEY"`
	GigaChatBaseURL string `env:"GIGACHAT_BASE_URL"`
	GigaChatAuthURL string `env:"GIGACHAT_AUTH_URL"`
	GigaChatScope   string `env:"GIGACHAT_SCOPE"`

	YandexAPIKey   string `env:"YANDEX_GPT_API_KEY"`
	YandexFolderID string `env:"YANDEX_GPT_FOLDER_ID"`
	YandexModel    string `env:"YANDEX_GPT_MODEL"`

	CacheType     string `env:"CACHE_TYPE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int64  `env:"REDIS_DB"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"`
	MinioPublicURL string `env:"MINIO_PUBLIC_BASE"`

	RateLimit string `env:"RATE_LIMIT"` // e.g. "60-M"

	NotificationRetentionDays int64  `env:"NOTIFICATION_RETENTION_DAYS"`
	CleanupSchedule           string `env:"CLEANUP_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnvDefault("MODE", "debug"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api/v1"),

		DBDriver: util.GetEnvDefault("DB_DRIVER", "sqlite"),
		DSN:      util.GetEnvDefault("DSN", "rescuehub.db"),

		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},

		JWTSecret:          util.GetEnv("JWT_SECRET"),
		AccessTokenMinutes: defaultInt(util.GetIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES"), 30),
		RefreshTokenDays:   defaultInt(util.GetIntEnv("REFRESH_TOKEN_EXPIRE_DAYS"), 7),

		AIProvider:   util.GetEnvDefault("AI_PROVIDER", "openai"),
		OpenAIAPIKey: util.GetEnv("OPENAI_API_KEY"),
		OpenAIBase:   util.GetEnvDefault("OPENAI_BASE_URL", "https://api.deepseek.com"),
		OpenAIModel:  util.GetEnvDefault("OPENAI_MODEL", "deepseek-chat"),

		GigaChatAuthKey: util.GetEnv("GIGACHAT_AUTH_KEY"),
		GigaChatBaseURL: util.GetEnvDefault("GIGACHAT_BASE_URL", "https://gigachat.devices.sberbank.ru/api/v1"),
		GigaChatAuthURL: util.GetEnvDefault("GIGACHAT_AUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2"),
		GigaChatScope:   util.GetEnvDefault("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),

		YandexAPIKey:   util.GetEnv("YANDEX_GPT_API_KEY"),
		YandexFolderID: util.GetEnv("YANDEX_GPT_FOLDER_ID"),
		YandexModel:    util.GetEnvDefault("YANDEX_GPT_MODEL", "yandexgpt-lite"),

		CacheType:     util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: util.GetEnv("REDIS_PASSWORD"),
		RedisDB:       util.GetIntEnv("REDIS_DB"),

		MinioEndpoint:  util.GetEnv("MINIO_ENDPOINT"),
		MinioAccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
		MinioSecretKey: util.GetEnv("MINIO_SECRET_KEY"),
		MinioBucket:    util.GetEnvDefault("MINIO_BUCKET", "rescuehub-media"),
		MinioUseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
		MinioPublicURL: util.GetEnv("MINIO_PUBLIC_BASE"),

		RateLimit: util.GetEnvDefault("RATE_LIMIT", "60-M"),

		NotificationRetentionDays: defaultInt(util.GetIntEnv("NOTIFICATION_RETENTION_DAYS"), 30),
		CleanupSchedule:           util.GetEnvDefault("CLEANUP_SCHEDULE", "0 3 * * *"),
	}
	return nil
}

func defaultInt(v, fallback int64) int64 {
	if v == 0 {
		return fallback
	}
	return v
}
