package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort         string
	DBDriver           string
	DatabaseDSN        string
	RedisAddr          string
	RedisDB            int
	RedisPass          string
	SecretKey          string
	TokenTTL           time.Duration
	PasswordIterations int
	CORSOrigins        []string
	LogLevel           string
	ResetDB            bool
	SwaggerHost        string
}

// Load builds Config from environment with sensible defaults.
// The signing secret is read here once and never changes afterwards.
func Load() *Config {
	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "5001"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DatabaseDSN:        getEnv("DATABASE_DSN", "bptracker.db"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		SecretKey:          getEnv("SECRET_KEY", "your_super_secret_key_change_this"),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 24*time.Hour),
		PasswordIterations: getEnvInt("PASSWORD_ITERATIONS", 600000),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"*"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ResetDB:            os.Getenv("RESET_DB") == "true",
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
