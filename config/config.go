package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Predictor PredictorConfig
	Insights  InsightsConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CORSConfig struct {
	AllowedOrigins string
}

// PredictorConfig describes the external signal-timing process: the
// executable, fixed leading arguments, a hard per-call timeout, and the
// cap on simultaneously running predictor processes.
type PredictorConfig struct {
	Command       string
	Args          []string
	Timeout       time.Duration
	MaxConcurrent int
}

type InsightsConfig struct {
	// RefreshCron is a cron spec for periodic insight recomputation.
	// Empty disables the scheduled refresh.
	RefreshCron string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	predictorTimeout, err := getIntEnv("PREDICTOR_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTOR_TIMEOUT_SEC: %w", err)
	}

	predictorMax, err := getIntEnv("PREDICTOR_MAX_CONCURRENT", 8)
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTOR_MAX_CONCURRENT: %w", err)
	}
	if predictorMax < 1 {
		return nil, fmt.Errorf("PREDICTOR_MAX_CONCURRENT must be >= 1, got %d", predictorMax)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "traffic"),
			Password: getEnv("DB_PASSWORD", "traffic_dev_password"),
			Name:     getEnv("DB_NAME", "traffic"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			ExpiryHours: jwtExpiry,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Predictor: PredictorConfig{
			Command:       getEnv("PREDICTOR_COMMAND", "./predictor"),
			Args:          getListEnv("PREDICTOR_ARGS"),
			Timeout:       time.Duration(predictorTimeout) * time.Second,
			MaxConcurrent: predictorMax,
		},
		Insights: InsightsConfig{
			RefreshCron: getEnv("INSIGHT_REFRESH_CRON", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
