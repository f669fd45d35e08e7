package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr                     string
	DatabaseURL              string
	JWTSecret                string
	Environment              string
	RunMigrations            bool
	RunSeed                  bool
	SeedHREmail              string
	SeedHRPassword           string
	QuestionTemplatesPath    string
	MaxBodyBytes             int64
	RateLimitPerMinute       int
	MaxActiveNominations     int
	MaxReviewerLoad          int
	ExternalMinLevel         int
	ReviewerLoadAcrossCycles bool
	AllowReapproval          bool
	MetricsEnabled           bool
}

func Load() Config {
	return Config{
		Addr:                     getEnv("APP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		Environment:              getEnv("APP_ENV", "development"),
		RunMigrations:            getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                  getEnvBool("RUN_SEED", true),
		SeedHREmail:              getEnv("SEED_HR_EMAIL", ""),
		SeedHRPassword:           getEnv("SEED_HR_PASSWORD", ""),
		QuestionTemplatesPath:    getEnv("QUESTION_TEMPLATES_PATH", "seed/questions.yaml"),
		MaxBodyBytes:             int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:       getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MaxActiveNominations:     getEnvInt("MAX_ACTIVE_NOMINATIONS", 4),
		MaxReviewerLoad:          getEnvInt("MAX_REVIEWER_LOAD", 4),
		ExternalMinLevel:         getEnvInt("EXTERNAL_MIN_LEVEL", 3),
		ReviewerLoadAcrossCycles: getEnvBool("REVIEWER_LOAD_ACROSS_CYCLES", false),
		AllowReapproval:          getEnvBool("ALLOW_REAPPROVAL", false),
		MetricsEnabled:           getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedHRPassword) == "" {
			return fmt.Errorf("SEED_HR_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.MaxActiveNominations <= 0 {
		return fmt.Errorf("MAX_ACTIVE_NOMINATIONS must be positive")
	}
	if c.MaxReviewerLoad <= 0 {
		return fmt.Errorf("MAX_REVIEWER_LOAD must be positive")
	}
	return nil
}
