package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

type Config struct {
	HTTPAddr string
	GelfAddr string

	// SQLitePath empty means the in-memory store (dev/test mode).
	SQLitePath string

	// AccuracyThreshold is the single routing/filtering threshold shared by
	// the router, the validator caller, and the statistics aggregator.
	AccuracyThreshold float64
	ReviewSLAHours    int

	GeminiAPIKey     string
	GeminiModel      string
	ExtractorTimeout int // seconds
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		HTTPAddr:          getEnv("REVIEW_ADDR", ":8080"),
		GelfAddr:          getEnv("REVIEW_GELF_ADDR", ""),
		SQLitePath:        getEnv("REVIEW_SQLITE_PATH", "reportreview.db"),
		AccuracyThreshold: getEnvFloat("REVIEW_ACCURACY_THRESHOLD", 85),
		ReviewSLAHours:    getEnvInt("REVIEW_SLA_HOURS", 48),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("REVIEW_GEMINI_MODEL", "gemini-2.0-flash"),
		ExtractorTimeout:  getEnvInt("REVIEW_EXTRACTOR_TIMEOUT", 45),
	}
}

// Validate rejects unusable settings up front so misconfiguration never
// surfaces mid-pipeline.
func (c *Config) Validate() error {
	if c.AccuracyThreshold <= 0 || c.AccuracyThreshold > 100 {
		return &models.ThresholdConfigurationError{Value: c.AccuracyThreshold}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
