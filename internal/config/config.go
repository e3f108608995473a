package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	UseMemoryCfg  bool
	AllowedCORS   []string
	ServiceSecret string

	// Clinic defaults, used when the settings store has no entry.
	ClinicID           string
	ClinicTimezone     string
	SlotGranularityMin int
	DefaultDurationMin int

	// Google Calendar gateway
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	GatewayTimeout        time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	RateLimitPerSec float64
	RateLimitBurst  int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		UseMemoryCfg:  getEnvAsBool("USE_MEMORY_CONFIG", false),
		AllowedCORS:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		ServiceSecret: getEnv("SERVICE_JWT_SECRET", ""),

		ClinicID:           getEnv("CLINIC_ID", "default"),
		ClinicTimezone:     getEnv("CLINIC_TIMEZONE", "America/New_York"),
		SlotGranularityMin: getEnvAsInt("SLOT_GRANULARITY_MINUTES", 15),
		DefaultDurationMin: getEnvAsInt("DEFAULT_DURATION_MINUTES", 30),

		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GatewayTimeout:        getEnvAsDuration("CALENDAR_GATEWAY_TIMEOUT", 15*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RateLimitPerSec: getEnvAsFloat("RATE_LIMIT_PER_SEC", 10),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
