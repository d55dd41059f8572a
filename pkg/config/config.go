package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool
	Port    string

	// Logging
	LogLevel string
	LogJSON  bool

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret     string
	TokenLifetime time.Duration

	// Risk level bucketing (days inactive). Boundaries mirror the
	// client_inactivity_30/60/90 event granularity but stay configurable.
	RiskMediumDays   int
	RiskHighDays     int
	RiskCriticalDays int

	// Window for the revenue-at-risk estimate (trailing days of spend)
	RiskRevenueWindowDays int

	// Default trailing window for leakage detection
	LeakagePeriodDays int

	// Optional in-process detection worker. Off by default: detection is
	// normally triggered by an external scheduler hitting the admin routes.
	DetectionWorkerEnabled bool
	DetectionInterval      time.Duration

	// InfluxDB (time-series event storage, optional)
	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	// Notifications
	ResendAPIKey string
	FromEmail    string
	AdminEmail   string
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		AppName:       getEnv("APP_NAME", "FitPulse Insights"),
		Debug:         getEnvBool("DEBUG", true),
		Port:          getEnv("PORT", "8000"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogJSON:       getEnvBool("LOG_JSON", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production-please-use-a-random-string"),
		TokenLifetime: getEnvDuration("TOKEN_LIFETIME", 24*time.Hour),

		RiskMediumDays:        getEnvInt("RISK_MEDIUM_DAYS", 30),
		RiskHighDays:          getEnvInt("RISK_HIGH_DAYS", 60),
		RiskCriticalDays:      getEnvInt("RISK_CRITICAL_DAYS", 90),
		RiskRevenueWindowDays: getEnvInt("RISK_REVENUE_WINDOW_DAYS", 90),

		LeakagePeriodDays: getEnvInt("LEAKAGE_PERIOD_DAYS", 30),

		DetectionWorkerEnabled: getEnvBool("DETECTION_WORKER_ENABLED", false),
		DetectionInterval:      getEnvDuration("DETECTION_INTERVAL", 24*time.Hour),

		InfluxDBURL:    getEnv("INFLUXDB_URL", ""),
		InfluxDBToken:  getEnv("INFLUXDB_TOKEN", ""),
		InfluxDBOrg:    getEnv("INFLUXDB_ORG", "fitpulse"),
		InfluxDBBucket: getEnv("INFLUXDB_BUCKET", "events"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "insights@fitpulse.app"),
		AdminEmail:   getEnv("ADMIN_EMAIL", ""),
	}

	AppConfig = config
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid boolean for %s, using default: %v", key, defaultValue)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid integer for %s, using default: %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("Invalid duration for %s, using default: %s", key, defaultValue)
			return defaultValue
		}
		return d
	}
	return defaultValue
}
