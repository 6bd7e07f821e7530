package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"tally/internal/recurring"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Auth
	JWTSecret    string
	IngestAPIKey string

	// Pattern detection
	LookbackDays           int
	MinTransactions        int
	MinConfidence          float64
	AmountTolerancePercent float64
	IntervalToleranceDays  int
	AllowCustomCadence     bool

	// Duplicate guard
	DuplicateAmountTolerancePercent float64
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "tally"),
		DBPassword: getEnv("DB_PASSWORD", "tally"),
		DBName:     getEnv("DB_NAME", "tally"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "tally.db"),

		JWTSecret:    getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		IngestAPIKey: getEnv("INGEST_API_KEY", ""),

		LookbackDays:           getEnvInt("DETECT_LOOKBACK_DAYS", 365),
		MinTransactions:        getEnvInt("DETECT_MIN_TRANSACTIONS", 2),
		MinConfidence:          getEnvFloat("DETECT_MIN_CONFIDENCE", 0.3),
		AmountTolerancePercent: getEnvFloat("DETECT_AMOUNT_TOLERANCE_PERCENT", 20),
		IntervalToleranceDays:  getEnvInt("DETECT_INTERVAL_TOLERANCE_DAYS", 7),
		AllowCustomCadence:     getEnvBool("DETECT_ALLOW_CUSTOM", false),

		DuplicateAmountTolerancePercent: getEnvFloat("DUPLICATE_AMOUNT_TOLERANCE_PERCENT", 15),
	}

	appConfig = config
	return config, nil
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MigrationURL returns the postgres:// URL golang-migrate expects.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Detection returns the pattern detection settings.
func (c *Config) Detection() recurring.Config {
	return recurring.Config{
		LookbackDays:           c.LookbackDays,
		MinTransactions:        c.MinTransactions,
		MinConfidence:          c.MinConfidence,
		AmountTolerancePercent: c.AmountTolerancePercent,
		IntervalToleranceDays:  c.IntervalToleranceDays,
		AllowCustom:            c.AllowCustomCadence,
	}
}

// Duplicates returns the duplicate guard settings.
func (c *Config) Duplicates() recurring.DuplicateOptions {
	opts := recurring.DefaultDuplicateOptions()
	opts.AmountTolerancePercent = c.DuplicateAmountTolerancePercent
	return opts
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
