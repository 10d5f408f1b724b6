package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds all configuration for the service
type Config struct {
	Environment     string
	Port            string
	DatabaseURL     string
	NATSURL         string
	JWTSecret       string
	GatePolicy      string
	CRMBaseURL      string
	CRMAPIKey       string
	CRMSource       string
	CRMSyncSchedule string
	SeedDemoUsers   bool
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8094"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		NATSURL:         getEnv("NATS_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		GatePolicy:      getEnv("GATE_POLICY", "ph_only"),
		CRMBaseURL:      getEnv("CRM_BASE_URL", ""),
		CRMAPIKey:       getEnv("CRM_API_KEY", ""),
		CRMSource:       getEnv("CRM_SOURCE", "crm"),
		CRMSyncSchedule: getEnv("CRM_SYNC_SCHEDULE", "@every 15m"),
		SeedDemoUsers:   getEnv("SEED_DEMO_USERS", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// InitDB initializes the database connection
func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		// Build DSN from individual components if DATABASE_URL not set
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "postgres")
		password := getEnv("DB_PASSWORD", "postgres")
		dbname := getEnv("DB_NAME", "bid_qualification_db")
		sslmode := getEnv("DB_SSLMODE", "disable")

		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode,
		)
	}

	logLevel := logger.Silent
	if cfg.Environment == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
