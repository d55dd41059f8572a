package repository

import (
	"fmt"
	"log"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Duplicate-key violations must surface as gorm.ErrDuplicatedKey so
		// detector inserts can fall back to updating the winning row.
		TranslateError: true,
	}
	if cfg.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	log.Printf("Connecting to PostgreSQL: %s", maskPassword(cfg.DatabaseURL))
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	DB = db

	if err := MigrateAll(db); err != nil {
		return err
	}

	log.Println("Database initialized successfully")
	return nil
}

// MigrateAll runs schema migration for every model plus the partial unique
// indexes backing the derived-table invariants. Shared with the test setup.
func MigrateAll(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Trainer{},
		&models.Class{},
		&models.Enrollment{},
		&models.AttendanceRecord{},
		&models.Feedback{},
		&models.SystemEvent{},
		&models.AtRiskClient{},
		&models.RevenueLeakageRecord{},
		&models.TrainerPerformanceMetrics{},
	)
	if err != nil {
		return err
	}

	// At most one active at-risk record per client.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_at_risk_active_client
		 ON at_risk_clients (client_id) WHERE is_active`,
	).Error; err != nil {
		return err
	}

	// At most one unresolved leakage record per (class, enrollment).
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_leakage_unresolved_pair
		 ON revenue_leakage_records (class_id, enrollment_id) WHERE NOT recovered`,
	).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Ping verifies the underlying connection is alive
func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// maskPassword masks the password in a connection string for logging
func maskPassword(url string) string {
	if len(url) < 20 {
		return "****"
	}

	start := -1
	end := -1
	for i := 0; i < len(url); i++ {
		if url[i] == ':' && start == -1 && i > 10 {
			start = i + 1
		}
		if url[i] == '@' && start != -1 {
			end = i
			break
		}
	}

	if start == -1 || end == -1 || start >= end {
		return "****"
	}

	return url[:start] + "****" + url[end:]
}
