package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeakageType classifies how billed value went unrecovered.
type LeakageType string

const (
	LeakageCancellationNoShow LeakageType = "cancellation_no_show"
)

// RevenueLeakageRecord tracks billed-but-unrecovered value from a cancelled
// or no-show session. At most one unresolved record exists per
// (class_id, enrollment_id) pair; the invariant is backed by a partial
// unique index where recovered is false (created in repository.MigrateAll).
type RevenueLeakageRecord struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ClientID       string     `gorm:"index;size:36" json:"client_id"`
	ClassID        string     `gorm:"index;size:36;not null" json:"class_id"`
	EnrollmentID   string     `gorm:"size:36;not null" json:"enrollment_id"`
	LeakageType    string     `gorm:"size:50;not null" json:"leakage_type"`
	AmountLost     float64    `gorm:"type:decimal(10,2);not null" json:"amount_lost"`
	Recovered      bool       `gorm:"default:false" json:"recovered"`
	RecoveryAmount float64    `gorm:"type:decimal(10,2);default:0" json:"recovery_amount"`
	Description    string     `gorm:"size:500" json:"description"`
	DetectedAt     time.Time  `json:"detected_at"`
	RecoveredAt    *time.Time `json:"recovered_at,omitempty"`
}

func (RevenueLeakageRecord) TableName() string {
	return "revenue_leakage_records"
}

func (r *RevenueLeakageRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
