package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RiskLevel buckets a client's inactivity into an intervention priority.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// AtRiskClient is the derived record for a client whose inactivity pattern
// crossed a configured threshold. At most one active record exists per
// client; the invariant is backed by a partial unique index on client_id
// where is_active (created in repository.MigrateAll).
type AtRiskClient struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	ClientID      string         `gorm:"index;size:36;not null" json:"client_id"`
	RiskLevel     string         `gorm:"size:20;not null" json:"risk_level"`
	RiskFactors   datatypes.JSON `gorm:"type:jsonb" json:"risk_factors"`
	DaysInactive  int            `json:"days_inactive"`
	RevenueAtRisk float64        `gorm:"type:decimal(10,2);default:0" json:"revenue_at_risk"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	DetectedAt    time.Time      `json:"detected_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (AtRiskClient) TableName() string {
	return "at_risk_clients"
}

func (a *AtRiskClient) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
