package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrainerPerformanceMetrics holds per-trainer rolling metrics for one
// measurement period. Unique per (trainer_id, period_start, period_end);
// recomputation overwrites prior values rather than accumulating.
type TrainerPerformanceMetrics struct {
	ID                      string    `gorm:"primaryKey;size:36" json:"id"`
	TrainerID               string    `gorm:"size:36;not null;uniqueIndex:idx_trainer_period" json:"trainer_id"`
	MeasurementPeriodStart  time.Time `gorm:"uniqueIndex:idx_trainer_period" json:"measurement_period_start"`
	MeasurementPeriodEnd    time.Time `gorm:"uniqueIndex:idx_trainer_period" json:"measurement_period_end"`
	TotalClasses            int       `json:"total_classes"`
	CompletedClasses        int       `json:"completed_classes"`
	CancelledClasses        int       `json:"cancelled_classes"`
	CancellationRate        float64   `gorm:"type:decimal(5,2)" json:"cancellation_rate"`
	AverageAttendanceRate   float64   `gorm:"type:decimal(5,2)" json:"average_attendance_rate"`
	ClientSatisfactionScore *float64  `gorm:"type:decimal(4,3)" json:"client_satisfaction_score"`
	RevenueGenerated        float64   `gorm:"type:decimal(10,2)" json:"revenue_generated"`
	ComputedAt              time.Time `json:"computed_at"`
}

func (TrainerPerformanceMetrics) TableName() string {
	return "trainer_performance_metrics"
}

func (m *TrainerPerformanceMetrics) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
