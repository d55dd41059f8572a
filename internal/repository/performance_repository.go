package repository

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PerformanceRepository struct {
	db *gorm.DB
}

func NewPerformanceRepository(db *gorm.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Upsert writes metrics keyed by (trainer_id, period_start, period_end).
// Recomputation for the same period overwrites prior values.
func (r *PerformanceRepository) Upsert(metrics *models.TrainerPerformanceMetrics) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "trainer_id"},
			{Name: "measurement_period_start"},
			{Name: "measurement_period_end"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_classes",
			"completed_classes",
			"cancelled_classes",
			"cancellation_rate",
			"average_attendance_rate",
			"client_satisfaction_score",
			"revenue_generated",
			"computed_at",
		}),
	}).Create(metrics).Error
}

func (r *PerformanceRepository) FindByTrainerAndPeriod(trainerID string, start, end time.Time) (*models.TrainerPerformanceMetrics, error) {
	var metrics models.TrainerPerformanceMetrics
	err := r.db.
		Where("trainer_id = ? AND measurement_period_start = ? AND measurement_period_end = ?", trainerID, start, end).
		First(&metrics).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &metrics, nil
}
