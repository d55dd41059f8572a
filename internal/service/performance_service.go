package service

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/pkg/logger"
)

// PerformanceService computes per-trainer rolling metrics over a
// measurement period.
type PerformanceService struct {
	performanceRepo *repository.PerformanceRepository
	studioRepo      *repository.StudioRepository
	feedbackRepo    *repository.FeedbackRepository
}

func NewPerformanceService(
	performanceRepo *repository.PerformanceRepository,
	studioRepo *repository.StudioRepository,
	feedbackRepo *repository.FeedbackRepository,
) *PerformanceService {
	return &PerformanceService{
		performanceRepo: performanceRepo,
		studioRepo:      studioRepo,
		feedbackRepo:    feedbackRepo,
	}
}

// Compute derives a trainer's metrics for [start, end] and upserts them
// keyed by (trainer, period). Returns nil when the trainer ran no classes
// in the period: no meaningful rates exist.
func (s *PerformanceService) Compute(trainerID string, start, end time.Time) (*models.TrainerPerformanceMetrics, error) {
	if end.Before(start) {
		return nil, models.NewValidationError("period", "end precedes start")
	}

	classes, err := s.studioRepo.ClassesByTrainerInPeriod(trainerID, start, end)
	if err != nil {
		return nil, models.NewDependencyError("class read", err)
	}
	if len(classes) == 0 {
		return nil, nil
	}

	var completed, cancelled int
	var revenue float64
	classIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
		switch class.Status {
		case models.ClassStatusCompleted:
			completed++
			revenue += class.Price
		case models.ClassStatusCancelled:
			cancelled++
		}
	}

	total := len(classes)
	cancellationRate := float64(cancelled) / float64(total) * 100

	attendance, err := s.studioRepo.AttendanceByClasses(classIDs)
	if err != nil {
		return nil, models.NewDependencyError("attendance read", err)
	}
	var present int
	for _, record := range attendance {
		if record.Present {
			present++
		}
	}
	var attendanceRate float64
	if len(attendance) > 0 {
		attendanceRate = float64(present) / float64(len(attendance)) * 100
	}

	feedback, err := s.feedbackRepo.FindByTrainerInPeriod(trainerID, start, end)
	if err != nil {
		return nil, models.NewDependencyError("feedback read", err)
	}
	var satisfaction *float64
	var ratingSum, ratingCount int
	for _, f := range feedback {
		if f.Rating != nil {
			ratingSum += *f.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		score := float64(ratingSum) / float64(ratingCount) / 5
		satisfaction = &score
	}

	metrics := &models.TrainerPerformanceMetrics{
		TrainerID:               trainerID,
		MeasurementPeriodStart:  start,
		MeasurementPeriodEnd:    end,
		TotalClasses:            total,
		CompletedClasses:        completed,
		CancelledClasses:        cancelled,
		CancellationRate:        cancellationRate,
		AverageAttendanceRate:   attendanceRate,
		ClientSatisfactionScore: satisfaction,
		RevenueGenerated:        revenue,
		ComputedAt:              time.Now(),
	}

	if err := s.performanceRepo.Upsert(metrics); err != nil {
		return nil, models.NewDependencyError("metrics upsert", err)
	}

	return metrics, nil
}

// ComputeForPeriod computes metrics over the trailing periodDays for one
// trainer, or for every trainer with classes in the window when trainerID
// is empty. Trainers without classes simply yield no entry.
func (s *PerformanceService) ComputeForPeriod(trainerID string, periodDays int) ([]models.TrainerPerformanceMetrics, error) {
	if periodDays <= 0 {
		return nil, models.NewValidationError("period_days", "must be positive")
	}

	end := time.Now().Truncate(time.Minute)
	start := end.AddDate(0, 0, -periodDays)

	trainerIDs := []string{trainerID}
	if trainerID == "" {
		ids, err := s.studioRepo.TrainerIDsWithClasses(start, end)
		if err != nil {
			return nil, models.NewDependencyError("trainer scan", err)
		}
		trainerIDs = ids
	}

	metricsList := make([]models.TrainerPerformanceMetrics, 0, len(trainerIDs))
	for _, id := range trainerIDs {
		metrics, err := s.Compute(id, start, end)
		if err != nil {
			logger.Error("Trainer metrics computation failed", err, map[string]interface{}{
				"trainer_id": id,
			})
			continue
		}
		if metrics != nil {
			metricsList = append(metricsList, *metrics)
		}
	}

	return metricsList, nil
}
