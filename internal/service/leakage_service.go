package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/monitoring"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/pkg/logger"
)

// LeakageService reconciles cancelled classes against their enrollments to
// find billed-but-unrecovered value.
type LeakageService struct {
	leakageRepo *repository.LeakageRepository
	studioRepo  *repository.StudioRepository
	eventSvc    *EventService
	notifier    *NotificationService
}

func NewLeakageService(
	leakageRepo *repository.LeakageRepository,
	studioRepo *repository.StudioRepository,
	eventSvc *EventService,
	notifier *NotificationService,
) *LeakageService {
	return &LeakageService{
		leakageRepo: leakageRepo,
		studioRepo:  studioRepo,
		eventSvc:    eventSvc,
		notifier:    notifier,
	}
}

// LeakageDetectionResult summarizes one detector run.
type LeakageDetectionResult struct {
	Detected int                           `json:"detected"`
	Records  []models.RevenueLeakageRecord `json:"records"`
}

// DetectLeakage scans classes cancelled within the trailing periodDays and
// creates one unresolved record per enrollment that has none yet. Classes
// priced at zero produce nothing: there is no loss to track. Each insert is
// independently guarded by the partial unique index, so a partially failed
// run keeps its completed inserts and reports their count.
func (s *LeakageService) DetectLeakage(ctx context.Context, periodDays int) (*LeakageDetectionResult, error) {
	if periodDays <= 0 {
		return nil, models.NewValidationError("period_days", "must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -periodDays)
	cancelled, err := s.studioRepo.CancelledClassesSince(cutoff)
	if err != nil {
		monitoring.DetectionRuns.WithLabelValues("leakage", "error").Inc()
		return nil, models.NewDependencyError("cancelled class scan", err)
	}

	result := &LeakageDetectionResult{}
	var failures int

	for _, class := range cancelled {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if class.Price <= 0 {
			continue
		}

		enrollments, err := s.studioRepo.EnrollmentsByClass(class.ID)
		if err != nil {
			failures++
			logger.Error("Failed to read enrollments for cancelled class", err, map[string]interface{}{
				"class_id": class.ID,
			})
			continue
		}

		for _, enrollment := range enrollments {
			created, err := s.recordLeakage(class, enrollment)
			if err != nil {
				failures++
				logger.Error("Failed to record leakage", err, map[string]interface{}{
					"class_id":      class.ID,
					"enrollment_id": enrollment.ID,
				})
				continue
			}
			if created != nil {
				result.Detected++
				result.Records = append(result.Records, *created)
			}
		}
	}

	s.refreshGauge()

	if failures > 0 {
		monitoring.DetectionRuns.WithLabelValues("leakage", "partial").Inc()
		depErr := models.NewDependencyError("leakage detection", fmt.Errorf("%d pairs failed", failures))
		depErr.Partial = result.Detected
		return result, depErr
	}

	monitoring.DetectionRuns.WithLabelValues("leakage", "ok").Inc()
	return result, nil
}

// recordLeakage creates the unresolved record for one (class, enrollment)
// pair, returning nil when one already exists.
func (s *LeakageService) recordLeakage(class models.Class, enrollment models.Enrollment) (*models.RevenueLeakageRecord, error) {
	exists, err := s.leakageRepo.HasUnresolved(class.ID, enrollment.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	record := &models.RevenueLeakageRecord{
		ClientID:     enrollment.ClientID,
		ClassID:      class.ID,
		EnrollmentID: enrollment.ID,
		LeakageType:  string(models.LeakageCancellationNoShow),
		AmountLost:   class.Price,
		Description:  fmt.Sprintf("class %q cancelled with enrolled client, %.2f unrecovered", class.Name, class.Price),
		DetectedAt:   time.Now(),
	}

	if err := s.leakageRepo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent detector run created the record; not a failure.
			return nil, nil
		}
		return nil, err
	}

	monitoring.LeakageRecordsCreated.Inc()

	if _, err := s.eventSvc.Record(RecordEventInput{
		EventType:    string(models.EventRevenueLeakageDetected),
		ClientID:     enrollment.ClientID,
		ClassID:      class.ID,
		EnrollmentID: enrollment.ID,
		Channel:      string(models.ChannelSystem),
		Metadata: map[string]interface{}{
			"amount_lost":  class.Price,
			"leakage_type": record.LeakageType,
		},
	}); err != nil {
		logger.Error("Failed to emit revenue_leakage_detected", err, map[string]interface{}{
			"record_id": record.ID,
		})
	}

	s.notifier.NotifyLeakage(record)

	return record, nil
}

// LeakageSummary aggregates existing records over a period.
type LeakageSummary struct {
	TotalLost      float64            `json:"total_lost"`
	TotalRecovered float64            `json:"total_recovered"`
	NetLoss        float64            `json:"net_loss"`
	RecoveryRate   float64            `json:"recovery_rate"`
	ByType         map[string]float64 `json:"by_type"`
}

// Summarize aggregates records detected within the trailing periodDays.
// recovery_rate is 0 when nothing was lost (divide-by-zero guard).
func (s *LeakageService) Summarize(periodDays int, includeRecovered bool) (*LeakageSummary, []models.RevenueLeakageRecord, error) {
	if periodDays <= 0 {
		return nil, nil, models.NewValidationError("period_days", "must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -periodDays)
	records, err := s.leakageRepo.FindSince(cutoff, includeRecovered)
	if err != nil {
		return nil, nil, models.NewDependencyError("leakage read", err)
	}

	summary := &LeakageSummary{ByType: make(map[string]float64)}
	for _, r := range records {
		summary.TotalLost += r.AmountLost
		summary.TotalRecovered += r.RecoveryAmount
		summary.ByType[r.LeakageType] += r.AmountLost
	}
	summary.NetLoss = summary.TotalLost - summary.TotalRecovered
	if summary.TotalLost > 0 {
		summary.RecoveryRate = summary.TotalRecovered / summary.TotalLost * 100
	}

	return summary, records, nil
}

// RecordRecovery marks a record recovered with the amount clawed back.
// Recovery is terminal per record; a recovered record cannot be re-opened.
func (s *LeakageService) RecordRecovery(recordID string, amount float64) (*models.RevenueLeakageRecord, error) {
	if amount <= 0 {
		return nil, models.NewValidationError("recovery_amount", "must be positive")
	}

	record, err := s.leakageRepo.FindByID(recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("leakage record", recordID)
		}
		return nil, models.NewDependencyError("leakage read", err)
	}

	if record.Recovered {
		return nil, models.NewValidationError("recovered", "record already recovered")
	}
	if amount > record.AmountLost {
		return nil, models.NewValidationError("recovery_amount", "exceeds amount lost")
	}

	now := time.Now()
	record.Recovered = true
	record.RecoveryAmount = amount
	record.RecoveredAt = &now

	if err := s.leakageRepo.Update(record); err != nil {
		return nil, models.NewDependencyError("leakage update", err)
	}

	s.refreshGauge()
	return record, nil
}

func (s *LeakageService) refreshGauge() {
	total, err := s.leakageRepo.UnrecoveredTotal()
	if err != nil {
		return
	}
	monitoring.UnrecoveredLeakageAmount.Set(total)
}
