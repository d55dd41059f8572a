package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/monitoring"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/pkg/config"
	"github.com/fitpulse/insights/pkg/logger"
)

// AtRiskService computes client inactivity and maintains the derived
// at_risk_clients table. Threshold boundaries come from configuration, not
// constants.
type AtRiskService struct {
	atRiskRepo *repository.AtRiskRepository
	eventRepo  *repository.EventRepository
	studioRepo *repository.StudioRepository
	eventSvc   *EventService
	notifier   *NotificationService
	cfg        *config.Config
}

func NewAtRiskService(
	atRiskRepo *repository.AtRiskRepository,
	eventRepo *repository.EventRepository,
	studioRepo *repository.StudioRepository,
	eventSvc *EventService,
	notifier *NotificationService,
	cfg *config.Config,
) *AtRiskService {
	return &AtRiskService{
		atRiskRepo: atRiskRepo,
		eventRepo:  eventRepo,
		studioRepo: studioRepo,
		eventSvc:   eventSvc,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// RiskAssessment is one client's computed risk snapshot.
type RiskAssessment struct {
	ClientID      string   `json:"client_id"`
	RiskLevel     string   `json:"risk_level"`
	RiskFactors   []string `json:"risk_factors"`
	DaysInactive  int      `json:"days_inactive"`
	RevenueAtRisk float64  `json:"revenue_at_risk"`
}

// DetectionResult summarizes one detector run.
type DetectionResult struct {
	Detected int `json:"detected"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// ActiveRecord returns the client's active at-risk record, or nil.
func (s *AtRiskService) ActiveRecord(clientID string) (*models.AtRiskClient, error) {
	record, err := s.atRiskRepo.FindActiveByClient(clientID)
	if err != nil {
		return nil, models.NewDependencyError("at-risk lookup", err)
	}
	return record, nil
}

// DetectAll scans every active client, assesses risk and upserts the
// derived records. The scan is cancelable between clients; records already
// upserted when the context is cancelled remain valid. Per-client failures
// do not abort the run; the result carries the partial counts.
func (s *AtRiskService) DetectAll(ctx context.Context) (*DetectionResult, error) {
	clients, err := s.studioRepo.FindActiveClients()
	if err != nil {
		monitoring.DetectionRuns.WithLabelValues("at_risk", "error").Inc()
		return nil, models.NewDependencyError("client scan", err)
	}

	result := &DetectionResult{}
	var failures int

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		assessment, err := s.Assess(client.ID)
		if err != nil {
			failures++
			logger.Error("Client risk assessment failed", err, map[string]interface{}{
				"client_id": client.ID,
			})
			continue
		}
		if assessment == nil {
			continue
		}

		result.Detected++
		inserted, err := s.UpsertDetected(assessment)
		if err != nil {
			failures++
			logger.Error("At-risk upsert failed", err, map[string]interface{}{
				"client_id": client.ID,
			})
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	s.refreshGauges()

	if failures > 0 {
		monitoring.DetectionRuns.WithLabelValues("at_risk", "partial").Inc()
		depErr := models.NewDependencyError("at-risk detection", fmt.Errorf("%d of %d clients failed", failures, len(clients)))
		depErr.Partial = result.Inserted + result.Updated
		return result, depErr
	}

	monitoring.DetectionRuns.WithLabelValues("at_risk", "ok").Inc()
	return result, nil
}

// DetectClient assesses a single client and upserts when a threshold is
// crossed. Used by the dispatcher on inactivity events.
func (s *AtRiskService) DetectClient(ctx context.Context, clientID string) (*RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessment, err := s.Assess(clientID)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, nil
	}

	if _, err := s.UpsertDetected(assessment); err != nil {
		return nil, err
	}
	s.refreshGauges()
	return assessment, nil
}

// Assess computes the client's days_inactive and risk bucket. Returns nil
// when the client is below the lowest configured threshold.
func (s *AtRiskService) Assess(clientID string) (*RiskAssessment, error) {
	client, err := s.studioRepo.FindClientByID(clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("client", clientID)
		}
		return nil, models.NewDependencyError("client read", err)
	}

	lastActivity := client.JoinedAt

	lastBooking, err := s.eventRepo.LastByTypes(clientID, []models.EventType{
		models.EventClassBookingCreated,
		models.EventClassBookingRescheduled,
	})
	if err != nil {
		return nil, models.NewDependencyError("booking event read", err)
	}
	if lastBooking != nil && lastBooking.OccurredAt.After(lastActivity) {
		lastActivity = lastBooking.OccurredAt
	}

	lastPresence, err := s.studioRepo.LastPresence(clientID)
	if err != nil {
		return nil, models.NewDependencyError("attendance read", err)
	}
	if lastPresence != nil && lastPresence.RecordedAt.After(lastActivity) {
		lastActivity = lastPresence.RecordedAt
	}

	daysInactive := int(time.Since(lastActivity).Hours() / 24)
	if daysInactive < 0 {
		daysInactive = 0
	}
	if daysInactive < s.cfg.RiskMediumDays {
		return nil, nil
	}

	factors := []string{fmt.Sprintf("no class activity in %d days", daysInactive)}

	recent, err := s.eventRepo.RecentBookingsByClient(clientID, 3)
	if err != nil {
		return nil, models.NewDependencyError("booking history read", err)
	}
	if len(recent) == 3 {
		allCancelled := true
		for _, e := range recent {
			if e.EventType != string(models.EventClassBookingCancelled) {
				allCancelled = false
				break
			}
		}
		if allCancelled {
			factors = append(factors, "cancelled last 3 bookings")
		}
	}

	revenueWindow := time.Now().AddDate(0, 0, -s.cfg.RiskRevenueWindowDays)
	revenueAtRisk, err := s.studioRepo.ClientRevenueSince(clientID, revenueWindow)
	if err != nil {
		return nil, models.NewDependencyError("revenue read", err)
	}

	return &RiskAssessment{
		ClientID:      clientID,
		RiskLevel:     string(s.bucket(daysInactive)),
		RiskFactors:   factors,
		DaysInactive:  daysInactive,
		RevenueAtRisk: revenueAtRisk,
	}, nil
}

func (s *AtRiskService) bucket(daysInactive int) models.RiskLevel {
	switch {
	case daysInactive >= s.cfg.RiskCriticalDays:
		return models.RiskCritical
	case daysInactive >= s.cfg.RiskHighDays:
		return models.RiskHigh
	case daysInactive >= s.cfg.RiskMediumDays:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// UpsertDetected applies an assessment to the derived table. When an active
// record exists it is updated in place; otherwise a new record is inserted
// and a client_at_risk_detected event is emitted. The partial unique index
// on (client_id) WHERE is_active guarantees at most one active record even
// under concurrent detector runs: a lost insert race falls back to
// updating the row that won.
func (s *AtRiskService) UpsertDetected(assessment *RiskAssessment) (inserted bool, err error) {
	factorsJSON, _ := json.Marshal(assessment.RiskFactors)

	existing, err := s.atRiskRepo.FindActiveByClient(assessment.ClientID)
	if err != nil {
		return false, models.NewDependencyError("at-risk lookup", err)
	}
	if existing != nil {
		s.applyAssessment(existing, assessment, factorsJSON)
		if err := s.atRiskRepo.Update(existing); err != nil {
			return false, models.NewDependencyError("at-risk update", err)
		}
		return false, nil
	}

	now := time.Now()
	record := &models.AtRiskClient{
		ClientID:      assessment.ClientID,
		RiskLevel:     assessment.RiskLevel,
		RiskFactors:   datatypes.JSON(factorsJSON),
		DaysInactive:  assessment.DaysInactive,
		RevenueAtRisk: assessment.RevenueAtRisk,
		IsActive:      true,
		DetectedAt:    now,
		UpdatedAt:     now,
	}

	if err := s.atRiskRepo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent run inserted first; update the winning row.
			winner, ferr := s.atRiskRepo.FindActiveByClient(assessment.ClientID)
			if ferr != nil || winner == nil {
				return false, models.NewDependencyError("at-risk reread", ferr)
			}
			s.applyAssessment(winner, assessment, factorsJSON)
			if uerr := s.atRiskRepo.Update(winner); uerr != nil {
				return false, models.NewDependencyError("at-risk update", uerr)
			}
			return false, nil
		}
		return false, models.NewDependencyError("at-risk insert", err)
	}

	if _, err := s.eventSvc.Record(RecordEventInput{
		EventType: string(models.EventClientAtRiskDetected),
		ClientID:  assessment.ClientID,
		Channel:   string(models.ChannelSystem),
		Metadata: map[string]interface{}{
			"risk_level":    assessment.RiskLevel,
			"days_inactive": assessment.DaysInactive,
		},
	}); err != nil {
		// The derived record is already durable; a failed marker event is
		// logged, not propagated.
		logger.Error("Failed to emit client_at_risk_detected", err, map[string]interface{}{
			"client_id": assessment.ClientID,
		})
	}

	s.notifier.NotifyAtRisk(record)

	return true, nil
}

func (s *AtRiskService) applyAssessment(record *models.AtRiskClient, assessment *RiskAssessment, factorsJSON []byte) {
	record.RiskLevel = assessment.RiskLevel
	record.RiskFactors = datatypes.JSON(factorsJSON)
	record.DaysInactive = assessment.DaysInactive
	record.RevenueAtRisk = assessment.RevenueAtRisk
	record.UpdatedAt = time.Now()
}

// AtRiskSummary accompanies the list endpoint.
type AtRiskSummary struct {
	TotalActive        int64            `json:"total_active"`
	ByLevel            map[string]int64 `json:"by_level"`
	TotalRevenueAtRisk float64          `json:"total_revenue_at_risk"`
}

// ListActive returns active records plus a summary, optionally filtered by
// risk level. An unknown level is a validation error.
func (s *AtRiskService) ListActive(riskLevel string) (*AtRiskSummary, []models.AtRiskClient, error) {
	if riskLevel != "" && !models.RiskLevel(riskLevel).IsValid() {
		return nil, nil, models.NewValidationError("risk_level", "unrecognized value "+riskLevel)
	}

	records, err := s.atRiskRepo.FindActive(riskLevel)
	if err != nil {
		return nil, nil, models.NewDependencyError("at-risk list", err)
	}

	counts, err := s.atRiskRepo.CountActiveByLevel()
	if err != nil {
		return nil, nil, models.NewDependencyError("at-risk counts", err)
	}

	summary := &AtRiskSummary{ByLevel: counts}
	for _, c := range counts {
		summary.TotalActive += c
	}
	for _, r := range records {
		summary.TotalRevenueAtRisk += r.RevenueAtRisk
	}

	return summary, records, nil
}

// Resolve deactivates a client's active record after re-engagement.
func (s *AtRiskService) Resolve(clientID string) error {
	affected, err := s.atRiskRepo.Deactivate(clientID)
	if err != nil {
		return models.NewDependencyError("at-risk resolve", err)
	}
	if affected == 0 {
		return models.NewNotFoundError("active at-risk record for client", clientID)
	}
	s.refreshGauges()
	return nil
}

func (s *AtRiskService) refreshGauges() {
	counts, err := s.atRiskRepo.CountActiveByLevel()
	if err != nil {
		return
	}
	for _, level := range []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical} {
		monitoring.ActiveAtRiskClients.WithLabelValues(string(level)).Set(float64(counts[string(level)]))
	}
}
