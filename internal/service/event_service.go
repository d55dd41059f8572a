package service

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/fitpulse/insights/internal/events"
	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/monitoring"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/pkg/logger"
)

// EventService owns the append-only business event log. Recording is the
// durable source of truth; dispatch to downstream detectors is best-effort
// and never rolls a recorded event back.
type EventService struct {
	eventRepo *repository.EventRepository
	bus       *events.Bus
}

func NewEventService(eventRepo *repository.EventRepository, bus *events.Bus) *EventService {
	return &EventService{eventRepo: eventRepo, bus: bus}
}

// RecordEventInput is the caller-facing shape of a new event.
type RecordEventInput struct {
	EventType     string                 `json:"event_type" binding:"required"`
	OccurredAt    time.Time              `json:"occurred_at"`
	ClientID      string                 `json:"client_id"`
	TrainerID     string                 `json:"trainer_id"`
	ClassID       string                 `json:"class_id"`
	EnrollmentID  string                 `json:"enrollment_id"`
	PaymentID     string                 `json:"payment_id"`
	Location      string                 `json:"location"`
	Channel       string                 `json:"channel"`
	OutcomeStatus string                 `json:"outcome_status"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// Record validates the input against the closed enumerations, durably
// appends one immutable event and returns it. The recorded event is then
// dispatched synchronously; dispatch failures are swallowed downstream.
func (s *EventService) Record(input RecordEventInput) (*models.SystemEvent, error) {
	if input.EventType == "" {
		monitoring.EventValidationFailures.Inc()
		return nil, models.NewValidationError("event_type", "is required")
	}
	if !models.EventType(input.EventType).IsValid() {
		monitoring.EventValidationFailures.Inc()
		return nil, models.NewValidationError("event_type", "unrecognized value "+input.EventType)
	}

	channel := input.Channel
	if channel == "" {
		channel = string(models.ChannelSystem)
	}
	if !models.Channel(channel).IsValid() {
		monitoring.EventValidationFailures.Inc()
		return nil, models.NewValidationError("channel", "unrecognized value "+channel)
	}

	outcome := input.OutcomeStatus
	if outcome == "" {
		outcome = string(models.OutcomeSuccess)
	}
	if !models.OutcomeStatus(outcome).IsValid() {
		monitoring.EventValidationFailures.Inc()
		return nil, models.NewValidationError("outcome_status", "unrecognized value "+outcome)
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	event := &models.SystemEvent{
		EventType:     input.EventType,
		OccurredAt:    occurredAt,
		ClientID:      input.ClientID,
		TrainerID:     input.TrainerID,
		ClassID:       input.ClassID,
		EnrollmentID:  input.EnrollmentID,
		PaymentID:     input.PaymentID,
		Location:      input.Location,
		Channel:       channel,
		OutcomeStatus: outcome,
	}

	if len(input.Metadata) > 0 {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, models.NewValidationError("metadata", "not serializable")
		}
		event.Metadata = datatypes.JSON(data)
	}

	if err := s.eventRepo.Append(event); err != nil {
		return nil, models.NewDependencyError("event append", err)
	}

	monitoring.EventsRecorded.WithLabelValues(event.EventType, event.Channel).Inc()

	logger.Debug("Event recorded", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.EventType,
		"client_id":  event.ClientID,
	})

	s.bus.Dispatch(*event)

	return event, nil
}

// Query reads the log through the caller-supplied filters.
func (s *EventService) Query(filters repository.EventFilters) ([]models.SystemEvent, error) {
	eventList, err := s.eventRepo.Query(filters)
	if err != nil {
		return nil, models.NewDependencyError("event query", err)
	}
	return eventList, nil
}
