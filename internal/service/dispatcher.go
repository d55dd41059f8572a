package service

import (
	"context"

	"github.com/fitpulse/insights/internal/events"
	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/monitoring"
	"github.com/fitpulse/insights/pkg/logger"
)

// Dispatcher wires recorded events to their downstream detectors. Most
// event types have no automatic downstream action; the routing table stays
// deliberately small:
//
//	class_booking_cancelled  -> cancellation-reason collection trigger
//	client_inactivity_30/60/90 -> at-risk assessment for the client,
//	                              skipped when an active record exists
//
// Handler errors are logged and counted, never surfaced to the caller of
// Record.
type Dispatcher struct {
	atRisk   *AtRiskService
	notifier *NotificationService
}

func NewDispatcher(atRisk *AtRiskService, notifier *NotificationService) *Dispatcher {
	return &Dispatcher{atRisk: atRisk, notifier: notifier}
}

// Register subscribes the routing table on the bus.
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.Subscribe(models.EventClassBookingCancelled, d.handleBookingCancelled)

	for _, t := range []models.EventType{
		models.EventClientInactivity30,
		models.EventClientInactivity60,
		models.EventClientInactivity90,
	} {
		bus.Subscribe(t, d.handleClientInactivity)
	}

	logger.Info("Event dispatcher registered", nil)
}

func (d *Dispatcher) handleBookingCancelled(event models.SystemEvent) {
	if err := d.notifier.RequestCancellationReason(event); err != nil {
		monitoring.DispatchHandlerFailures.WithLabelValues(event.EventType).Inc()
		logger.Error("Failed to trigger cancellation reason collection", err, map[string]interface{}{
			"event_id":  event.ID,
			"client_id": event.ClientID,
			"class_id":  event.ClassID,
		})
	}
}

func (d *Dispatcher) handleClientInactivity(event models.SystemEvent) {
	if event.ClientID == "" {
		return
	}

	// De-duplication guard: an already-flagged client is not re-assessed on
	// every inactivity milestone.
	existing, err := d.atRisk.ActiveRecord(event.ClientID)
	if err != nil {
		monitoring.DispatchHandlerFailures.WithLabelValues(event.EventType).Inc()
		logger.Error("Failed to check active at-risk record", err, map[string]interface{}{
			"client_id": event.ClientID,
		})
		return
	}
	if existing != nil {
		return
	}

	if _, err := d.atRisk.DetectClient(context.Background(), event.ClientID); err != nil {
		monitoring.DispatchHandlerFailures.WithLabelValues(event.EventType).Inc()
		logger.Error("At-risk detection from inactivity event failed", err, map[string]interface{}{
			"client_id":  event.ClientID,
			"event_type": event.EventType,
		})
	}
}
