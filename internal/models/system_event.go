package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType identifies a discrete business occurrence. The set is closed:
// the event store rejects anything outside it.
type EventType string

const (
	// Booking lifecycle
	EventClassBookingCreated     EventType = "class_booking_created"
	EventClassBookingCancelled   EventType = "class_booking_cancelled"
	EventClassBookingRescheduled EventType = "class_booking_rescheduled"

	// Trainer assignment
	EventTrainerAssigned   EventType = "trainer_assigned"
	EventTrainerReplaced   EventType = "trainer_replaced"
	EventTrainerReassigned EventType = "trainer_reassigned"

	// Client inactivity milestones
	EventClientInactivity30 EventType = "client_inactivity_30"
	EventClientInactivity60 EventType = "client_inactivity_60"
	EventClientInactivity90 EventType = "client_inactivity_90"

	// Payments and packages
	EventPaymentSuccess EventType = "payment_success"
	EventPaymentFailure EventType = "payment_failure"
	EventPackageExpired EventType = "package_expired"
	EventPackageTopup   EventType = "package_topup"

	// Operations
	EventEmergencySOPActivated EventType = "emergency_sop_activated"

	// Referrals and marketing
	EventReferralCodeUsed     EventType = "referral_code_used"
	EventReferralConverted    EventType = "referral_converted"
	EventMarketingMessageSent EventType = "marketing_message_sent"

	// Feedback
	EventClientFeedbackSubmitted  EventType = "client_feedback_submitted"
	EventTrainerFeedbackSubmitted EventType = "trainer_feedback_submitted"

	// Emitted by the insight pipeline itself
	EventClientAtRiskDetected       EventType = "client_at_risk_detected"
	EventCancellationReasonRecorded EventType = "cancellation_reason_recorded"
	EventRevenueLeakageDetected     EventType = "revenue_leakage_detected"
)

var validEventTypes = map[EventType]bool{
	EventClassBookingCreated:        true,
	EventClassBookingCancelled:      true,
	EventClassBookingRescheduled:    true,
	EventTrainerAssigned:            true,
	EventTrainerReplaced:            true,
	EventTrainerReassigned:          true,
	EventClientInactivity30:         true,
	EventClientInactivity60:         true,
	EventClientInactivity90:         true,
	EventPaymentSuccess:             true,
	EventPaymentFailure:             true,
	EventPackageExpired:             true,
	EventPackageTopup:               true,
	EventEmergencySOPActivated:      true,
	EventReferralCodeUsed:           true,
	EventReferralConverted:          true,
	EventMarketingMessageSent:       true,
	EventClientFeedbackSubmitted:    true,
	EventTrainerFeedbackSubmitted:   true,
	EventClientAtRiskDetected:       true,
	EventCancellationReasonRecorded: true,
	EventRevenueLeakageDetected:     true,
}

// IsValid reports whether t belongs to the closed event type set.
func (t EventType) IsValid() bool {
	return validEventTypes[t]
}

// Channel identifies where an event originated.
type Channel string

const (
	ChannelAdmin    Channel = "admin"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelAIBot    Channel = "ai_bot"
	ChannelWeb      Channel = "web"
	ChannelMobile   Channel = "mobile"
	ChannelSystem   Channel = "system"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelAdmin, ChannelWhatsApp, ChannelAIBot, ChannelWeb, ChannelMobile, ChannelSystem:
		return true
	}
	return false
}

// OutcomeStatus records how the underlying action went.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomePending OutcomeStatus = "pending"
	OutcomePartial OutcomeStatus = "partial"
)

func (o OutcomeStatus) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomePending, OutcomePartial:
		return true
	}
	return false
}

// SystemEvent is the immutable, append-only record of a business event.
// Corrections are modeled as new events; rows are never updated or deleted.
type SystemEvent struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	EventType     string         `gorm:"index;size:100;not null" json:"event_type"`
	OccurredAt    time.Time      `gorm:"index" json:"occurred_at"`
	ClientID      string         `gorm:"index;size:36" json:"client_id,omitempty"`
	TrainerID     string         `gorm:"index;size:36" json:"trainer_id,omitempty"`
	ClassID       string         `gorm:"index;size:36" json:"class_id,omitempty"`
	EnrollmentID  string         `gorm:"size:36" json:"enrollment_id,omitempty"`
	PaymentID     string         `gorm:"size:36" json:"payment_id,omitempty"`
	Location      string         `gorm:"size:100" json:"location,omitempty"`
	Channel       string         `gorm:"size:20" json:"channel"`
	OutcomeStatus string         `gorm:"size:20" json:"outcome_status"`
	Metadata      datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (SystemEvent) TableName() string {
	return "system_events"
}

// BeforeCreate hook to generate UUID
func (e *SystemEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
