package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/repository"
)

func TestRecordEvent(t *testing.T) {
	env := newTestEnv(t)

	event, err := env.events.Record(RecordEventInput{
		EventType: string(models.EventPaymentSuccess),
		ClientID:  "client-1",
		PaymentID: "payment-1",
		Channel:   string(models.ChannelWeb),
		Metadata:  map[string]interface{}{"amount": 49.90},
	})
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, string(models.EventPaymentSuccess), event.EventType)
	assert.Equal(t, string(models.OutcomeSuccess), event.OutcomeStatus)
	assert.False(t, event.OccurredAt.IsZero())

	var stored models.SystemEvent
	require.NoError(t, env.db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, "client-1", stored.ClientID)

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(stored.Metadata, &metadata))
	assert.Equal(t, 49.90, metadata["amount"])
}

func TestRecordEventRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.events.Record(RecordEventInput{EventType: "client_churned"})

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "event_type", validationErr.Field)

	// Nothing persisted.
	var count int64
	require.NoError(t, env.db.Model(&models.SystemEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordEventValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input RecordEventInput
		field string
	}{
		{"missing type", RecordEventInput{}, "event_type"},
		{"bad channel", RecordEventInput{EventType: string(models.EventPaymentSuccess), Channel: "fax"}, "channel"},
		{"bad outcome", RecordEventInput{EventType: string(models.EventPaymentSuccess), OutcomeStatus: "maybe"}, "outcome_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.events.Record(tt.input)
			var validationErr *models.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestRecordEventDefaults(t *testing.T) {
	env := newTestEnv(t)

	event, err := env.events.Record(RecordEventInput{
		EventType: string(models.EventPackageTopup),
		ClientID:  "client-1",
	})
	require.NoError(t, err)

	assert.Equal(t, string(models.ChannelSystem), event.Channel)
	assert.Equal(t, string(models.OutcomeSuccess), event.OutcomeStatus)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, 5*time.Second)
}

func TestBookingCancelledTriggersReasonCollection(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.events.Record(RecordEventInput{
		EventType: string(models.EventClassBookingCancelled),
		ClientID:  "client-1",
		ClassID:   "class-1",
		Channel:   string(models.ChannelWhatsApp),
	})
	require.NoError(t, err)

	// Dispatch is synchronous, so the admin notification is already sent.
	require.Len(t, env.sender.Sent, 1)
	assert.Equal(t, "admin@fitpulse.app", env.sender.Sent[0].To)
	assert.Contains(t, env.sender.Sent[0].Subject, "cancelled")
}

func TestInactivityEventTriggersAtRiskDetection(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 45)

	_, err := env.events.Record(RecordEventInput{
		EventType: string(models.EventClientInactivity30),
		ClientID:  client.ID,
	})
	require.NoError(t, err)

	record, err := env.atRisk.ActiveRecord(client.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(models.RiskMedium), record.RiskLevel)
	assert.Equal(t, 45, record.DaysInactive)

	// The detector also appends its own marker event.
	markers, err := env.events.Query(repository.EventFilters{
		Types:    []string{string(models.EventClientAtRiskDetected)},
		ClientID: client.ID,
	})
	require.NoError(t, err)
	assert.Len(t, markers, 1)
}

func TestInactivityEventSkipsAlreadyFlaggedClient(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 45)

	for i := 0; i < 2; i++ {
		_, err := env.events.Record(RecordEventInput{
			EventType: string(models.EventClientInactivity30),
			ClientID:  client.ID,
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, env.db.Model(&models.AtRiskClient{}).
		Where("client_id = ? AND is_active", client.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	markers, err := env.events.Query(repository.EventFilters{
		Types:    []string{string(models.EventClientAtRiskDetected)},
		ClientID: client.ID,
	})
	require.NoError(t, err)
	assert.Len(t, markers, 1)
}

func TestQueryFiltersAndOrder(t *testing.T) {
	env := newTestEnv(t)

	base := time.Now().Add(-time.Hour)
	for i, eventType := range []models.EventType{
		models.EventClassBookingCreated,
		models.EventPaymentSuccess,
		models.EventClassBookingCreated,
	} {
		_, err := env.events.Record(RecordEventInput{
			EventType:  string(eventType),
			ClientID:   "client-1",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	found, err := env.events.Query(repository.EventFilters{
		Types:    []string{string(models.EventClassBookingCreated)},
		ClientID: "client-1",
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Newest first.
	assert.True(t, found[0].OccurredAt.After(found[1].OccurredAt))

	limited, err := env.events.Query(repository.EventFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
