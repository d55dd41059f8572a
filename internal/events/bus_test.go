package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitpulse/insights/internal/models"
)

type recordingSink struct {
	written []models.SystemEvent
	err     error
}

func (s *recordingSink) Write(event models.SystemEvent) error {
	s.written = append(s.written, event)
	return s.err
}

func TestDispatchRoutesByType(t *testing.T) {
	bus := NewBus()

	var created, cancelled, all []string
	bus.Subscribe(models.EventClassBookingCreated, func(e models.SystemEvent) {
		created = append(created, e.ID)
	})
	bus.Subscribe(models.EventClassBookingCancelled, func(e models.SystemEvent) {
		cancelled = append(cancelled, e.ID)
	})
	bus.SubscribeAll(func(e models.SystemEvent) {
		all = append(all, e.ID)
	})

	bus.Dispatch(models.SystemEvent{ID: "e-1", EventType: string(models.EventClassBookingCreated)})
	bus.Dispatch(models.SystemEvent{ID: "e-2", EventType: string(models.EventPaymentSuccess)})

	assert.Equal(t, []string{"e-1"}, created)
	assert.Empty(t, cancelled)
	assert.Equal(t, []string{"e-1", "e-2"}, all)
}

func TestDispatchIsSynchronous(t *testing.T) {
	bus := NewBus()

	done := false
	bus.Subscribe(models.EventPaymentFailure, func(models.SystemEvent) {
		done = true
	})

	bus.Dispatch(models.SystemEvent{EventType: string(models.EventPaymentFailure)})
	assert.True(t, done)
}

func TestDispatchRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus()

	var reached []string
	bus.Subscribe(models.EventPaymentSuccess, func(models.SystemEvent) {
		reached = append(reached, "first")
		panic("handler bug")
	})
	bus.Subscribe(models.EventPaymentSuccess, func(models.SystemEvent) {
		reached = append(reached, "second")
	})

	assert.NotPanics(t, func() {
		bus.Dispatch(models.SystemEvent{EventType: string(models.EventPaymentSuccess)})
	})
	// The panicking handler does not starve the one behind it.
	assert.Equal(t, []string{"first", "second"}, reached)
}

func TestSinkFailureDoesNotBlockHandlers(t *testing.T) {
	bus := NewBus()

	failing := &recordingSink{err: errors.New("influx down")}
	healthy := &recordingSink{}
	bus.AddSink(failing)
	bus.AddSink(healthy)

	handled := false
	bus.Subscribe(models.EventPackageExpired, func(models.SystemEvent) {
		handled = true
	})

	bus.Dispatch(models.SystemEvent{EventType: string(models.EventPackageExpired)})

	assert.Len(t, failing.written, 1)
	assert.Len(t, healthy.written, 1)
	assert.True(t, handled)
}
