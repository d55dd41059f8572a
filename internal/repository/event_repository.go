package repository

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventFilters narrows a log query.
type EventFilters struct {
	Types     []string
	ClientID  string
	TrainerID string
	ClassID   string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// Append durably stores one event. The log is append-only; no update or
// delete methods exist on this repository.
func (r *EventRepository) Append(event *models.SystemEvent) error {
	return r.db.Create(event).Error
}

func (r *EventRepository) FindByID(id string) (*models.SystemEvent, error) {
	var event models.SystemEvent
	err := r.db.Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Query retrieves events matching the filters, newest first. Ties on
// occurred_at keep insertion order via created_at.
func (r *EventRepository) Query(filters EventFilters) ([]models.SystemEvent, error) {
	query := r.db.Model(&models.SystemEvent{})

	if len(filters.Types) > 0 {
		query = query.Where("event_type IN ?", filters.Types)
	}
	if filters.ClientID != "" {
		query = query.Where("client_id = ?", filters.ClientID)
	}
	if filters.TrainerID != "" {
		query = query.Where("trainer_id = ?", filters.TrainerID)
	}
	if filters.ClassID != "" {
		query = query.Where("class_id = ?", filters.ClassID)
	}
	if !filters.StartTime.IsZero() {
		query = query.Where("occurred_at >= ?", filters.StartTime)
	}
	if !filters.EndTime.IsZero() {
		query = query.Where("occurred_at <= ?", filters.EndTime)
	}

	query = query.Order("occurred_at DESC, created_at DESC")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	} else {
		query = query.Limit(1000)
	}

	var events []models.SystemEvent
	err := query.Find(&events).Error
	return events, err
}

// LastByTypes returns the most recent event of any of the given types for a
// client, or nil if none exists.
func (r *EventRepository) LastByTypes(clientID string, types []models.EventType) (*models.SystemEvent, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	var event models.SystemEvent
	err := r.db.
		Where("client_id = ? AND event_type IN ?", clientID, typeStrings).
		Order("occurred_at DESC, created_at DESC").
		First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// RecentBookingsByClient returns the client's most recent booking-lifecycle
// events, newest first, up to limit.
func (r *EventRepository) RecentBookingsByClient(clientID string, limit int) ([]models.SystemEvent, error) {
	var events []models.SystemEvent
	err := r.db.
		Where("client_id = ? AND event_type IN ?", clientID, []string{
			string(models.EventClassBookingCreated),
			string(models.EventClassBookingCancelled),
			string(models.EventClassBookingRescheduled),
		}).
		Order("occurred_at DESC, created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
