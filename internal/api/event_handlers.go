package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitpulse/insights/internal/middleware"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/internal/service"
)

// EventHandler exposes the event log
type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// RecordEvent handles POST /api/events
func (h *EventHandler) RecordEvent(c *gin.Context) {
	var input service.RecordEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	event, err := h.eventService.Record(input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event_id": event.ID})
}

// QueryEvents handles GET /api/events
func (h *EventHandler) QueryEvents(c *gin.Context) {
	filters := repository.EventFilters{
		ClientID:  c.Query("client_id"),
		TrainerID: c.Query("trainer_id"),
		ClassID:   c.Query("class_id"),
	}
	if types := c.QueryArray("type"); len(types) > 0 {
		filters.Types = types
	}
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time", "code": "VALIDATION_ERROR"})
			return
		}
		filters.StartTime = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time", "code": "VALIDATION_ERROR"})
			return
		}
		filters.EndTime = t
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit", "code": "VALIDATION_ERROR"})
			return
		}
		filters.Limit = limit
	}

	events, err := h.eventService.Query(filters)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
