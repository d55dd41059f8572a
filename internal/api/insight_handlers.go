package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fitpulse/insights/internal/middleware"
	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/service"
)

// InsightHandler exposes the derived analytics: at-risk clients, revenue
// leakage, trainer performance and feedback analysis.
type InsightHandler struct {
	atRisk            *service.AtRiskService
	leakage           *service.LeakageService
	performance       *service.PerformanceService
	feedback          *service.FeedbackService
	leakagePeriodDays int
}

func NewInsightHandler(
	atRisk *service.AtRiskService,
	leakage *service.LeakageService,
	performance *service.PerformanceService,
	feedback *service.FeedbackService,
	leakagePeriodDays int,
) *InsightHandler {
	return &InsightHandler{
		atRisk:            atRisk,
		leakage:           leakage,
		performance:       performance,
		feedback:          feedback,
		leakagePeriodDays: leakagePeriodDays,
	}
}

// GetAtRisk handles GET /api/insights/at-risk
func (h *InsightHandler) GetAtRisk(c *gin.Context) {
	summary, clients, err := h.atRisk.ListActive(c.Query("risk_level"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "clients": clients})
}

// DetectAtRisk handles POST /api/insights/at-risk/detect
func (h *InsightHandler) DetectAtRisk(c *gin.Context) {
	result, err := h.atRisk.DetectAll(c.Request.Context())
	if err != nil {
		var depErr *models.DependencyError
		if errors.As(err, &depErr) && result != nil {
			// Partial completion still reports its counts.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    depErr.Error(),
				"code":     "DEPENDENCY_ERROR",
				"detected": result.Detected,
				"inserted": result.Inserted,
				"updated":  result.Updated,
			})
			return
		}
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResolveAtRisk handles POST /api/insights/at-risk/:clientID/resolve
func (h *InsightHandler) ResolveAtRisk(c *gin.Context) {
	if err := h.atRisk.Resolve(c.Param("clientID")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

// GetRevenueLeakage handles GET /api/insights/revenue-leakage
func (h *InsightHandler) GetRevenueLeakage(c *gin.Context) {
	periodDays, ok := h.periodDays(c, h.leakagePeriodDays)
	if !ok {
		return
	}
	includeRecovered := c.Query("include_recovered") == "true"

	summary, records, err := h.leakage.Summarize(periodDays, includeRecovered)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"by_type": summary.ByType,
		"records": records,
	})
}

// DetectRevenueLeakage handles POST /api/insights/revenue-leakage/detect
func (h *InsightHandler) DetectRevenueLeakage(c *gin.Context) {
	periodDays, ok := h.periodDays(c, h.leakagePeriodDays)
	if !ok {
		return
	}

	result, err := h.leakage.DetectLeakage(c.Request.Context(), periodDays)
	if err != nil {
		var depErr *models.DependencyError
		if errors.As(err, &depErr) && result != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    depErr.Error(),
				"code":     "DEPENDENCY_ERROR",
				"detected": result.Detected,
			})
			return
		}
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detected": result.Detected, "records": result.Records})
}

type recoveryRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// RecoverLeakage handles POST /api/insights/revenue-leakage/:id/recover
func (h *InsightHandler) RecoverLeakage(c *gin.Context) {
	var req recoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	record, err := h.leakage.RecordRecovery(c.Param("id"), req.Amount)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}

// GetTrainerPerformance handles GET /api/insights/trainer-performance
func (h *InsightHandler) GetTrainerPerformance(c *gin.Context) {
	periodDays, ok := h.periodDays(c, 30)
	if !ok {
		return
	}
	trainerID := c.Query("trainer_id")

	// Trainers may only read their own metrics; admins read everything.
	if role, _ := c.Get("user_role"); role == models.RoleTrainer {
		if trainerID == "" || trainerID != middleware.GetUserID(c) {
			middleware.RespondError(c, models.NewAuthorizationError("trainers may only view their own performance"))
			return
		}
	}

	metrics, err := h.performance.ComputeForPeriod(trainerID, periodDays)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// GetFeedbackAnalysis handles GET /api/insights/feedback-analysis
func (h *InsightHandler) GetFeedbackAnalysis(c *gin.Context) {
	periodDays, ok := h.periodDays(c, 30)
	if !ok {
		return
	}

	analysis, err := h.feedback.Analyze(periodDays)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type processFeedbackRequest struct {
	Sentiment string `json:"sentiment" binding:"required"`
}

// ProcessFeedback handles POST /api/insights/feedback/:id/process
func (h *InsightHandler) ProcessFeedback(c *gin.Context) {
	var req processFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	record, err := h.feedback.MarkProcessed(c.Param("id"), models.Sentiment(req.Sentiment))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": record})
}

// SendFeedbackToAdmin handles POST /api/insights/feedback/:id/send-to-admin
func (h *InsightHandler) SendFeedbackToAdmin(c *gin.Context) {
	record, err := h.feedback.MarkSentToAdmin(c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": record})
}

// periodDays parses the period_days query parameter, writing the error
// response itself when invalid.
func (h *InsightHandler) periodDays(c *gin.Context, defaultDays int) (int, bool) {
	v := c.Query("period_days")
	if v == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(v)
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_days must be a positive integer", "code": "VALIDATION_ERROR"})
		return 0, false
	}
	return days, true
}
