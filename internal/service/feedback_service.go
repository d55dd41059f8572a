package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/repository"
)

// FeedbackService summarizes feedback records and drives their lifecycle.
type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
}

func NewFeedbackService(feedbackRepo *repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo}
}

// FeedbackAnalysis summarizes feedback over a period.
type FeedbackAnalysis struct {
	TotalFeedback  int               `json:"total_feedback"`
	BySentiment    map[string]int    `json:"by_sentiment"`
	AverageRating  float64           `json:"average_rating"`
	RecentFeedback []models.Feedback `json:"recent_feedback"`
}

// Analyze summarizes records created in the trailing periodDays. The
// average covers only records carrying a rating; the recent list holds the
// newest <=10 records that have text or a rating. An empty period yields an
// empty analysis, not an error.
func (s *FeedbackService) Analyze(periodDays int) (*FeedbackAnalysis, error) {
	if periodDays <= 0 {
		return nil, models.NewValidationError("period_days", "must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -periodDays)
	records, err := s.feedbackRepo.FindSince(cutoff)
	if err != nil {
		return nil, models.NewDependencyError("feedback read", err)
	}

	analysis := &FeedbackAnalysis{
		TotalFeedback: len(records),
		BySentiment: map[string]int{
			string(models.SentimentPositive): 0,
			string(models.SentimentNeutral):  0,
			string(models.SentimentNegative): 0,
		},
		RecentFeedback: []models.Feedback{},
	}

	var ratingSum, ratingCount int
	for _, record := range records {
		analysis.BySentiment[string(record.DerivedSentiment())]++
		if record.Rating != nil {
			ratingSum += *record.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		analysis.AverageRating = float64(ratingSum) / float64(ratingCount)
	}

	recent, err := s.feedbackRepo.RecentWithContent(cutoff, 10)
	if err != nil {
		return nil, models.NewDependencyError("feedback read", err)
	}
	analysis.RecentFeedback = recent

	return analysis, nil
}

// MarkProcessed attaches the AI-derived sentiment to pending voice
// feedback.
func (s *FeedbackService) MarkProcessed(feedbackID string, sentiment models.Sentiment) (*models.Feedback, error) {
	record, err := s.find(feedbackID)
	if err != nil {
		return nil, err
	}
	if err := record.MarkProcessed(sentiment); err != nil {
		return nil, models.NewValidationError("status", err.Error())
	}
	if err := s.feedbackRepo.Update(record); err != nil {
		return nil, models.NewDependencyError("feedback update", err)
	}
	return record, nil
}

// MarkSentToAdmin moves feedback to its terminal state.
func (s *FeedbackService) MarkSentToAdmin(feedbackID string) (*models.Feedback, error) {
	record, err := s.find(feedbackID)
	if err != nil {
		return nil, err
	}
	if err := record.MarkSentToAdmin(); err != nil {
		return nil, models.NewValidationError("status", err.Error())
	}
	if err := s.feedbackRepo.Update(record); err != nil {
		return nil, models.NewDependencyError("feedback update", err)
	}
	return record, nil
}

func (s *FeedbackService) find(feedbackID string) (*models.Feedback, error) {
	record, err := s.feedbackRepo.FindByID(feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("feedback", feedbackID)
		}
		return nil, models.NewDependencyError("feedback read", err)
	}
	return record, nil
}
