package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/insights/internal/models"
)

func (e *testEnv) seedFeedback(t *testing.T, feedback *models.Feedback) *models.Feedback {
	t.Helper()
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().AddDate(0, 0, -1)
	}
	require.NoError(t, e.db.Create(feedback).Error)
	return feedback
}

func intPtr(v int) *int { return &v }

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)

	env.seedFeedback(t, &models.Feedback{Type: models.FeedbackTypeRating, Rating: intPtr(5)})
	env.seedFeedback(t, &models.Feedback{Type: models.FeedbackTypeRating, Rating: intPtr(4)})
	env.seedFeedback(t, &models.Feedback{Type: models.FeedbackTypeRating, Rating: intPtr(2)})
	env.seedFeedback(t, &models.Feedback{Type: models.FeedbackTypeText, Text: "loved the pace"})
	env.seedFeedback(t, &models.Feedback{
		Type:      models.FeedbackTypeVoice,
		Sentiment: string(models.SentimentNegative),
	})

	analysis, err := env.feedback.Analyze(30)
	require.NoError(t, err)

	assert.Equal(t, 5, analysis.TotalFeedback)
	assert.Equal(t, 2, analysis.BySentiment[string(models.SentimentPositive)])
	assert.Equal(t, 1, analysis.BySentiment[string(models.SentimentNeutral)])
	assert.Equal(t, 2, analysis.BySentiment[string(models.SentimentNegative)])
	// Average covers only rated records.
	assert.InDelta(t, 11.0/3.0, analysis.AverageRating, 0.001)
	// The voice record has neither text nor rating, so it stays off the recent list.
	assert.Len(t, analysis.RecentFeedback, 4)
}

func TestAnalyzeEmptyPeriod(t *testing.T) {
	env := newTestEnv(t)

	analysis, err := env.feedback.Analyze(30)
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalFeedback)
	assert.Zero(t, analysis.AverageRating)
	assert.Empty(t, analysis.RecentFeedback)
	// Every sentiment key is present even when empty.
	assert.Len(t, analysis.BySentiment, 3)

	_, err = env.feedback.Analyze(0)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestAnalyzeRecentListCap(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 15; i++ {
		env.seedFeedback(t, &models.Feedback{Type: models.FeedbackTypeText, Text: "some feedback"})
	}

	analysis, err := env.feedback.Analyze(30)
	require.NoError(t, err)
	assert.Equal(t, 15, analysis.TotalFeedback)
	assert.Len(t, analysis.RecentFeedback, 10)
}

func TestAnalyzeExcludesOlderRecords(t *testing.T) {
	env := newTestEnv(t)

	env.seedFeedback(t, &models.Feedback{Type: models.FeedbackTypeRating, Rating: intPtr(5)})
	env.seedFeedback(t, &models.Feedback{
		Type:      models.FeedbackTypeRating,
		Rating:    intPtr(1),
		CreatedAt: time.Now().AddDate(0, 0, -45),
	})

	analysis, err := env.feedback.Analyze(30)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.TotalFeedback)
	assert.InDelta(t, 5.0, analysis.AverageRating, 0.001)
}

func TestMarkProcessed(t *testing.T) {
	env := newTestEnv(t)
	voice := env.seedFeedback(t, &models.Feedback{
		Type:   models.FeedbackTypeVoice,
		Status: models.FeedbackStatusPending,
	})

	processed, err := env.feedback.MarkProcessed(voice.ID, models.SentimentPositive)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusProcessed, processed.Status)
	assert.Equal(t, string(models.SentimentPositive), processed.Sentiment)

	// Already processed, the transition cannot repeat.
	_, err = env.feedback.MarkProcessed(voice.ID, models.SentimentNegative)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = env.feedback.MarkProcessed("no-such-id", models.SentimentPositive)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMarkSentToAdmin(t *testing.T) {
	env := newTestEnv(t)
	text := env.seedFeedback(t, &models.Feedback{
		Type:   models.FeedbackTypeText,
		Text:   "too crowded",
		Status: models.FeedbackStatusPending,
	})
	voice := env.seedFeedback(t, &models.Feedback{
		Type:   models.FeedbackTypeVoice,
		Status: models.FeedbackStatusPending,
	})

	sent, err := env.feedback.MarkSentToAdmin(text.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusSentToAdmin, sent.Status)

	// Voice feedback must be processed first.
	_, err = env.feedback.MarkSentToAdmin(voice.ID)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = env.feedback.MarkProcessed(voice.ID, models.SentimentNeutral)
	require.NoError(t, err)
	_, err = env.feedback.MarkSentToAdmin(voice.ID)
	require.NoError(t, err)
}
