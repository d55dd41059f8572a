package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFeedbackVoiceLifecycle(t *testing.T) {
	f := &Feedback{Type: FeedbackTypeVoice, Status: FeedbackStatusPending}

	// Voice feedback cannot skip processing.
	assert.ErrorIs(t, f.MarkSentToAdmin(), ErrInvalidFeedbackTransition)
	assert.Equal(t, FeedbackStatusPending, f.Status)

	require.NoError(t, f.MarkProcessed(SentimentNegative))
	assert.Equal(t, FeedbackStatusProcessed, f.Status)
	assert.Equal(t, string(SentimentNegative), f.Sentiment)

	// No rollback path.
	assert.ErrorIs(t, f.MarkProcessed(SentimentPositive), ErrInvalidFeedbackTransition)

	require.NoError(t, f.MarkSentToAdmin())
	assert.Equal(t, FeedbackStatusSentToAdmin, f.Status)

	// Terminal state.
	assert.ErrorIs(t, f.MarkSentToAdmin(), ErrInvalidFeedbackTransition)
}

func TestFeedbackTextSkipsProcessing(t *testing.T) {
	f := &Feedback{Type: FeedbackTypeText, Status: FeedbackStatusPending}

	assert.ErrorIs(t, f.MarkProcessed(SentimentNeutral), ErrInvalidFeedbackTransition)

	require.NoError(t, f.MarkSentToAdmin())
	assert.Equal(t, FeedbackStatusSentToAdmin, f.Status)
}

func TestDerivedSentiment(t *testing.T) {
	tests := []struct {
		name     string
		feedback Feedback
		want     Sentiment
	}{
		{"stored sentiment wins", Feedback{Sentiment: string(SentimentNegative), Rating: intPtr(5)}, SentimentNegative},
		{"high rating", Feedback{Rating: intPtr(4)}, SentimentPositive},
		{"top rating", Feedback{Rating: intPtr(5)}, SentimentPositive},
		{"low rating", Feedback{Rating: intPtr(2)}, SentimentNegative},
		{"middle rating", Feedback{Rating: intPtr(3)}, SentimentNeutral},
		{"no signal", Feedback{}, SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.feedback.DerivedSentiment())
		})
	}
}
