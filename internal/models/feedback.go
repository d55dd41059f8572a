package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback sentiment values
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Feedback lifecycle: pending -> processed -> sent_to_admin. Transitions
// are one-directional. Only voice feedback has the processed hop (AI
// transcription/sentiment attachment); text and rating feedback is
// analyzable as submitted.
const (
	FeedbackStatusPending     = "pending"
	FeedbackStatusProcessed   = "processed"
	FeedbackStatusSentToAdmin = "sent_to_admin"
)

const (
	FeedbackTypeText   = "text"
	FeedbackTypeVoice  = "voice"
	FeedbackTypeRating = "rating"
)

var ErrInvalidFeedbackTransition = errors.New("invalid feedback status transition")

// Feedback is a client's or trainer's submitted feedback record.
type Feedback struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ClientID  string    `gorm:"index;size:36" json:"client_id,omitempty"`
	TrainerID string    `gorm:"index;size:36" json:"trainer_id,omitempty"`
	ClassID   string    `gorm:"index;size:36" json:"class_id,omitempty"`
	Type      string    `gorm:"size:20;default:text" json:"type"`
	Rating    *int      `json:"rating,omitempty"`
	Text      string    `gorm:"size:2000" json:"text,omitempty"`
	Sentiment string    `gorm:"size:20" json:"sentiment,omitempty"`
	Status    string    `gorm:"size:20;default:pending" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Feedback) TableName() string { return "feedback_records" }

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// MarkProcessed moves pending voice feedback to processed, attaching the
// derived sentiment. No rollback path exists.
func (f *Feedback) MarkProcessed(sentiment Sentiment) error {
	if f.Type != FeedbackTypeVoice {
		return ErrInvalidFeedbackTransition
	}
	if f.Status != FeedbackStatusPending {
		return ErrInvalidFeedbackTransition
	}
	f.Status = FeedbackStatusProcessed
	f.Sentiment = string(sentiment)
	return nil
}

// MarkSentToAdmin moves feedback to its terminal state. Voice feedback must
// be processed first; other types go straight from pending.
func (f *Feedback) MarkSentToAdmin() error {
	switch f.Status {
	case FeedbackStatusProcessed:
	case FeedbackStatusPending:
		if f.Type == FeedbackTypeVoice {
			return ErrInvalidFeedbackTransition
		}
	default:
		return ErrInvalidFeedbackTransition
	}
	f.Status = FeedbackStatusSentToAdmin
	return nil
}

// DerivedSentiment returns the stored sentiment when present, otherwise a
// sentiment derived from the rating. Records with neither yield neutral.
func (f *Feedback) DerivedSentiment() Sentiment {
	if f.Sentiment != "" {
		return Sentiment(f.Sentiment)
	}
	if f.Rating == nil {
		return SentimentNeutral
	}
	switch {
	case *f.Rating >= 4:
		return SentimentPositive
	case *f.Rating <= 2:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
