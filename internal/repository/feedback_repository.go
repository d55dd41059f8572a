package repository

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"gorm.io/gorm"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(feedback *models.Feedback) error {
	return r.db.Create(feedback).Error
}

func (r *FeedbackRepository) Update(feedback *models.Feedback) error {
	return r.db.Save(feedback).Error
}

func (r *FeedbackRepository) FindByID(id string) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.Where("id = ?", id).First(&feedback).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

// FindSince lists feedback created on or after the cutoff.
func (r *FeedbackRepository) FindSince(since time.Time) ([]models.Feedback, error) {
	var records []models.Feedback
	err := r.db.Where("created_at >= ?", since).Find(&records).Error
	return records, err
}

// FindByTrainerInPeriod lists a trainer's feedback within [start, end].
func (r *FeedbackRepository) FindByTrainerInPeriod(trainerID string, start, end time.Time) ([]models.Feedback, error) {
	var records []models.Feedback
	err := r.db.
		Where("trainer_id = ? AND created_at >= ? AND created_at <= ?", trainerID, start, end).
		Find(&records).Error
	return records, err
}

// RecentWithContent returns the newest records carrying either text or a
// rating, up to limit.
func (r *FeedbackRepository) RecentWithContent(since time.Time, limit int) ([]models.Feedback, error) {
	var records []models.Feedback
	err := r.db.
		Where("created_at >= ?", since).
		Where("text <> '' OR rating IS NOT NULL").
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
