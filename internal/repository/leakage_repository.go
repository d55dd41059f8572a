package repository

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"gorm.io/gorm"
)

type LeakageRepository struct {
	db *gorm.DB
}

func NewLeakageRepository(db *gorm.DB) *LeakageRepository {
	return &LeakageRepository{db: db}
}

func (r *LeakageRepository) Create(record *models.RevenueLeakageRecord) error {
	return r.db.Create(record).Error
}

func (r *LeakageRepository) Update(record *models.RevenueLeakageRecord) error {
	return r.db.Save(record).Error
}

func (r *LeakageRepository) FindByID(id string) (*models.RevenueLeakageRecord, error) {
	var record models.RevenueLeakageRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// HasUnresolved reports whether an unresolved record already exists for the
// (class, enrollment) pair.
func (r *LeakageRepository) HasUnresolved(classID, enrollmentID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RevenueLeakageRecord{}).
		Where("class_id = ? AND enrollment_id = ? AND NOT recovered", classID, enrollmentID).
		Count(&count).Error
	return count > 0, err
}

// FindSince lists records detected on or after the cutoff, newest first.
// Recovered records are excluded unless includeRecovered is set.
func (r *LeakageRepository) FindSince(since time.Time, includeRecovered bool) ([]models.RevenueLeakageRecord, error) {
	query := r.db.Where("detected_at >= ?", since)
	if !includeRecovered {
		query = query.Where("NOT recovered")
	}

	var records []models.RevenueLeakageRecord
	err := query.Order("detected_at DESC").Find(&records).Error
	return records, err
}

// UnrecoveredTotal sums amount_lost over all unresolved records.
func (r *LeakageRepository) UnrecoveredTotal() (float64, error) {
	var total float64
	err := r.db.Model(&models.RevenueLeakageRecord{}).
		Where("NOT recovered").
		Select("COALESCE(SUM(amount_lost), 0)").
		Scan(&total).Error
	return total, err
}
