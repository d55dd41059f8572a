package repository

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"gorm.io/gorm"
)

// StudioRepository is the read-only gateway to the studio's transactional
// tables: clients, trainers, classes, enrollments, attendance.
type StudioRepository struct {
	db *gorm.DB
}

func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

func (r *StudioRepository) FindClientByID(id string) (*models.Client, error) {
	var client models.Client
	err := r.db.Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *StudioRepository) FindActiveClients() ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Where("is_active").Find(&clients).Error
	return clients, err
}

func (r *StudioRepository) FindTrainerByID(id string) (*models.Trainer, error) {
	var trainer models.Trainer
	err := r.db.Where("id = ?", id).First(&trainer).Error
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}

// TrainerIDsWithClasses returns the distinct trainers that ran classes
// scheduled within [start, end].
func (r *StudioRepository) TrainerIDsWithClasses(start, end time.Time) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Class{}).
		Where("scheduled_at >= ? AND scheduled_at <= ? AND trainer_id <> ''", start, end).
		Distinct().
		Pluck("trainer_id", &ids).Error
	return ids, err
}

// ClassesByTrainerInPeriod returns a trainer's classes scheduled within
// [start, end].
func (r *StudioRepository) ClassesByTrainerInPeriod(trainerID string, start, end time.Time) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.
		Where("trainer_id = ? AND scheduled_at >= ? AND scheduled_at <= ?", trainerID, start, end).
		Find(&classes).Error
	return classes, err
}

// CancelledClassesSince returns classes cancelled with a scheduled date on
// or after the cutoff.
func (r *StudioRepository) CancelledClassesSince(since time.Time) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.
		Where("status = ? AND scheduled_at >= ?", models.ClassStatusCancelled, since).
		Find(&classes).Error
	return classes, err
}

func (r *StudioRepository) EnrollmentsByClass(classID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.Where("class_id = ?", classID).Find(&enrollments).Error
	return enrollments, err
}

// AttendanceByClasses returns all attendance records for the given classes.
func (r *StudioRepository) AttendanceByClasses(classIDs []string) ([]models.AttendanceRecord, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	var records []models.AttendanceRecord
	err := r.db.Where("class_id IN ?", classIDs).Find(&records).Error
	return records, err
}

// LastPresence returns the client's most recent present attendance record,
// or nil if they never attended.
func (r *StudioRepository) LastPresence(clientID string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.
		Where("client_id = ? AND present", clientID).
		Order("recorded_at DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ClientRevenueSince sums the price of completed classes the client was
// enrolled in, scheduled on or after the cutoff. Used for the revenue-at-risk
// estimate.
func (r *StudioRepository) ClientRevenueSince(clientID string, since time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.Enrollment{}).
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("enrollments.client_id = ?", clientID).
		Where("classes.status = ? AND classes.scheduled_at >= ?", models.ClassStatusCompleted, since).
		Select("COALESCE(SUM(classes.price), 0)").
		Scan(&total).Error
	return total, err
}
