package repository

import (
	"time"

	"github.com/fitpulse/insights/internal/models"
	"gorm.io/gorm"
)

type AtRiskRepository struct {
	db *gorm.DB
}

func NewAtRiskRepository(db *gorm.DB) *AtRiskRepository {
	return &AtRiskRepository{db: db}
}

func (r *AtRiskRepository) Create(record *models.AtRiskClient) error {
	return r.db.Create(record).Error
}

func (r *AtRiskRepository) Update(record *models.AtRiskClient) error {
	return r.db.Save(record).Error
}

// FindActiveByClient returns the client's active at-risk record, or nil.
func (r *AtRiskRepository) FindActiveByClient(clientID string) (*models.AtRiskClient, error) {
	var record models.AtRiskClient
	err := r.db.Where("client_id = ? AND is_active", clientID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindActive lists active records, optionally restricted to one risk level.
func (r *AtRiskRepository) FindActive(riskLevel string) ([]models.AtRiskClient, error) {
	query := r.db.Where("is_active")
	if riskLevel != "" {
		query = query.Where("risk_level = ?", riskLevel)
	}

	var records []models.AtRiskClient
	err := query.Order("days_inactive DESC").Find(&records).Error
	return records, err
}

// Deactivate closes the active record for a client when they re-engage.
// Returns the number of rows affected.
func (r *AtRiskRepository) Deactivate(clientID string) (int64, error) {
	result := r.db.Model(&models.AtRiskClient{}).
		Where("client_id = ? AND is_active", clientID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// CountActiveByLevel returns active record counts keyed by risk level.
func (r *AtRiskRepository) CountActiveByLevel() (map[string]int64, error) {
	type row struct {
		RiskLevel string
		Count     int64
	}
	var rows []row
	err := r.db.Model(&models.AtRiskClient{}).
		Select("risk_level, count(*) as count").
		Where("is_active").
		Group("risk_level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.RiskLevel] = r.Count
	}
	return counts, nil
}
