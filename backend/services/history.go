package services

import (
	"fmt"

	"country-color-map/backend/models"
	"country-color-map/backend/system"

	"gorm.io/gorm"
)

// HistoryService keeps an audit trail of color changes in SQLite
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) (*HistoryService, error) {
	if err := db.AutoMigrate(&models.ColorChange{}); err != nil {
		return nil, fmt.Errorf("history migration failed: %w", err)
	}
	return &HistoryService{db: db}, nil
}

// ColorChanged implements ChangeObserver. Failures are logged only; the audit
// trail never blocks a change.
func (h *HistoryService) ColorChanged(change models.ColorChange) {
	change.ID = 0
	if err := h.db.Create(&change).Error; err != nil {
		system.Warn("Failed to record color change: %v", err)
	}
}

// Recent returns the newest changes first, optionally for one country
func (h *HistoryService) Recent(limit int, country string) ([]models.ColorChange, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := h.db.Order("id DESC").Limit(limit)
	if country != "" {
		query = query.Where("country = ?", country)
	}

	var changes []models.ColorChange
	if err := query.Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
