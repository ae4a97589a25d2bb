package services

import (
	"log"
	"time"

	"event-finance-api/models"

	"gorm.io/gorm"
)

// ActivityService appends audit rows for entity mutations. Recording is
// best-effort: a failed insert is logged and never surfaced to the caller.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

func (s *ActivityService) Record(orgID, userID uint, action, entityType string, entityID uint, detail string) {
	row := models.ActivityLog{
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Detail:         detail,
		CreateAt:       time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("activity log write failed (%s %s %d): %v", action, entityType, entityID, err)
	}
}

// List returns the organization's newest activity rows, paginated.
func (s *ActivityService) List(orgID uint, page, pageSize int) ([]models.ActivityLog, int64, error) {
	var total int64
	if err := s.db.Model(&models.ActivityLog{}).
		Where("organization_id = ?", orgID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ActivityLog
	err := s.db.Where("organization_id = ?", orgID).
		Order("create_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}
