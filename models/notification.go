package models

import "time"

type Notification struct {
	NotificationID uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID         uint       `gorm:"column:user_id;index" json:"user_id"`
	OrganizationID *uint      `gorm:"column:organization_id" json:"organization_id,omitempty"`
	Type           string     `gorm:"column:type" json:"type"` // info|success|warning|error
	Title          string     `gorm:"column:title" json:"title"`
	Message        string     `gorm:"column:message" json:"message"`
	Metadata       string     `gorm:"column:metadata;type:text" json:"metadata,omitempty"` // JSON blob
	IsRead         bool       `gorm:"column:is_read" json:"is_read"`
	ReadAt         *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// ActivityLog is an append-only audit trail of entity mutations.
type ActivityLog struct {
	LogID          uint      `gorm:"primaryKey;column:log_id" json:"log_id"`
	OrganizationID uint      `gorm:"column:organization_id;index" json:"organization_id"`
	UserID         uint      `gorm:"column:user_id" json:"user_id"`
	Action         string    `gorm:"column:action" json:"action"` // created|updated|deleted|approved|rejected
	EntityType     string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID       uint      `gorm:"column:entity_id" json:"entity_id"`
	Detail         string    `gorm:"column:detail" json:"detail"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
