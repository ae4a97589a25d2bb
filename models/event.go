package models

import "time"

// Event status values
const (
	EventStatusPlanning  = "Planning"
	EventStatusActive    = "Active"
	EventStatusCompleted = "Completed"
	EventStatusCancelled = "Cancelled"
)

// ValidEventStatus reports whether s is a known event status.
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusPlanning, EventStatusActive, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

type Event struct {
	EventID        uint       `gorm:"primaryKey;column:event_id" json:"event_id"`
	OrganizationID uint       `gorm:"column:organization_id;index" json:"organization_id"`
	Name           string     `gorm:"column:name" json:"name"`
	Description    string     `gorm:"column:description" json:"description"`
	Location       string     `gorm:"column:location" json:"location"`
	Status         string     `gorm:"column:status" json:"status"` // Planning|Active|Completed|Cancelled
	StartDate      time.Time  `gorm:"column:start_date" json:"start_date"`
	EndDate        *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	CreatedBy      uint       `gorm:"column:created_by" json:"created_by"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Creator     *User        `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	BudgetItems []BudgetItem `gorm:"foreignKey:EventID" json:"budget_items,omitempty"`
}

func (Event) TableName() string { return "events" }
