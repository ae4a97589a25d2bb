package models

import "time"

// Budget categories shared by budget items and expenses.
const (
	CategoryVenue         = "Venue"
	CategoryCatering      = "Catering"
	CategoryMarketing     = "Marketing"
	CategoryEquipment     = "Equipment"
	CategoryStaffing      = "Staffing"
	CategoryTravel        = "Travel"
	CategoryMiscellaneous = "Miscellaneous"
)

// ValidCategory reports whether c is a known budget category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryVenue, CategoryCatering, CategoryMarketing, CategoryEquipment,
		CategoryStaffing, CategoryTravel, CategoryMiscellaneous:
		return true
	}
	return false
}

type BudgetItem struct {
	BudgetItemID  uint       `gorm:"primaryKey;column:budget_item_id" json:"budget_item_id"`
	EventID       uint       `gorm:"column:event_id;index" json:"event_id"`
	Category      string     `gorm:"column:category" json:"category"`
	Name          string     `gorm:"column:name" json:"name"`
	EstimatedCost float64    `gorm:"column:estimated_cost" json:"estimated_cost"`
	// ActualCost is maintained by the approval workflow: the sum of all
	// Approved expense amounts linked to this item. Clients cannot set it.
	ActualCost *float64   `gorm:"column:actual_cost" json:"actual_cost,omitempty"`
	CreateAt   time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt   time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (BudgetItem) TableName() string { return "budget_items" }
