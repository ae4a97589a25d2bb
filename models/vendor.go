package models

import "time"

type Vendor struct {
	VendorID        uint       `gorm:"primaryKey;column:vendor_id" json:"vendor_id"`
	OrganizationID  uint       `gorm:"column:organization_id;index" json:"organization_id"`
	Name            string     `gorm:"column:name" json:"name"`
	ContactEmail    string     `gorm:"column:contact_email" json:"contact_email"`
	ServiceCategory string     `gorm:"column:service_category" json:"service_category"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt        *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Vendor) TableName() string { return "vendors" }

// EventVendor links a vendor to an event with the agreed contract amount.
type EventVendor struct {
	EventVendorID  uint      `gorm:"primaryKey;column:event_vendor_id" json:"event_vendor_id"`
	EventID        uint      `gorm:"column:event_id;index" json:"event_id"`
	VendorID       uint      `gorm:"column:vendor_id;index" json:"vendor_id"`
	ContractAmount float64   `gorm:"column:contract_amount" json:"contract_amount"`
	AssignedAt     time.Time `gorm:"column:assigned_at" json:"assigned_at"`

	Event  *Event  `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Vendor *Vendor `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

func (EventVendor) TableName() string { return "event_vendors" }
