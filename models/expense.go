package models

import "time"

// Expense status values. Pending is the only state that accepts edits or
// approval actions; Approved and Rejected are terminal.
const (
	ExpenseStatusPending  = "Pending"
	ExpenseStatusApproved = "Approved"
	ExpenseStatusRejected = "Rejected"
)

type Expense struct {
	ExpenseID      uint       `gorm:"primaryKey;column:expense_id" json:"expense_id"`
	EventID        uint       `gorm:"column:event_id;index" json:"event_id"`
	OrganizationID uint       `gorm:"column:organization_id;index" json:"organization_id"`
	BudgetItemID   *uint      `gorm:"column:budget_item_id" json:"budget_item_id,omitempty"`
	VendorID       *uint      `gorm:"column:vendor_id" json:"vendor_id,omitempty"`
	Category       string     `gorm:"column:category" json:"category"`
	Description    string     `gorm:"column:description" json:"description"`
	Amount         float64    `gorm:"column:amount" json:"amount"`
	Status         string     `gorm:"column:status" json:"status"` // Pending|Approved|Rejected
	CreatedBy      uint       `gorm:"column:created_by" json:"created_by"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time  `gorm:"column:update_at" json:"update_at"`

	Event      *Event      `gorm:"foreignKey:EventID" json:"event,omitempty"`
	BudgetItem *BudgetItem `gorm:"foreignKey:BudgetItemID" json:"budget_item,omitempty"`
	Vendor     *Vendor     `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Creator    *User       `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Expense) TableName() string { return "expenses" }

// Approval actions recorded in the append-only approval log. A manager-tier
// "approved" record leaves the expense Pending; the admin-tier record is
// what moves the status to Approved.
const (
	ApprovalActionApproved = "approved"
	ApprovalActionRejected = "rejected"
)

type ApprovalRecord struct {
	ApprovalID   uint      `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	ExpenseID    uint      `gorm:"column:expense_id;index" json:"expense_id"`
	ApproverID   uint      `gorm:"column:approver_id" json:"approver_id"`
	ApproverRole string    `gorm:"column:approver_role" json:"approver_role"` // admin|event_manager
	Action       string    `gorm:"column:action" json:"action"`               // approved|rejected
	Comments     string    `gorm:"column:comments" json:"comments"`
	ActionAt     time.Time `gorm:"column:action_at" json:"action_at"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

func (ApprovalRecord) TableName() string { return "approval_records" }
