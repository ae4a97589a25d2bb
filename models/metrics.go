package models

import "time"

// Metrics rows are pure derived state owned by the metrics service. They
// are upserted wholesale on every recompute and may be dropped and rebuilt
// at any time; the raw event/budget/expense rows stay authoritative.

// DashboardMetrics caches organization-level aggregates, one row per org.
type DashboardMetrics struct {
	DashboardMetricsID uint      `gorm:"primaryKey;column:dashboard_metrics_id" json:"dashboard_metrics_id"`
	OrganizationID     uint      `gorm:"column:organization_id;uniqueIndex" json:"organization_id"`
	TotalBudget        float64   `gorm:"column:total_budget" json:"total_budget"`
	TotalExpenses      float64   `gorm:"column:total_expenses" json:"total_expenses"`
	PendingApprovals   int64     `gorm:"column:pending_approvals" json:"pending_approvals"`
	OverBudgetEvents   int64     `gorm:"column:over_budget_events" json:"over_budget_events"`
	UpcomingEvents     int64     `gorm:"column:upcoming_events" json:"upcoming_events"`
	RecentEvents       string    `gorm:"column:recent_events;type:text" json:"recent_events"` // JSON array
	Charts             string    `gorm:"column:charts;type:text" json:"charts"`               // JSON object
	Stats              string    `gorm:"column:stats;type:text" json:"stats"`                 // JSON object
	LastComputedAt     time.Time `gorm:"column:last_computed_at" json:"last_computed_at"`
}

func (DashboardMetrics) TableName() string { return "dashboard_metrics" }

// EventMetrics caches per-event budget aggregates, one row per event.
type EventMetrics struct {
	EventMetricsID        uint      `gorm:"primaryKey;column:event_metrics_id" json:"event_metrics_id"`
	EventID               uint      `gorm:"column:event_id;uniqueIndex" json:"event_id"`
	TotalBudget           float64   `gorm:"column:total_budget" json:"total_budget"`
	TotalSpent            float64   `gorm:"column:total_spent" json:"total_spent"`
	TotalEstimated        float64   `gorm:"column:total_estimated" json:"total_estimated"`
	TotalActual           float64   `gorm:"column:total_actual" json:"total_actual"`
	Variance              float64   `gorm:"column:variance" json:"variance"`
	VariancePercentage    float64   `gorm:"column:variance_percentage" json:"variance_percentage"`
	IsOverBudget          bool      `gorm:"column:is_over_budget" json:"is_over_budget"`
	TotalsByCategory      string    `gorm:"column:totals_by_category;type:text" json:"totals_by_category"` // JSON map
	PendingExpensesCount  int64     `gorm:"column:pending_expenses_count" json:"pending_expenses_count"`
	ApprovedExpensesCount int64     `gorm:"column:approved_expenses_count" json:"approved_expenses_count"`
	RejectedExpensesCount int64     `gorm:"column:rejected_expenses_count" json:"rejected_expenses_count"`
	BudgetItemsCount      int64     `gorm:"column:budget_items_count" json:"budget_items_count"`
	LastComputedAt        time.Time `gorm:"column:last_computed_at" json:"last_computed_at"`
}

func (EventMetrics) TableName() string { return "event_metrics" }

// VendorMetrics caches per-vendor contract aggregates, one row per vendor.
type VendorMetrics struct {
	VendorMetricsID  uint       `gorm:"primaryKey;column:vendor_metrics_id" json:"vendor_metrics_id"`
	VendorID         uint       `gorm:"column:vendor_id;uniqueIndex" json:"vendor_id"`
	TotalContracts   int64      `gorm:"column:total_contracts" json:"total_contracts"`
	TotalSpent       float64    `gorm:"column:total_spent" json:"total_spent"`
	EventsCount      int64      `gorm:"column:events_count" json:"events_count"`
	LastContractDate *time.Time `gorm:"column:last_contract_date" json:"last_contract_date,omitempty"`
	LastComputedAt   time.Time  `gorm:"column:last_computed_at" json:"last_computed_at"`
}

func (VendorMetrics) TableName() string { return "vendor_metrics" }
