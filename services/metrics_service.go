package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"event-finance-api/models"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrVendorNotFound = errors.New("vendor not found")
)

// MetricsService owns the cached aggregate rows (dashboard_metrics,
// event_metrics, vendor_metrics). Each recompute reads the raw rows,
// aggregates in memory, and finishes with a single upsert, so a failure
// before the write leaves the previous cached row untouched. There is no
// locking around the read-aggregate-upsert sequence; concurrent recomputes
// are last-writer-wins and self-heal on the next recompute.
type MetricsService struct {
	db *gorm.DB
}

func NewMetricsService(db *gorm.DB) *MetricsService {
	return &MetricsService{db: db}
}

type recentEvent struct {
	EventID   uint      `json:"event_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type monthlyPoint struct {
	Month  string  `json:"month"`
	Budget float64 `json:"budget"`
	Spent  float64 `json:"spent"`
}

type categorySlice struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type dashboardCharts struct {
	MonthlySeries     []monthlyPoint  `json:"monthly_series"`
	ExpenseCategories []categorySlice `json:"expense_categories"`
}

type dashboardStats struct {
	TotalEvents     int64 `json:"total_events"`
	PlanningEvents  int64 `json:"planning_events"`
	ActiveEvents    int64 `json:"active_events"`
	CompletedEvents int64 `json:"completed_events"`
	CancelledEvents int64 `json:"cancelled_events"`
}

// RecomputeDashboardMetrics rebuilds the single organization-level cache
// row from raw events, budget items, and expenses. It is the top of the
// recompute cascade and never triggers further recomputes.
func (s *MetricsService) RecomputeDashboardMetrics(orgID uint) error {
	now := time.Now()

	var events []models.Event
	if err := s.db.Where("organization_id = ? AND delete_at IS NULL", orgID).
		Find(&events).Error; err != nil {
		return fmt.Errorf("load events for organization %d: %w", orgID, err)
	}

	var items []models.BudgetItem
	if err := s.db.Table("budget_items").
		Select("budget_items.*").
		Joins("JOIN events ON events.event_id = budget_items.event_id").
		Where("events.organization_id = ? AND events.delete_at IS NULL AND budget_items.delete_at IS NULL", orgID).
		Scan(&items).Error; err != nil {
		return fmt.Errorf("load budget items for organization %d: %w", orgID, err)
	}

	var expenses []models.Expense
	if err := s.db.Where("organization_id = ?", orgID).Find(&expenses).Error; err != nil {
		return fmt.Errorf("load expenses for organization %d: %w", orgID, err)
	}

	var totalBudget float64
	for _, item := range items {
		totalBudget += item.EstimatedCost
	}

	// Total across ALL statuses: pending and rejected amounts count too.
	// Event-level total_spent is approved-only; the dashboard number is the
	// gross requested figure.
	var totalExpenses float64
	var pendingApprovals int64
	for _, exp := range expenses {
		totalExpenses += exp.Amount
		if exp.Status == models.ExpenseStatusPending {
			pendingApprovals++
		}
	}

	var overBudgetEvents int64
	if err := s.db.Table("event_metrics").
		Joins("JOIN events ON events.event_id = event_metrics.event_id").
		Where("events.organization_id = ? AND events.delete_at IS NULL AND event_metrics.is_over_budget = ?", orgID, true).
		Count(&overBudgetEvents).Error; err != nil {
		return fmt.Errorf("count over-budget events for organization %d: %w", orgID, err)
	}

	var upcomingEvents int64
	stats := dashboardStats{TotalEvents: int64(len(events))}
	for _, ev := range events {
		if ev.StartDate.After(now) {
			upcomingEvents++
		}
		switch ev.Status {
		case models.EventStatusPlanning:
			stats.PlanningEvents++
		case models.EventStatusActive:
			stats.ActiveEvents++
		case models.EventStatusCompleted:
			stats.CompletedEvents++
		case models.EventStatusCancelled:
			stats.CancelledEvents++
		}
	}

	recent := make([]models.Event, len(events))
	copy(recent, events)
	sort.Slice(recent, func(i, j int) bool { return recent[i].CreateAt.After(recent[j].CreateAt) })
	if len(recent) > 5 {
		recent = recent[:5]
	}
	recentOut := make([]recentEvent, 0, len(recent))
	for _, ev := range recent {
		recentOut = append(recentOut, recentEvent{
			EventID:   ev.EventID,
			Name:      ev.Name,
			Status:    ev.Status,
			CreatedAt: ev.CreateAt,
		})
	}

	charts := dashboardCharts{
		MonthlySeries:     buildMonthlySeries(now, items, expenses),
		ExpenseCategories: buildExpenseCategorySlices(totalExpenses),
	}

	recentJSON, err := json.Marshal(recentOut)
	if err != nil {
		return fmt.Errorf("marshal recent events: %w", err)
	}
	chartsJSON, err := json.Marshal(charts)
	if err != nil {
		return fmt.Errorf("marshal charts: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	row := models.DashboardMetrics{
		OrganizationID:   orgID,
		TotalBudget:      totalBudget,
		TotalExpenses:    totalExpenses,
		PendingApprovals: pendingApprovals,
		OverBudgetEvents: overBudgetEvents,
		UpcomingEvents:   upcomingEvents,
		RecentEvents:     string(recentJSON),
		Charts:           string(chartsJSON),
		Stats:            string(statsJSON),
		LastComputedAt:   now,
	}

	var existing models.DashboardMetrics
	err = s.db.Where("organization_id = ?", orgID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("create dashboard metrics for organization %d: %w", orgID, err)
		}
	case err != nil:
		return fmt.Errorf("load dashboard metrics for organization %d: %w", orgID, err)
	default:
		row.DashboardMetricsID = existing.DashboardMetricsID
		if err := s.db.Save(&row).Error; err != nil {
			return fmt.Errorf("update dashboard metrics for organization %d: %w", orgID, err)
		}
	}

	return nil
}

// buildMonthlySeries buckets budget-item and expense amounts into the
// trailing six calendar months, keyed by month name only. Rows are matched
// on the month name regardless of year, so a row created in the same month
// of a previous year lands in the current bucket.
func buildMonthlySeries(now time.Time, items []models.BudgetItem, expenses []models.Expense) []monthlyPoint {
	series := make([]monthlyPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		series = append(series, monthlyPoint{Month: now.AddDate(0, -i, 0).Month().String()})
	}

	index := make(map[string]int, len(series))
	for i, p := range series {
		index[p.Month] = i
	}

	for _, item := range items {
		if i, ok := index[item.CreateAt.Month().String()]; ok {
			series[i].Budget += item.EstimatedCost
		}
	}
	for _, exp := range expenses {
		if i, ok := index[exp.CreateAt.Month().String()]; ok {
			series[i].Spent += exp.Amount
		}
	}

	return series
}

// buildExpenseCategorySlices returns the expense-category breakdown for the
// dashboard pie chart. Everything is reported under "Miscellaneous".
// TODO: break this down by the expense's stored category.
func buildExpenseCategorySlices(totalExpenses float64) []categorySlice {
	if totalExpenses <= 0 {
		return []categorySlice{}
	}
	return []categorySlice{{
		Category:   models.CategoryMiscellaneous,
		Amount:     totalExpenses,
		Percentage: 100,
	}}
}

type categoryTotals struct {
	Estimated float64 `json:"estimated"`
	Actual    float64 `json:"actual"`
}

// RecomputeEventMetrics rebuilds the per-event cache row and then cascades
// into a dashboard recompute for the owning organization. A single expense
// approval therefore triggers a full-organization rescan; writes are rare
// relative to reads, so that cost is accepted.
func (s *MetricsService) RecomputeEventMetrics(eventID uint) error {
	var event models.Event
	if err := s.db.Where("event_id = ? AND delete_at IS NULL", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("load event %d: %w", eventID, err)
	}

	var items []models.BudgetItem
	if err := s.db.Where("event_id = ? AND delete_at IS NULL", eventID).Find(&items).Error; err != nil {
		return fmt.Errorf("load budget items for event %d: %w", eventID, err)
	}

	var expenses []models.Expense
	if err := s.db.Where("event_id = ?", eventID).Find(&expenses).Error; err != nil {
		return fmt.Errorf("load expenses for event %d: %w", eventID, err)
	}

	byCategory := make(map[string]*categoryTotals)
	var totalEstimated, totalActual float64
	for _, item := range items {
		ct := byCategory[item.Category]
		if ct == nil {
			ct = &categoryTotals{}
			byCategory[item.Category] = ct
		}
		ct.Estimated += item.EstimatedCost
		totalEstimated += item.EstimatedCost
		if item.ActualCost != nil {
			ct.Actual += *item.ActualCost
			totalActual += *item.ActualCost
		}
	}

	variance := totalActual - totalEstimated
	variancePct := 0.0
	if totalEstimated != 0 {
		variancePct = variance / totalEstimated * 100
	}

	// Approved-only here, unlike the dashboard's all-status total.
	var totalSpent float64
	var pending, approved, rejected int64
	for _, exp := range expenses {
		switch exp.Status {
		case models.ExpenseStatusPending:
			pending++
		case models.ExpenseStatusApproved:
			approved++
			totalSpent += exp.Amount
		case models.ExpenseStatusRejected:
			rejected++
		}
	}

	categoriesJSON, err := json.Marshal(byCategory)
	if err != nil {
		return fmt.Errorf("marshal category totals: %w", err)
	}

	row := models.EventMetrics{
		EventID:               eventID,
		TotalBudget:           totalEstimated,
		TotalSpent:            totalSpent,
		TotalEstimated:        totalEstimated,
		TotalActual:           totalActual,
		Variance:              variance,
		VariancePercentage:    variancePct,
		IsOverBudget:          variance > 0,
		TotalsByCategory:      string(categoriesJSON),
		PendingExpensesCount:  pending,
		ApprovedExpensesCount: approved,
		RejectedExpensesCount: rejected,
		BudgetItemsCount:      int64(len(items)),
		LastComputedAt:        time.Now(),
	}

	var existing models.EventMetrics
	err = s.db.Where("event_id = ?", eventID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("create event metrics for event %d: %w", eventID, err)
		}
	case err != nil:
		return fmt.Errorf("load event metrics for event %d: %w", eventID, err)
	default:
		row.EventMetricsID = existing.EventMetricsID
		if err := s.db.Save(&row).Error; err != nil {
			return fmt.Errorf("update event metrics for event %d: %w", eventID, err)
		}
	}

	if event.OrganizationID != 0 {
		if err := s.RecomputeDashboardMetrics(event.OrganizationID); err != nil {
			return fmt.Errorf("cascade dashboard recompute for organization %d: %w", event.OrganizationID, err)
		}
	}

	return nil
}

// RecomputeVendorMetrics rebuilds the per-vendor cache row. No cascade.
func (s *MetricsService) RecomputeVendorMetrics(vendorID uint) error {
	var vendor models.Vendor
	if err := s.db.Where("vendor_id = ? AND delete_at IS NULL", vendorID).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVendorNotFound
		}
		return fmt.Errorf("load vendor %d: %w", vendorID, err)
	}

	var contracts []models.EventVendor
	if err := s.db.Where("vendor_id = ?", vendorID).
		Order("assigned_at DESC").
		Find(&contracts).Error; err != nil {
		return fmt.Errorf("load contracts for vendor %d: %w", vendorID, err)
	}

	var lastContractDate *time.Time
	if len(contracts) > 0 {
		d := contracts[0].AssignedAt
		lastContractDate = &d
	}
	eventIDs := make(map[uint]bool, len(contracts))
	for _, cv := range contracts {
		eventIDs[cv.EventID] = true
	}

	var totalSpent float64
	var approvedExpenses []models.Expense
	if err := s.db.Where("vendor_id = ? AND status = ?", vendorID, models.ExpenseStatusApproved).
		Find(&approvedExpenses).Error; err != nil {
		return fmt.Errorf("load approved expenses for vendor %d: %w", vendorID, err)
	}
	for _, exp := range approvedExpenses {
		totalSpent += exp.Amount
	}

	row := models.VendorMetrics{
		VendorID:         vendorID,
		TotalContracts:   int64(len(contracts)),
		TotalSpent:       totalSpent,
		EventsCount:      int64(len(eventIDs)),
		LastContractDate: lastContractDate,
		LastComputedAt:   time.Now(),
	}

	var existing models.VendorMetrics
	err := s.db.Where("vendor_id = ?", vendorID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("create vendor metrics for vendor %d: %w", vendorID, err)
		}
	case err != nil:
		return fmt.Errorf("load vendor metrics for vendor %d: %w", vendorID, err)
	default:
		row.VendorMetricsID = existing.VendorMetricsID
		if err := s.db.Save(&row).Error; err != nil {
			return fmt.Errorf("update vendor metrics for vendor %d: %w", vendorID, err)
		}
	}

	return nil
}

// RecomputeEventMetricsForOrganization recomputes every event in the
// organization one at a time. Sequential on purpose: bulk repair should not
// overwhelm the store.
func (s *MetricsService) RecomputeEventMetricsForOrganization(orgID uint) error {
	var eventIDs []uint
	if err := s.db.Model(&models.Event{}).
		Where("organization_id = ? AND delete_at IS NULL", orgID).
		Pluck("event_id", &eventIDs).Error; err != nil {
		return fmt.Errorf("list events for organization %d: %w", orgID, err)
	}

	for _, id := range eventIDs {
		if err := s.RecomputeEventMetrics(id); err != nil {
			return fmt.Errorf("recompute event %d: %w", id, err)
		}
	}

	return nil
}

// RecomputeAllMetrics is the full organization rebuild: every event, then
// the dashboard, then every vendor.
func (s *MetricsService) RecomputeAllMetrics(orgID uint) error {
	if err := s.RecomputeEventMetricsForOrganization(orgID); err != nil {
		return err
	}
	if err := s.RecomputeDashboardMetrics(orgID); err != nil {
		return err
	}

	var vendorIDs []uint
	if err := s.db.Model(&models.Vendor{}).
		Where("organization_id = ? AND delete_at IS NULL", orgID).
		Pluck("vendor_id", &vendorIDs).Error; err != nil {
		return fmt.Errorf("list vendors for organization %d: %w", orgID, err)
	}
	for _, id := range vendorIDs {
		if err := s.RecomputeVendorMetrics(id); err != nil {
			return fmt.Errorf("recompute vendor %d: %w", id, err)
		}
	}

	return nil
}

// GetDashboardMetrics returns the cached row, or nil if it was never
// computed. Reads never populate the cache; use GetOrComputeDashboardMetrics
// at the API boundary for that.
func (s *MetricsService) GetDashboardMetrics(orgID uint) (*models.DashboardMetrics, error) {
	var row models.DashboardMetrics
	err := s.db.Where("organization_id = ?", orgID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load dashboard metrics for organization %d: %w", orgID, err)
	}
	return &row, nil
}

func (s *MetricsService) GetEventMetrics(eventID uint) (*models.EventMetrics, error) {
	var row models.EventMetrics
	err := s.db.Where("event_id = ?", eventID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load event metrics for event %d: %w", eventID, err)
	}
	return &row, nil
}

func (s *MetricsService) GetVendorMetrics(vendorID uint) (*models.VendorMetrics, error) {
	var row models.VendorMetrics
	err := s.db.Where("vendor_id = ?", vendorID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vendor metrics for vendor %d: %w", vendorID, err)
	}
	return &row, nil
}

// GetOrComputeDashboardMetrics is the lazy-fill combinator used by read
// endpoints: return the cache, on miss recompute once and re-read.
func (s *MetricsService) GetOrComputeDashboardMetrics(orgID uint) (*models.DashboardMetrics, error) {
	row, err := s.GetDashboardMetrics(orgID)
	if err != nil || row != nil {
		return row, err
	}
	if err := s.RecomputeDashboardMetrics(orgID); err != nil {
		return nil, err
	}
	return s.GetDashboardMetrics(orgID)
}

func (s *MetricsService) GetOrComputeEventMetrics(eventID uint) (*models.EventMetrics, error) {
	row, err := s.GetEventMetrics(eventID)
	if err != nil || row != nil {
		return row, err
	}
	if err := s.RecomputeEventMetrics(eventID); err != nil {
		return nil, err
	}
	return s.GetEventMetrics(eventID)
}

func (s *MetricsService) GetOrComputeVendorMetrics(vendorID uint) (*models.VendorMetrics, error) {
	row, err := s.GetVendorMetrics(vendorID)
	if err != nil || row != nil {
		return row, err
	}
	if err := s.RecomputeVendorMetrics(vendorID); err != nil {
		return nil, err
	}
	return s.GetVendorMetrics(vendorID)
}
