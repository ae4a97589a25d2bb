package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"event-finance-api/models"
)

func TestRecomputeEventMetricsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	if err := svc.RecomputeEventMetrics(9999); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("RecomputeEventMetrics(missing) = %v, want ErrEventNotFound", err)
	}
}

func TestRecomputeEventMetricsVariance(t *testing.T) {
	tests := []struct {
		name          string
		estimated     float64
		actual        float64
		wantVariance  float64
		wantPct       float64
		wantOver      bool
	}{
		{name: "over budget", estimated: 1000, actual: 1200, wantVariance: 200, wantPct: 20, wantOver: true},
		{name: "under budget", estimated: 1000, actual: 800, wantVariance: -200, wantPct: -20, wantOver: false},
		{name: "zero estimate avoids division by zero", estimated: 0, actual: 500, wantVariance: 500, wantPct: 0, wantOver: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			svc := NewMetricsService(db)

			org := seedOrganization(t, db, "org")
			user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
			event := seedEvent(t, db, org.OrgID, user.UserID, "gala")
			item := seedBudgetItem(t, db, event.EventID, models.CategoryVenue, tt.estimated)
			if tt.actual != 0 {
				actual := tt.actual
				if err := db.Model(&models.BudgetItem{}).
					Where("budget_item_id = ?", item.BudgetItemID).
					Update("actual_cost", actual).Error; err != nil {
					t.Fatalf("failed to set actual cost: %v", err)
				}
			}

			if err := svc.RecomputeEventMetrics(event.EventID); err != nil {
				t.Fatalf("RecomputeEventMetrics() error = %v", err)
			}

			row, err := svc.GetEventMetrics(event.EventID)
			if err != nil {
				t.Fatalf("GetEventMetrics() error = %v", err)
			}
			if row == nil {
				t.Fatal("GetEventMetrics() = nil, want row")
			}
			if row.Variance != tt.wantVariance {
				t.Errorf("Variance = %v, want %v", row.Variance, tt.wantVariance)
			}
			if row.VariancePercentage != tt.wantPct {
				t.Errorf("VariancePercentage = %v, want %v", row.VariancePercentage, tt.wantPct)
			}
			if row.IsOverBudget != tt.wantOver {
				t.Errorf("IsOverBudget = %v, want %v", row.IsOverBudget, tt.wantOver)
			}
		})
	}
}

func TestRecomputeEventMetricsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	event := seedEvent(t, db, org.OrgID, user.UserID, "gala")
	seedBudgetItem(t, db, event.EventID, models.CategoryVenue, 1000)
	seedBudgetItem(t, db, event.EventID, models.CategoryCatering, 500)
	seedExpense(t, db, event, nil, 300, models.ExpenseStatusApproved, user.UserID)
	seedExpense(t, db, event, nil, 200, models.ExpenseStatusPending, user.UserID)

	if err := svc.RecomputeEventMetrics(event.EventID); err != nil {
		t.Fatalf("first recompute error = %v", err)
	}
	first, err := svc.GetEventMetrics(event.EventID)
	if err != nil || first == nil {
		t.Fatalf("GetEventMetrics() = %v, %v", first, err)
	}

	if err := svc.RecomputeEventMetrics(event.EventID); err != nil {
		t.Fatalf("second recompute error = %v", err)
	}
	second, err := svc.GetEventMetrics(event.EventID)
	if err != nil || second == nil {
		t.Fatalf("GetEventMetrics() = %v, %v", second, err)
	}

	// Identical except the computation timestamp.
	first.LastComputedAt = second.LastComputedAt
	if *first != *second {
		t.Errorf("recompute not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestEventAndDashboardSpentAsymmetry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	event := seedEvent(t, db, org.OrgID, user.UserID, "gala")
	seedExpense(t, db, event, nil, 100, models.ExpenseStatusApproved, user.UserID)
	seedExpense(t, db, event, nil, 50, models.ExpenseStatusPending, user.UserID)
	seedExpense(t, db, event, nil, 25, models.ExpenseStatusRejected, user.UserID)

	if err := svc.RecomputeEventMetrics(event.EventID); err != nil {
		t.Fatalf("RecomputeEventMetrics() error = %v", err)
	}

	eventRow, _ := svc.GetEventMetrics(event.EventID)
	if eventRow.TotalSpent != 100 {
		t.Errorf("event TotalSpent = %v, want 100 (approved only)", eventRow.TotalSpent)
	}
	if eventRow.PendingExpensesCount != 1 || eventRow.ApprovedExpensesCount != 1 || eventRow.RejectedExpensesCount != 1 {
		t.Errorf("status counts = %d/%d/%d, want 1/1/1",
			eventRow.PendingExpensesCount, eventRow.ApprovedExpensesCount, eventRow.RejectedExpensesCount)
	}

	dashRow, _ := svc.GetDashboardMetrics(org.OrgID)
	if dashRow == nil {
		t.Fatal("dashboard row missing after cascade")
	}
	if dashRow.TotalExpenses != 175 {
		t.Errorf("dashboard TotalExpenses = %v, want 175 (all statuses)", dashRow.TotalExpenses)
	}
	if dashRow.PendingApprovals != 1 {
		t.Errorf("dashboard PendingApprovals = %v, want 1", dashRow.PendingApprovals)
	}
}

func TestCascadeUpdatesOverBudgetEvents(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	event := seedEvent(t, db, org.OrgID, user.UserID, "gala")
	item := seedBudgetItem(t, db, event.EventID, models.CategoryVenue, 1000)

	if err := svc.RecomputeEventMetrics(event.EventID); err != nil {
		t.Fatalf("RecomputeEventMetrics() error = %v", err)
	}
	dash, _ := svc.GetDashboardMetrics(org.OrgID)
	if dash.OverBudgetEvents != 0 {
		t.Fatalf("OverBudgetEvents = %d, want 0 before overspend", dash.OverBudgetEvents)
	}

	// Push the event over budget; the event recompute alone must refresh
	// the dashboard count through the cascade.
	if err := db.Model(&models.BudgetItem{}).
		Where("budget_item_id = ?", item.BudgetItemID).
		Update("actual_cost", 1200.0).Error; err != nil {
		t.Fatalf("failed to set actual cost: %v", err)
	}
	if err := svc.RecomputeEventMetrics(event.EventID); err != nil {
		t.Fatalf("RecomputeEventMetrics() error = %v", err)
	}

	dash, _ = svc.GetDashboardMetrics(org.OrgID)
	if dash.OverBudgetEvents != 1 {
		t.Errorf("OverBudgetEvents = %d, want 1 after cascade", dash.OverBudgetEvents)
	}
}

func TestDashboardRecentEventsAndCharts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	for i := 0; i < 7; i++ {
		seedEvent(t, db, org.OrgID, user.UserID, "event")
	}
	event := seedEvent(t, db, org.OrgID, user.UserID, "with money")
	seedBudgetItem(t, db, event.EventID, models.CategoryVenue, 400)
	seedExpense(t, db, event, nil, 150, models.ExpenseStatusPending, user.UserID)

	if err := svc.RecomputeDashboardMetrics(org.OrgID); err != nil {
		t.Fatalf("RecomputeDashboardMetrics() error = %v", err)
	}

	row, _ := svc.GetDashboardMetrics(org.OrgID)
	if row.TotalBudget != 400 {
		t.Errorf("TotalBudget = %v, want 400", row.TotalBudget)
	}

	var recent []map[string]interface{}
	if err := json.Unmarshal([]byte(row.RecentEvents), &recent); err != nil {
		t.Fatalf("RecentEvents is not valid JSON: %v", err)
	}
	if len(recent) != 5 {
		t.Errorf("recent events len = %d, want 5", len(recent))
	}

	var charts dashboardCharts
	if err := json.Unmarshal([]byte(row.Charts), &charts); err != nil {
		t.Fatalf("Charts is not valid JSON: %v", err)
	}
	if len(charts.MonthlySeries) != 6 {
		t.Errorf("monthly series len = %d, want 6", len(charts.MonthlySeries))
	}
	// Everything lands in the single Miscellaneous bucket.
	if len(charts.ExpenseCategories) != 1 ||
		charts.ExpenseCategories[0].Category != models.CategoryMiscellaneous ||
		charts.ExpenseCategories[0].Percentage != 100 {
		t.Errorf("expense categories = %+v, want one Miscellaneous slice at 100%%", charts.ExpenseCategories)
	}
}

func TestRecomputeVendorMetrics(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	if err := svc.RecomputeVendorMetrics(404); !errors.Is(err, ErrVendorNotFound) {
		t.Fatalf("RecomputeVendorMetrics(missing) = %v, want ErrVendorNotFound", err)
	}

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	eventA := seedEvent(t, db, org.OrgID, user.UserID, "a")
	eventB := seedEvent(t, db, org.OrgID, user.UserID, "b")

	vendor := models.Vendor{OrganizationID: org.OrgID, Name: "caterer"}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("failed to seed vendor: %v", err)
	}
	for _, ev := range []models.Event{eventA, eventA, eventB} {
		if err := db.Create(&models.EventVendor{
			EventID: ev.EventID, VendorID: vendor.VendorID, ContractAmount: 100, AssignedAt: time.Now(),
		}).Error; err != nil {
			t.Fatalf("failed to seed contract: %v", err)
		}
	}

	approved := seedExpense(t, db, eventA, nil, 250, models.ExpenseStatusApproved, user.UserID)
	pending := seedExpense(t, db, eventA, nil, 75, models.ExpenseStatusPending, user.UserID)
	for _, exp := range []models.Expense{approved, pending} {
		if err := db.Model(&models.Expense{}).
			Where("expense_id = ?", exp.ExpenseID).
			Update("vendor_id", vendor.VendorID).Error; err != nil {
			t.Fatalf("failed to link expense to vendor: %v", err)
		}
	}

	if err := svc.RecomputeVendorMetrics(vendor.VendorID); err != nil {
		t.Fatalf("RecomputeVendorMetrics() error = %v", err)
	}

	row, _ := svc.GetVendorMetrics(vendor.VendorID)
	if row.TotalContracts != 3 {
		t.Errorf("TotalContracts = %d, want 3", row.TotalContracts)
	}
	if row.EventsCount != 2 {
		t.Errorf("EventsCount = %d, want 2", row.EventsCount)
	}
	if row.TotalSpent != 250 {
		t.Errorf("TotalSpent = %v, want 250 (approved only)", row.TotalSpent)
	}
	if row.LastContractDate == nil {
		t.Error("LastContractDate = nil, want latest assignment date")
	}
}

func TestGetOrComputeLazyFill(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	event := seedEvent(t, db, org.OrgID, user.UserID, "gala")

	// A plain read never populates the cache.
	row, err := svc.GetEventMetrics(event.EventID)
	if err != nil {
		t.Fatalf("GetEventMetrics() error = %v", err)
	}
	if row != nil {
		t.Fatal("GetEventMetrics() before compute = row, want nil")
	}

	filled, err := svc.GetOrComputeEventMetrics(event.EventID)
	if err != nil {
		t.Fatalf("GetOrComputeEventMetrics() error = %v", err)
	}
	if filled == nil {
		t.Fatal("GetOrComputeEventMetrics() = nil, want computed row")
	}
}

func TestRecomputeAllMetrics(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMetricsService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "mgr@test.io", models.RoleEventManager)
	eventA := seedEvent(t, db, org.OrgID, user.UserID, "a")
	eventB := seedEvent(t, db, org.OrgID, user.UserID, "b")
	vendor := models.Vendor{OrganizationID: org.OrgID, Name: "caterer"}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("failed to seed vendor: %v", err)
	}

	if err := svc.RecomputeAllMetrics(org.OrgID); err != nil {
		t.Fatalf("RecomputeAllMetrics() error = %v", err)
	}

	for _, id := range []uint{eventA.EventID, eventB.EventID} {
		if row, _ := svc.GetEventMetrics(id); row == nil {
			t.Errorf("event %d metrics missing after full rebuild", id)
		}
	}
	if row, _ := svc.GetDashboardMetrics(org.OrgID); row == nil {
		t.Error("dashboard metrics missing after full rebuild")
	}
	if row, _ := svc.GetVendorMetrics(vendor.VendorID); row == nil {
		t.Error("vendor metrics missing after full rebuild")
	}
}
