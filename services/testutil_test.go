package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"event-finance-api/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// setupTestDB opens a fresh in-memory database migrated from the models.
// Each test gets its own shared-cache namespace so connections from GORM's
// pool see the same data.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Event{},
		&models.BudgetItem{},
		&models.Expense{},
		&models.ApprovalRecord{},
		&models.Vendor{},
		&models.EventVendor{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.DashboardMetrics{},
		&models.EventMetrics{},
		&models.VendorMetrics{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func seedOrganization(t *testing.T, db *gorm.DB, name string) models.Organization {
	t.Helper()
	org := models.Organization{Name: name, CreateAt: time.Now(), UpdateAt: time.Now()}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("failed to seed organization: %v", err)
	}
	return org
}

func seedUser(t *testing.T, db *gorm.DB, orgID uint, email, role string) models.User {
	t.Helper()
	user := models.User{
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   "x",
		FullName:       email,
		Role:           role,
		CreateAt:       time.Now(),
		UpdateAt:       time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedEvent(t *testing.T, db *gorm.DB, orgID, createdBy uint, name string) models.Event {
	t.Helper()
	event := models.Event{
		OrganizationID: orgID,
		Name:           name,
		Status:         models.EventStatusPlanning,
		StartDate:      time.Now().AddDate(0, 1, 0),
		CreatedBy:      createdBy,
		CreateAt:       time.Now(),
		UpdateAt:       time.Now(),
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
	return event
}

func seedBudgetItem(t *testing.T, db *gorm.DB, eventID uint, category string, estimated float64) models.BudgetItem {
	t.Helper()
	item := models.BudgetItem{
		EventID:       eventID,
		Category:      category,
		Name:          category + " budget",
		EstimatedCost: estimated,
		CreateAt:      time.Now(),
		UpdateAt:      time.Now(),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed budget item: %v", err)
	}
	return item
}

func seedExpense(t *testing.T, db *gorm.DB, event models.Event, budgetItemID *uint, amount float64, status string, createdBy uint) models.Expense {
	t.Helper()
	expense := models.Expense{
		EventID:        event.EventID,
		OrganizationID: event.OrganizationID,
		BudgetItemID:   budgetItemID,
		Category:       models.CategoryVenue,
		Description:    "test expense",
		Amount:         amount,
		Status:         status,
		CreatedBy:      createdBy,
		CreateAt:       time.Now(),
		UpdateAt:       time.Now(),
	}
	if err := db.Create(&expense).Error; err != nil {
		t.Fatalf("failed to seed expense: %v", err)
	}
	return expense
}

func countApprovalRecords(t *testing.T, db *gorm.DB, expenseID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.ApprovalRecord{}).Where("expense_id = ?", expenseID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count approval records: %v", err)
	}
	return count
}

func reloadExpense(t *testing.T, db *gorm.DB, expenseID uint) models.Expense {
	t.Helper()
	var expense models.Expense
	if err := db.First(&expense, "expense_id = ?", expenseID).Error; err != nil {
		t.Fatalf("failed to reload expense: %v", err)
	}
	return expense
}
