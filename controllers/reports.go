package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// ExportEventExpensesCSV streams the event's expenses as CSV.
func ExportEventExpensesCSV(c *gin.Context) {
	eventID, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	if _, ok := loadOrgEvent(c, eventID); !ok {
		return
	}

	var expenses []models.Expense
	if err := config.DB.Preload("BudgetItem").Preload("Vendor").
		Where("event_id = ?", eventID).
		Order("create_at ASC").
		Find(&expenses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="event-%d-expenses-%s.csv"`, eventID, time.Now().Format("2006-01-02")))

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	_ = w.Write([]string{"expense_id", "description", "category", "budget_item", "vendor", "amount", "status", "created_at"})
	for _, exp := range expenses {
		budgetItem := ""
		if exp.BudgetItem != nil {
			budgetItem = exp.BudgetItem.Name
		}
		vendor := ""
		if exp.Vendor != nil {
			vendor = exp.Vendor.Name
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(exp.ExpenseID), 10),
			exp.Description,
			exp.Category,
			budgetItem,
			vendor,
			strconv.FormatFloat(exp.Amount, 'f', 2, 64),
			exp.Status,
			exp.CreateAt.Format(time.RFC3339),
		})
	}
}

// ExportEventBudgetCSV streams the event's budget lines (estimated vs
// actual) as CSV.
func ExportEventBudgetCSV(c *gin.Context) {
	eventID, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	if _, ok := loadOrgEvent(c, eventID); !ok {
		return
	}

	var items []models.BudgetItem
	if err := config.DB.Where("event_id = ? AND delete_at IS NULL", eventID).
		Order("category ASC").
		Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="event-%d-budget-%s.csv"`, eventID, time.Now().Format("2006-01-02")))

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	_ = w.Write([]string{"budget_item_id", "category", "name", "estimated_cost", "actual_cost", "variance"})
	for _, item := range items {
		actual := 0.0
		if item.ActualCost != nil {
			actual = *item.ActualCost
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(item.BudgetItemID), 10),
			item.Category,
			item.Name,
			strconv.FormatFloat(item.EstimatedCost, 'f', 2, 64),
			strconv.FormatFloat(actual, 'f', 2, 64),
			strconv.FormatFloat(actual-item.EstimatedCost, 'f', 2, 64),
		})
	}
}
