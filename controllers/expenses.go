package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/services"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// GetExpenses lists the organization's expenses with optional filters.
func GetExpenses(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	page := utils.ParsePositive(c.Query("page"), 1)
	size := utils.ParsePositive(c.Query("page_size"), 20)

	q := config.DB.Where("organization_id = ?", orgID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if eventID, ok := utils.ParseUintParam(c.Query("event_id")); ok {
		q = q.Where("event_id = ?", eventID)
	}

	var total int64
	if err := q.Model(&models.Expense{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var expenses []models.Expense
	if err := q.Preload("BudgetItem").Preload("Vendor").
		Order("create_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&expenses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": expenses,
		"meta": gin.H{"page": page, "page_size": size, "total": total},
	})
}

// GetExpense returns one expense with its approval history.
func GetExpense(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	var expense models.Expense
	if err := config.DB.Preload("BudgetItem").Preload("Vendor").Preload("Creator").
		Where("expense_id = ? AND organization_id = ?", id, orgID).
		First(&expense).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	var approvals []models.ApprovalRecord
	if err := config.DB.Where("expense_id = ?", id).
		Order("action_at ASC").
		Find(&approvals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expense":   expense,
		"approvals": approvals,
	})
}

// CreateExpense records a Pending expense and fans a request-for-approval
// notification out to the event's managers and the organization's admins.
func CreateExpense(c *gin.Context) {
	type createExpenseRequest struct {
		EventID      uint    `json:"event_id" binding:"required"`
		BudgetItemID *uint   `json:"budget_item_id"`
		VendorID     *uint   `json:"vendor_id"`
		Category     string  `json:"category" binding:"required"`
		Description  string  `json:"description" binding:"required"`
		Amount       float64 `json:"amount" binding:"required,gt=0"`
	}

	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	event, ok := loadOrgEvent(c, req.EventID)
	if !ok {
		return
	}

	if req.BudgetItemID != nil {
		var item models.BudgetItem
		if err := config.DB.Where("budget_item_id = ? AND event_id = ? AND delete_at IS NULL",
			*req.BudgetItemID, event.EventID).First(&item).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Budget item does not belong to the event"})
			return
		}
	}
	if req.VendorID != nil {
		var vendor models.Vendor
		if err := config.DB.Where("vendor_id = ? AND organization_id = ? AND delete_at IS NULL",
			*req.VendorID, event.OrganizationID).First(&vendor).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Vendor does not belong to the organization"})
			return
		}
	}

	userID, _ := currentUserID(c)
	now := time.Now()
	expense := models.Expense{
		EventID:        event.EventID,
		OrganizationID: event.OrganizationID,
		BudgetItemID:   req.BudgetItemID,
		VendorID:       req.VendorID,
		Category:       req.Category,
		Description:    utils.SanitizeInput(req.Description),
		Amount:         req.Amount,
		Status:         models.ExpenseStatusPending,
		CreatedBy:      userID,
		CreateAt:       now,
		UpdateAt:       now,
	}
	if err := config.DB.Create(&expense).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create expense"})
		return
	}

	activitySvc.Record(event.OrganizationID, userID, "created", "expense", expense.ExpenseID, expense.Description)

	metadata := map[string]interface{}{"expense_id": expense.ExpenseID, "event_id": event.EventID}
	message := fmt.Sprintf("Expense %q (%.2f) for event %q is awaiting approval.",
		expense.Description, expense.Amount, event.Name)
	if err := notifSvc.NotifyEventManagers(event.EventID, "info", "New expense submitted", message, metadata, false); err != nil {
		log.Printf("manager fan-out failed for expense %d: %v", expense.ExpenseID, err)
	}
	if err := notifSvc.NotifyOrgAdmins(event.OrganizationID, "info", "New expense submitted", message, metadata, false); err != nil {
		log.Printf("admin fan-out failed for expense %d: %v", expense.ExpenseID, err)
	}

	recomputeEventMetricsSafe(event.EventID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Expense created successfully",
		"expense": expense,
	})
}

// UpdateExpense edits a Pending expense. Approved and Rejected expenses
// are immutable.
func UpdateExpense(c *gin.Context) {
	type updateExpenseRequest struct {
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}

	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var expense models.Expense
	if err := config.DB.Where("expense_id = ? AND organization_id = ?", id, orgID).
		First(&expense).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}
	if expense.Status != models.ExpenseStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot edit approved or rejected expenses"})
		return
	}
	if expense.CreatedBy != userID && currentRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator or an admin can edit this expense"})
		return
	}

	if req.Category != "" {
		if !models.ValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		expense.Category = req.Category
	}
	if req.Description != "" {
		expense.Description = utils.SanitizeInput(req.Description)
	}
	if req.Amount > 0 {
		expense.Amount = req.Amount
	}
	expense.UpdateAt = time.Now()

	if err := config.DB.Save(&expense).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update expense"})
		return
	}

	activitySvc.Record(orgID, userID, "updated", "expense", expense.ExpenseID, expense.Description)
	recomputeEventMetricsSafe(expense.EventID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Expense updated successfully",
		"expense": expense,
	})
}

// DeleteExpense removes a Pending expense.
func DeleteExpense(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	var expense models.Expense
	if err := config.DB.Where("expense_id = ? AND organization_id = ?", id, orgID).
		First(&expense).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}
	if expense.Status != models.ExpenseStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete approved or rejected expenses"})
		return
	}
	if expense.CreatedBy != userID && currentRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator or an admin can delete this expense"})
		return
	}

	if err := config.DB.Delete(&expense).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}

	activitySvc.Record(orgID, userID, "deleted", "expense", expense.ExpenseID, expense.Description)
	recomputeEventMetricsSafe(expense.EventID)

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// ApproveExpense runs the approve transition of the two-tier workflow.
func ApproveExpense(c *gin.Context) {
	decideExpense(c, services.ActionApprove)
}

// RejectExpense runs the reject transition.
func RejectExpense(c *gin.Context) {
	decideExpense(c, services.ActionReject)
}

func decideExpense(c *gin.Context, action string) {
	type decisionRequest struct {
		Comments string `json:"comments"`
	}

	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	var req decisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	// Scope check before the state machine runs.
	var expense models.Expense
	if err := config.DB.Where("expense_id = ? AND organization_id = ?", id, orgID).
		First(&expense).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	updated, err := approvalSvc.ApproveOrReject(id, action, userID, currentRole(c), req.Comments)
	if err != nil {
		status := approvalErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	activitySvc.Record(orgID, userID, actionVerb(action), "expense", updated.ExpenseID, updated.Description)
	recomputeEventMetricsSafe(updated.EventID)
	if updated.VendorID != nil && updated.Status == models.ExpenseStatusApproved {
		recomputeVendorMetricsSafe(*updated.VendorID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Decision recorded",
		"expense": updated,
	})
}

func actionVerb(action string) string {
	if action == services.ActionReject {
		return "rejected"
	}
	return "approved"
}

func approvalErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrExpenseNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrApproverRoleForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrExpenseNotPending),
		errors.Is(err, services.ErrInvalidApprovalAction),
		errors.Is(err, services.ErrManagerAlreadyApproved),
		errors.Is(err, services.ErrManagerApprovalRequired),
		errors.Is(err, services.ErrAdminAlreadyApproved):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
