package controllers

import (
	"net/http"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// loadOrgEvent fetches an event scoped to the caller's organization,
// writing the 404 response itself on a miss.
func loadOrgEvent(c *gin.Context, eventID uint) (*models.Event, bool) {
	orgID, _ := currentOrgID(c)

	var event models.Event
	if err := config.DB.Where("event_id = ? AND organization_id = ? AND delete_at IS NULL", eventID, orgID).
		First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return nil, false
	}
	return &event, true
}

// GetBudgetItems lists an event's budget items.
func GetBudgetItems(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"data": items})
}

// CreateBudgetItem adds a planned cost line to an event.
func CreateBudgetItem(c *gin.Context) {
	type createBudgetItemRequest struct {
		Category      string  `json:"category" binding:"required"`
		Name          string  `json:"name" binding:"required"`
		EstimatedCost float64 `json:"estimated_cost" binding:"required,gt=0"`
	}

	eventID, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req createBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	event, ok := loadOrgEvent(c, eventID)
	if !ok {
		return
	}

	userID, _ := currentUserID(c)
	now := time.Now()
	item := models.BudgetItem{
		EventID:       event.EventID,
		Category:      req.Category,
		Name:          utils.SanitizeInput(req.Name),
		EstimatedCost: req.EstimatedCost,
		CreateAt:      now,
		UpdateAt:      now,
	}
	if err := config.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create budget item"})
		return
	}

	activitySvc.Record(event.OrganizationID, userID, "created", "budget_item", item.BudgetItemID, item.Name)
	recomputeEventMetricsSafe(event.EventID)

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Budget item created successfully",
		"budget_item": item,
	})
}

// UpdateBudgetItem changes the category, name, or estimated cost. The
// actual cost is owned by the approval workflow and cannot be set here.
func UpdateBudgetItem(c *gin.Context) {
	type updateBudgetItemRequest struct {
		Category      string  `json:"category"`
		Name          string  `json:"name"`
		EstimatedCost float64 `json:"estimated_cost"`
	}

	eventID, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	itemID, ok := utils.ParseUintParam(c.Param("item_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget item id"})
		return
	}

	var req updateBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, ok := loadOrgEvent(c, eventID)
	if !ok {
		return
	}

	var item models.BudgetItem
	if err := config.DB.Where("budget_item_id = ? AND event_id = ? AND delete_at IS NULL", itemID, eventID).
		First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget item not found"})
		return
	}

	if req.Category != "" {
		if !models.ValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		item.Category = req.Category
	}
	if req.Name != "" {
		item.Name = utils.SanitizeInput(req.Name)
	}
	if req.EstimatedCost > 0 {
		item.EstimatedCost = req.EstimatedCost
	}
	item.UpdateAt = time.Now()

	if err := config.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update budget item"})
		return
	}

	userID, _ := currentUserID(c)
	activitySvc.Record(event.OrganizationID, userID, "updated", "budget_item", item.BudgetItemID, item.Name)
	recomputeEventMetricsSafe(event.EventID)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Budget item updated successfully",
		"budget_item": item,
	})
}

// DeleteBudgetItem soft deletes a budget item.
func DeleteBudgetItem(c *gin.Context) {
	eventID, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	itemID, ok := utils.ParseUintParam(c.Param("item_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget item id"})
		return
	}

	event, ok := loadOrgEvent(c, eventID)
	if !ok {
		return
	}

	var item models.BudgetItem
	if err := config.DB.Where("budget_item_id = ? AND event_id = ? AND delete_at IS NULL", itemID, eventID).
		First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget item not found"})
		return
	}

	now := time.Now()
	item.DeleteAt = &now
	item.UpdateAt = now
	if err := config.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete budget item"})
		return
	}

	userID, _ := currentUserID(c)
	activitySvc.Record(event.OrganizationID, userID, "deleted", "budget_item", item.BudgetItemID, item.Name)
	recomputeEventMetricsSafe(event.EventID)

	c.JSON(http.StatusOK, gin.H{"message": "Budget item deleted successfully"})
}
