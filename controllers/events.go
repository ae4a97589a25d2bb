package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// GetEvents lists the caller's organization events, paginated.
func GetEvents(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	page := utils.ParsePositive(c.Query("page"), 1)
	size := utils.ParsePositive(c.Query("page_size"), 20)

	q := config.DB.Where("organization_id = ? AND delete_at IS NULL", orgID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Model(&models.Event{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var events []models.Event
	if err := q.Order("create_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": events,
		"meta": gin.H{"page": page, "page_size": size, "total": total},
	})
}

// GetEvent returns a single event with its budget items.
func GetEvent(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var event models.Event
	if err := config.DB.Preload("BudgetItems", "delete_at IS NULL").
		Where("event_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

// CreateEvent creates an event in Planning status and notifies the
// organization's event managers.
func CreateEvent(c *gin.Context) {
	type createEventRequest struct {
		Name        string     `json:"name" binding:"required"`
		Description string     `json:"description"`
		Location    string     `json:"location"`
		StartDate   time.Time  `json:"start_date" binding:"required"`
		EndDate     *time.Time `json:"end_date"`
	}

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := currentUserID(c)
	orgID, _ := currentOrgID(c)

	now := time.Now()
	event := models.Event{
		OrganizationID: orgID,
		Name:           utils.SanitizeInput(req.Name),
		Description:    req.Description,
		Location:       req.Location,
		Status:         models.EventStatusPlanning,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CreatedBy:      userID,
		CreateAt:       now,
		UpdateAt:       now,
	}
	if err := config.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	activitySvc.Record(orgID, userID, "created", "event", event.EventID, event.Name)
	if err := notifSvc.NotifyEventManagers(event.EventID, "info", "New event created",
		fmt.Sprintf("Event %q was created and is in planning.", event.Name),
		map[string]interface{}{"event_id": event.EventID}, false); err != nil {
		log.Printf("event creation fan-out failed for event %d: %v", event.EventID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully",
		"event":   event,
	})
}

// UpdateEvent updates event fields and handles status transitions. A status
// change fans out a notification and refreshes the event metrics cache.
func UpdateEvent(c *gin.Context) {
	type updateEventRequest struct {
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Location    string     `json:"location"`
		Status      string     `json:"status"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := config.DB.Where("event_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	statusChanged := false
	if req.Status != "" && req.Status != event.Status {
		if !models.ValidEventStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event status"})
			return
		}
		event.Status = req.Status
		statusChanged = true
	}
	if req.Name != "" {
		event.Name = utils.SanitizeInput(req.Name)
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.Location != "" {
		event.Location = req.Location
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = req.EndDate
	}
	event.UpdateAt = time.Now()

	if err := config.DB.Save(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	activitySvc.Record(orgID, userID, "updated", "event", event.EventID, event.Name)
	if statusChanged {
		if err := notifSvc.NotifyEventManagers(event.EventID, "info", "Event status changed",
			fmt.Sprintf("Event %q is now %s.", event.Name, event.Status),
			map[string]interface{}{"event_id": event.EventID, "status": event.Status}, false); err != nil {
			log.Printf("status change notification failed for event %d: %v", event.EventID, err)
		}
	}
	recomputeEventMetricsSafe(event.EventID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully",
		"event":   event,
	})
}

// DeleteEvent soft deletes an event and refreshes the org dashboard.
func DeleteEvent(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var event models.Event
	if err := config.DB.Where("event_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	now := time.Now()
	event.DeleteAt = &now
	event.UpdateAt = now
	if err := config.DB.Save(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	activitySvc.Record(orgID, userID, "deleted", "event", event.EventID, event.Name)
	// A stale dashboard self-heals on the next recompute.
	if err := metricsSvc.RecomputeDashboardMetrics(orgID); err != nil {
		log.Printf("dashboard recompute failed for organization %d: %v", orgID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
