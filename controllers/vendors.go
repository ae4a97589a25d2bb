package controllers

import (
	"net/http"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// GetVendors lists the organization's vendors.
func GetVendors(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	page := utils.ParsePositive(c.Query("page"), 1)
	size := utils.ParsePositive(c.Query("page_size"), 20)

	q := config.DB.Where("organization_id = ? AND delete_at IS NULL", orgID)
	if category := c.Query("service_category"); category != "" {
		q = q.Where("service_category = ?", category)
	}

	var total int64
	if err := q.Model(&models.Vendor{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var vendors []models.Vendor
	if err := q.Order("name ASC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&vendors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": vendors,
		"meta": gin.H{"page": page, "page_size": size, "total": total},
	})
}

// GetVendor returns one vendor with its event contracts.
func GetVendor(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	var vendor models.Vendor
	if err := config.DB.Where("vendor_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&vendor).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	var contracts []models.EventVendor
	if err := config.DB.Preload("Event").
		Where("vendor_id = ?", id).
		Order("assigned_at DESC").
		Find(&contracts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vendor":    vendor,
		"contracts": contracts,
	})
}

// CreateVendor registers a vendor for the organization.
func CreateVendor(c *gin.Context) {
	type createVendorRequest struct {
		Name            string `json:"name" binding:"required"`
		ContactEmail    string `json:"contact_email"`
		ServiceCategory string `json:"service_category"`
	}

	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ContactEmail != "" && !utils.ValidateEmail(req.ContactEmail) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact email"})
		return
	}

	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)

	now := time.Now()
	vendor := models.Vendor{
		OrganizationID:  orgID,
		Name:            utils.SanitizeInput(req.Name),
		ContactEmail:    req.ContactEmail,
		ServiceCategory: req.ServiceCategory,
		CreateAt:        now,
		UpdateAt:        now,
	}
	if err := config.DB.Create(&vendor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vendor"})
		return
	}

	activitySvc.Record(orgID, userID, "created", "vendor", vendor.VendorID, vendor.Name)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Vendor created successfully",
		"vendor":  vendor,
	})
}

// UpdateVendor edits vendor details.
func UpdateVendor(c *gin.Context) {
	type updateVendorRequest struct {
		Name            string `json:"name"`
		ContactEmail    string `json:"contact_email"`
		ServiceCategory string `json:"service_category"`
	}

	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	var req updateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var vendor models.Vendor
	if err := config.DB.Where("vendor_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&vendor).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	if req.Name != "" {
		vendor.Name = utils.SanitizeInput(req.Name)
	}
	if req.ContactEmail != "" {
		if !utils.ValidateEmail(req.ContactEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact email"})
			return
		}
		vendor.ContactEmail = req.ContactEmail
	}
	if req.ServiceCategory != "" {
		vendor.ServiceCategory = req.ServiceCategory
	}
	vendor.UpdateAt = time.Now()

	if err := config.DB.Save(&vendor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor"})
		return
	}

	activitySvc.Record(orgID, userID, "updated", "vendor", vendor.VendorID, vendor.Name)

	c.JSON(http.StatusOK, gin.H{
		"message": "Vendor updated successfully",
		"vendor":  vendor,
	})
}

// DeleteVendor soft deletes a vendor.
func DeleteVendor(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	userID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	var vendor models.Vendor
	if err := config.DB.Where("vendor_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&vendor).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	now := time.Now()
	vendor.DeleteAt = &now
	vendor.UpdateAt = now
	if err := config.DB.Save(&vendor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vendor"})
		return
	}

	activitySvc.Record(orgID, userID, "deleted", "vendor", vendor.VendorID, vendor.Name)

	c.JSON(http.StatusOK, gin.H{"message": "Vendor deleted successfully"})
}

// AssignVendorToEvent links a vendor to an event with a contract amount and
// refreshes the vendor's metrics row.
func AssignVendorToEvent(c *gin.Context) {
	type assignVendorRequest struct {
		VendorID       uint    `json:"vendor_id" binding:"required"`
		ContractAmount float64 `json:"contract_amount" binding:"required,gt=0"`
	}

	eventID, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req assignVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, ok := loadOrgEvent(c, eventID)
	if !ok {
		return
	}

	var vendor models.Vendor
	if err := config.DB.Where("vendor_id = ? AND organization_id = ? AND delete_at IS NULL",
		req.VendorID, event.OrganizationID).First(&vendor).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	assignment := models.EventVendor{
		EventID:        event.EventID,
		VendorID:       vendor.VendorID,
		ContractAmount: req.ContractAmount,
		AssignedAt:     time.Now(),
	}
	if err := config.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign vendor"})
		return
	}

	userID, _ := currentUserID(c)
	activitySvc.Record(event.OrganizationID, userID, "created", "event_vendor", assignment.EventVendorID, vendor.Name)
	recomputeVendorMetricsSafe(vendor.VendorID)

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Vendor assigned successfully",
		"assignment": assignment,
	})
}
