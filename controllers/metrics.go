package controllers

import (
	"errors"
	"net/http"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/services"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardMetrics returns the organization dashboard, lazily computing
// the cache row on first read.
func GetDashboardMetrics(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	row, err := metricsSvc.GetOrComputeDashboardMetrics(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Metrics unavailable"})
		return
	}
	if row == nil {
		c.JSON(http.StatusOK, gin.H{"metrics": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": row})
}

// GetEventMetricsEndpoint returns an event's cached aggregates, computing
// them on first read.
func GetEventMetricsEndpoint(c *gin.Context) {
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	if _, ok := loadOrgEvent(c, id); !ok {
		return
	}

	row, err := metricsSvc.GetOrComputeEventMetrics(id)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Metrics unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": row})
}

// GetVendorMetricsEndpoint returns a vendor's cached aggregates, computing
// them on first read.
func GetVendorMetricsEndpoint(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	// Scope the vendor to the caller's organization before touching the cache.
	var vendor models.Vendor
	if err := config.DB.Where("vendor_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&vendor).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	row, err := metricsSvc.GetOrComputeVendorMetrics(id)
	if err != nil {
		if errors.Is(err, services.ErrVendorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Metrics unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": row})
}

// RecomputeAllMetricsEndpoint triggers the full organization rebuild
// (admin only).
func RecomputeAllMetricsEndpoint(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	if err := metricsSvc.RecomputeAllMetrics(orgID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Metrics recomputed"})
}
