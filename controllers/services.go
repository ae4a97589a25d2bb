package controllers

import (
	"log"

	"event-finance-api/config"
	"event-finance-api/services"

	"github.com/gin-gonic/gin"
)

var (
	notifSvc    *services.NotificationService
	metricsSvc  *services.MetricsService
	approvalSvc *services.ApprovalService
	activitySvc *services.ActivityService
)

// InitServices wires the service layer to the shared DB handle. Must be
// called after config.InitDB and before any request is served. The returned
// notification service is what main starts the mail worker on.
func InitServices() *services.NotificationService {
	notifSvc = services.NewNotificationService(config.DB)
	metricsSvc = services.NewMetricsService(config.DB)
	approvalSvc = services.NewApprovalService(config.DB, notifSvc)
	activitySvc = services.NewActivityService(config.DB)
	return notifSvc
}

func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func currentRole(c *gin.Context) string {
	v, ok := c.Get("role")
	if !ok {
		return ""
	}
	role, _ := v.(string)
	return role
}

func currentOrgID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("organizationID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// recomputeEventMetricsSafe refreshes the event cache after a write.
// Metrics are a read cache, so a failed recompute is logged and the request
// still succeeds; the next recompute heals the row.
func recomputeEventMetricsSafe(eventID uint) {
	if err := metricsSvc.RecomputeEventMetrics(eventID); err != nil {
		log.Printf("metrics recompute failed for event %d: %v", eventID, err)
	}
}

func recomputeVendorMetricsSafe(vendorID uint) {
	if err := metricsSvc.RecomputeVendorMetrics(vendorID); err != nil {
		log.Printf("metrics recompute failed for vendor %d: %v", vendorID, err)
	}
}
