package controllers

import (
	"net/http"

	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// GetActivityLog lists the organization's activity trail (admin only).
func GetActivityLog(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	page := utils.ParsePositive(c.Query("page"), 1)
	size := utils.ParsePositive(c.Query("page_size"), 50)

	rows, total, err := activitySvc.List(orgID, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": rows,
		"meta": gin.H{"page": page, "page_size": size, "total": total},
	})
}
