package controllers

import (
	"net/http"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"
	"event-finance-api/utils"

	"github.com/gin-gonic/gin"
)

// GetUsers lists the organization's users (admin only).
func GetUsers(c *gin.Context) {
	orgID, _ := currentOrgID(c)

	page := utils.ParsePositive(c.Query("page"), 1)
	size := utils.ParsePositive(c.Query("page_size"), 20)

	q := config.DB.Where("organization_id = ? AND delete_at IS NULL", orgID)
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Model(&models.User{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var users []models.User
	if err := q.Order("full_name ASC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": users,
		"meta": gin.H{"page": page, "page_size": size, "total": total},
	})
}

// CreateUser registers a user in the caller's organization (admin only).
func CreateUser(c *gin.Context) {
	type createUserRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}
	if ok, msg := utils.ValidatePassword(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	orgID, _ := currentOrgID(c)
	actorID, _ := currentUserID(c)

	var existing models.User
	if err := config.DB.Where("email = ? AND delete_at IS NULL", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is already registered"})
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	now := time.Now()
	user := models.User{
		OrganizationID: orgID,
		Email:          req.Email,
		PasswordHash:   hashed,
		FullName:       utils.SanitizeInput(req.FullName),
		Role:           req.Role,
		CreateAt:       now,
		UpdateAt:       now,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	activitySvc.Record(orgID, actorID, "created", "user", user.UserID, user.Email)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// UpdateUser changes a user's name or role (admin only).
func UpdateUser(c *gin.Context) {
	type updateUserRequest struct {
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}

	orgID, _ := currentOrgID(c)
	actorID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		user.Role = req.Role
	}
	if req.FullName != "" {
		user.FullName = utils.SanitizeInput(req.FullName)
	}
	user.UpdateAt = time.Now()

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	activitySvc.Record(orgID, actorID, "updated", "user", user.UserID, user.Email)

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeleteUser soft deletes a user (admin only). Admins cannot delete
// themselves.
func DeleteUser(c *gin.Context) {
	orgID, _ := currentOrgID(c)
	actorID, _ := currentUserID(c)
	id, ok := utils.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if id == actorID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND organization_id = ? AND delete_at IS NULL", id, orgID).
		First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	now := time.Now()
	user.DeleteAt = &now
	user.UpdateAt = now
	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	activitySvc.Record(orgID, actorID, "deleted", "user", user.UserID, user.Email)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
