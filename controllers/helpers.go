package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/middleware"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/validation"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondBindError reports a request body that failed binding
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondData writes the standard success envelope
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// currentUser loads the authenticated user. On failure it writes the
// error response and returns false.
func currentUser(c *gin.Context) (models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return models.User{}, false
	}

	var user models.User
	if err := config.GetDB().Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return models.User{}, false
	}

	return user, true
}

// requireRole writes a 403 and returns false unless user has one of roles
func requireRole(c *gin.Context, user models.User, message string, roles ...string) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	respondError(c, http.StatusForbidden, "FORBIDDEN", message)
	return false
}

// idParam parses a numeric path parameter. On failure it writes a 400.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// renderer picks the warning language from the Accept-Language header
func renderer(c *gin.Context) validation.Renderer {
	return validation.RendererFor(c.GetHeader("Accept-Language"))
}
