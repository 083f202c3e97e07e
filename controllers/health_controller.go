package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
)

// HealthCheck handles GET /api/v1/health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Field service API is running",
	})
}

// DatabaseStatus handles GET /api/v1/database/status - checks connectivity and lists tables
func DatabaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		respondError(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database is not connected")
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_QUERY_ERROR", "Failed to query tables")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": db.Dialector.Name(),
		"tables":  tables,
	})
}
