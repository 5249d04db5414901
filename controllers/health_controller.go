package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/config"
)

// HealthCheck handles GET /api/health
func HealthCheck(c *gin.Context) {
	version := "unknown"
	if cfg := config.GetConfig(); cfg != nil {
		version = cfg.AppVersion
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "ok",
		"message":   "Lumme API is running",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DatabaseStatus checks database connectivity and returns table information
func DatabaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		respondFailure(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		respondFailure(c, http.StatusServiceUnavailable, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		respondFailure(c, http.StatusInternalServerError, "DATABASE_QUERY_ERROR", "Failed to query tables")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
