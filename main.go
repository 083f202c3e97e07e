package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/middleware"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/routes"
	"github.com/kendall-kelly/fieldservice-api/services"
)

func main() {
	log.Println("Starting field service API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() || cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if _, err := models.LoadBonusSettings(db); err != nil {
		log.Fatalf("Failed to seed bonus settings: %v", err)
	}

	if _, err := services.InitDocumentService(context.Background(), cfg); err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the router with JWT validation against the configured Auth0 tenant
func setupRouter(cfg *config.Config) *gin.Engine {
	return routes.Setup(cfg, middleware.EnsureValidToken(cfg))
}
