// Package routes wires the HTTP handlers into a gin engine.
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/controllers"
	"github.com/kendall-kelly/fieldservice-api/middleware"
)

// Setup builds the router. auth guards every route except the health
// checks and, with local storage, the file downloads (their names embed a
// random UUID).
func Setup(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)

		if cfg.StorageBackend == config.StorageLocal {
			v1.GET("/files/:filename", controllers.GetLocalFile)
		}
	}

	api := v1.Group("", auth)
	{
		api.POST("/users", controllers.CreateUser)
		api.GET("/users", controllers.ListUsers)
		api.GET("/users/me", controllers.GetMyProfile)
		api.PUT("/users/me", controllers.UpdateMyProfile)
		api.GET("/users/me/bonus-history", controllers.GetMyBonusHistory)
		api.PUT("/users/:id/role", controllers.UpdateUserRole)
		api.GET("/users/:id/bonus-history", controllers.GetBonusHistory)

		api.POST("/clients", controllers.CreateClient)
		api.GET("/clients", controllers.ListClients)
		api.GET("/clients/:id", controllers.GetClient)
		api.POST("/clients/:id/properties", controllers.CreateProperty)

		api.POST("/document-types", controllers.CreateDocumentType)
		api.GET("/document-types", controllers.ListDocumentTypes)
		api.POST("/appointment-types", controllers.CreateAppointmentType)
		api.GET("/appointment-types", controllers.ListAppointmentTypes)

		api.POST("/jobs", controllers.CreateJob)
		api.GET("/jobs", controllers.ListJobs)
		api.GET("/jobs/:id", controllers.GetJob)
		api.PATCH("/jobs/:id/status", controllers.UpdateJobStatus)
		api.GET("/jobs/:id/validation", controllers.GetJobValidation)
		api.GET("/jobs/:id/documents", controllers.ListJobDocuments)
		api.POST("/jobs/:id/appointments", controllers.CreateAppointment)

		api.GET("/appointments/:id", controllers.GetAppointment)
		api.PATCH("/appointments/:id", controllers.UpdateAppointment)
		api.PUT("/appointments/:id/crew", controllers.AssignCrew)
		api.PUT("/appointments/:id/fields", controllers.UpdateFieldValues)
		api.PATCH("/appointments/:id/status", controllers.UpdateAppointmentStatus)
		api.GET("/appointments/:id/validation", controllers.GetAppointmentValidation)
		api.POST("/appointments/:id/checklists", controllers.CreateChecklist)
		api.GET("/appointments/:id/checklists", controllers.ListChecklists)
		api.POST("/appointments/:id/notes", controllers.CreateNote)
		api.GET("/appointments/:id/notes", controllers.ListNotes)
		api.POST("/appointments/:id/documents", controllers.UploadDocument)
		api.GET("/appointments/:id/documents", controllers.ListAppointmentDocuments)
		api.DELETE("/documents/:id", controllers.DeleteDocument)

		api.POST("/scores", controllers.CreateScore)
		api.GET("/scores", controllers.ListScores)
		api.PUT("/scores/:id", controllers.UpdateScore)
		api.POST("/scores/:id/approve", controllers.ApproveScore)

		api.GET("/settings/bonus", controllers.GetBonusSettings)
		api.PUT("/settings/bonus", middleware.RequireScope(middleware.ScopeWriteSettings), controllers.UpdateBonusSettings)

		api.GET("/inventory", controllers.ListInventory)
		api.POST("/inventory", controllers.CreateInventoryItem)
		api.POST("/inventory/sync", controllers.SyncInventory)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Accept-Language")
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.MaxAge = 12 * time.Hour
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}
