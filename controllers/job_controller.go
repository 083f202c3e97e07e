package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/utils"
	"github.com/kendall-kelly/fieldservice-api/validation"
)

// CreateJobRequest represents the request body for creating a job
type CreateJobRequest struct {
	Title      string     `json:"title" binding:"required,min=1,max=200"`
	ClientID   uint       `json:"client_id" binding:"required"`
	PropertyID *uint      `json:"property_id"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

// CreateJob handles POST /api/v1/jobs - creates a new job in status "offen" (admin and office only)
func CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can create jobs", models.RoleAdmin, models.RoleOffice) {
		return
	}

	if !validDateRange(c, req.StartDate, req.EndDate) {
		return
	}

	db := config.GetDB()
	var client models.Client
	if err := db.First(&client, req.ClientID).Error; err != nil {
		respondError(c, http.StatusBadRequest, "CLIENT_NOT_FOUND", "Client not found")
		return
	}

	if req.PropertyID != nil {
		var property models.Property
		if err := db.Where("id = ? AND client_id = ?", *req.PropertyID, client.ID).First(&property).Error; err != nil {
			respondError(c, http.StatusBadRequest, "PROPERTY_NOT_FOUND", "Property not found for this client")
			return
		}
	}

	job := models.Job{
		Title:      req.Title,
		Status:     models.StatusOpen,
		ClientID:   client.ID,
		PropertyID: req.PropertyID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}

	if err := db.Create(&job).Error; err != nil {
		if utils.IsForeignKeyViolation(err) {
			respondError(c, http.StatusConflict, "REFERENCE_GONE", "A referenced record was deleted in the meantime")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create job")
		return
	}

	if err := db.Preload("Client").Preload("Property").First(&job, job.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load job")
		return
	}

	respondData(c, http.StatusCreated, job)
}

// ListJobs handles GET /api/v1/jobs - lists jobs visible to the current user
// Optional query parameters: status, client_id
// Monteurs only see jobs with an appointment they are assigned to.
func ListJobs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := config.GetDB().Preload("Client").Preload("Property").Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		if _, err := models.ParseStatus(status); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_STATUS", err.Error())
			return
		}
		query = query.Where("status = ?", status)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	if !user.IsStaff() {
		query = query.Where("id IN (?)", config.GetDB().
			Table("appointments").
			Select("appointments.job_id").
			Joins("JOIN appointment_crew ON appointment_crew.appointment_id = appointments.id").
			Where("appointment_crew.user_id = ? AND appointments.deleted_at IS NULL", user.ID))
	}

	var jobs []models.Job
	if err := query.Find(&jobs).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch jobs")
		return
	}

	respondData(c, http.StatusOK, jobs)
}

// GetJob handles GET /api/v1/jobs/:id - returns a job with its appointments
func GetJob(c *gin.Context) {
	user, job, ok := jobForRequest(c)
	if !ok {
		return
	}
	if !canViewJob(user, job) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to view this job")
		return
	}

	respondData(c, http.StatusOK, job)
}

// UpdateJobStatus handles PATCH /api/v1/jobs/:id/status - moves a job one step (admin and office only)
// Moving forward into "vorbereitet" or beyond requires every appointment to be ready.
func UpdateJobStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, job, ok := jobForRequest(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can change job status", models.RoleAdmin, models.RoleOffice) {
		return
	}

	docs, err := documentsFor(config.GetDB(), appointmentIDs(job)...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch documents")
		return
	}

	status, ok := changeStatus(c, &models.Job{}, job.ID, job.Status, req.Status, func() validation.Result {
		return validation.ValidateJob(job, docs)
	})
	if !ok {
		return
	}

	job.Status = status
	respondData(c, http.StatusOK, job)
}

// GetJobValidation handles GET /api/v1/jobs/:id/validation - live readiness of a job
func GetJobValidation(c *gin.Context) {
	user, job, ok := jobForRequest(c)
	if !ok {
		return
	}
	if !canViewJob(user, job) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to view this job")
		return
	}

	docs, err := documentsFor(config.GetDB(), appointmentIDs(job)...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch documents")
		return
	}

	respondData(c, http.StatusOK, validationReport(c, job.Status, func() validation.Result {
		return validation.ValidateJob(job, docs)
	}))
}

// ListJobDocuments handles GET /api/v1/jobs/:id/documents - documents of all appointments of the job
func ListJobDocuments(c *gin.Context) {
	user, job, ok := jobForRequest(c)
	if !ok {
		return
	}
	if !canViewJob(user, job) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to view this job")
		return
	}

	docs, err := documentsFor(config.GetDB(), appointmentIDs(job)...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch documents")
		return
	}

	attachURLs(c.Request.Context(), docs)
	respondData(c, http.StatusOK, docs)
}

// jobForRequest loads the current user and the job named by :id
func jobForRequest(c *gin.Context) (models.User, models.Job, bool) {
	user, ok := currentUser(c)
	if !ok {
		return models.User{}, models.Job{}, false
	}

	jobID, ok := idParam(c, "id")
	if !ok {
		return models.User{}, models.Job{}, false
	}

	job, err := loadJob(config.GetDB(), jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found")
		return models.User{}, models.Job{}, false
	}

	return user, job, true
}

// validDateRange rejects an end date before the start date
func validDateRange(c *gin.Context, start, end *time.Time) bool {
	if start != nil && end != nil && end.Before(*start) {
		respondError(c, http.StatusBadRequest, "INVALID_DATE_RANGE", "End date must not be before start date")
		return false
	}
	return true
}
