package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/utils"
	"github.com/kendall-kelly/fieldservice-api/validation"
	"gorm.io/datatypes"
)

// CreateAppointmentRequest represents the request body for adding an appointment to a job
type CreateAppointmentRequest struct {
	Title             string     `json:"title" binding:"required,min=1,max=200"`
	AppointmentTypeID *uint      `json:"appointment_type_id"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	CrewIDs           []uint     `json:"crew_ids"`
}

// UpdateAppointmentRequest represents the request body for editing an appointment.
// Absent fields are left unchanged; ClearDates removes both dates.
type UpdateAppointmentRequest struct {
	Title             *string    `json:"title" binding:"omitempty,min=1,max=200"`
	AppointmentTypeID *uint      `json:"appointment_type_id"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	ClearDates        bool       `json:"clear_dates"`
}

// AssignCrewRequest represents the request body for replacing the crew of an appointment
type AssignCrewRequest struct {
	UserIDs []uint `json:"user_ids"`
}

// UpdateFieldValuesRequest sets custom field values keyed by field definition ID.
// A null value clears the field.
type UpdateFieldValuesRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}

// CreateAppointment handles POST /api/v1/jobs/:id/appointments (admin and office only)
func CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can create appointments", models.RoleAdmin, models.RoleOffice) {
		return
	}

	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if !validDateRange(c, req.StartDate, req.EndDate) {
		return
	}

	db := config.GetDB()
	var job models.Job
	if err := db.First(&job, jobID).Error; err != nil {
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found")
		return
	}

	if req.AppointmentTypeID != nil && !appointmentTypeExists(c, *req.AppointmentTypeID) {
		return
	}

	crew, ok := loadCrew(c, req.CrewIDs)
	if !ok {
		return
	}

	appt := models.Appointment{
		JobID:             job.ID,
		Title:             req.Title,
		Status:            models.StatusOpen,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		AppointmentTypeID: req.AppointmentTypeID,
		FieldValues:       datatypes.JSONMap{},
		Crew:              crew,
	}

	if err := db.Create(&appt).Error; err != nil {
		if utils.IsForeignKeyViolation(err) {
			respondError(c, http.StatusConflict, "REFERENCE_GONE", "A referenced record was deleted in the meantime")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create appointment")
		return
	}

	created, err := loadAppointment(db, appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load appointment")
		return
	}

	respondData(c, http.StatusCreated, created)
}

// GetAppointment handles GET /api/v1/appointments/:id
func GetAppointment(c *gin.Context) {
	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to view this appointment")
		return
	}

	respondData(c, http.StatusOK, appt)
}

// UpdateAppointment handles PATCH /api/v1/appointments/:id (admin and office only)
func UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can edit appointments", models.RoleAdmin, models.RoleOffice) {
		return
	}

	updates := make(map[string]interface{})
	start, end := appt.StartDate, appt.EndDate
	if req.ClearDates {
		start, end = nil, nil
		updates["start_date"] = nil
		updates["end_date"] = nil
	} else {
		if req.StartDate != nil {
			start = req.StartDate
			updates["start_date"] = req.StartDate
		}
		if req.EndDate != nil {
			end = req.EndDate
			updates["end_date"] = req.EndDate
		}
	}
	if !validDateRange(c, start, end) {
		return
	}

	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.AppointmentTypeID != nil {
		if !appointmentTypeExists(c, *req.AppointmentTypeID) {
			return
		}
		updates["appointment_type_id"] = *req.AppointmentTypeID
	}

	db := config.GetDB()
	if len(updates) > 0 {
		if err := db.Model(&models.Appointment{}).Where("id = ?", appt.ID).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update appointment")
			return
		}
	}

	updated, err := loadAppointment(db, appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load appointment")
		return
	}

	respondData(c, http.StatusOK, updated)
}

// AssignCrew handles PUT /api/v1/appointments/:id/crew - replaces the assigned crew (admin and office only)
func AssignCrew(c *gin.Context) {
	var req AssignCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can assign crews", models.RoleAdmin, models.RoleOffice) {
		return
	}

	crew, ok := loadCrew(c, req.UserIDs)
	if !ok {
		return
	}

	db := config.GetDB()
	if err := db.Model(&appt).Association("Crew").Replace(crew); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to assign crew")
		return
	}

	updated, err := loadAppointment(db, appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load appointment")
		return
	}

	respondData(c, http.StatusOK, updated)
}

// UpdateFieldValues handles PUT /api/v1/appointments/:id/fields - merges custom field values
// Staff and the assigned crew may fill in fields.
func UpdateFieldValues(c *gin.Context) {
	var req UpdateFieldValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to edit this appointment")
		return
	}

	if appt.AppointmentType == nil {
		respondError(c, http.StatusBadRequest, "NO_APPOINTMENT_TYPE", "Appointment has no type, so it has no custom fields")
		return
	}

	definitions := make(map[string]models.FieldDefinition, len(appt.AppointmentType.Fields))
	for _, def := range appt.AppointmentType.Fields {
		definitions[def.ValueKey()] = def
	}

	values := datatypes.JSONMap{}
	for k, v := range appt.FieldValues {
		values[k] = v
	}

	for key, value := range req.Values {
		def, exists := definitions[key]
		if !exists {
			respondError(c, http.StatusBadRequest, "UNKNOWN_FIELD", fmt.Sprintf("Field %s does not belong to this appointment type", key))
			return
		}
		if value == nil {
			delete(values, key)
			continue
		}
		if err := checkFieldValue(def, value); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_FIELD_VALUE", err.Error())
			return
		}
		values[key] = value
	}

	db := config.GetDB()
	if err := db.Model(&models.Appointment{}).Where("id = ?", appt.ID).Update("field_values", values).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save field values")
		return
	}

	updated, err := loadAppointment(db, appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load appointment")
		return
	}

	respondData(c, http.StatusOK, updated)
}

// UpdateAppointmentStatus handles PATCH /api/v1/appointments/:id/status - moves an appointment one step
// Staff and the assigned crew may change the status.
func UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to change this appointment")
		return
	}

	docs, err := documentsFor(config.GetDB(), appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch documents")
		return
	}

	status, ok := changeStatus(c, &models.Appointment{}, appt.ID, appt.Status, req.Status, func() validation.Result {
		return validation.ValidateAppointment(appt, docs)
	})
	if !ok {
		return
	}

	appt.Status = status
	respondData(c, http.StatusOK, appt)
}

// GetAppointmentValidation handles GET /api/v1/appointments/:id/validation - live readiness
func GetAppointmentValidation(c *gin.Context) {
	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to view this appointment")
		return
	}

	docs, err := documentsFor(config.GetDB(), appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch documents")
		return
	}

	respondData(c, http.StatusOK, validationReport(c, appt.Status, func() validation.Result {
		return validation.ValidateAppointment(appt, docs)
	}))
}

// appointmentForRequest loads the current user and the appointment named by :id
func appointmentForRequest(c *gin.Context) (models.User, models.Appointment, bool) {
	user, ok := currentUser(c)
	if !ok {
		return models.User{}, models.Appointment{}, false
	}

	apptID, ok := idParam(c, "id")
	if !ok {
		return models.User{}, models.Appointment{}, false
	}

	appt, err := loadAppointment(config.GetDB(), apptID)
	if err != nil {
		respondError(c, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "Appointment not found")
		return models.User{}, models.Appointment{}, false
	}

	return user, appt, true
}

func appointmentTypeExists(c *gin.Context, id uint) bool {
	var apptType models.AppointmentType
	if err := config.GetDB().First(&apptType, id).Error; err != nil {
		respondError(c, http.StatusBadRequest, "APPOINTMENT_TYPE_NOT_FOUND", "Appointment type not found")
		return false
	}
	return true
}

// loadCrew fetches the users with the given IDs, rejecting unknown IDs
func loadCrew(c *gin.Context, ids []uint) ([]models.User, bool) {
	ids = uniqueIDs(ids)
	crew := []models.User{}
	if len(ids) == 0 {
		return crew, true
	}
	if err := config.GetDB().Where("id IN ?", ids).Find(&crew).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch crew members")
		return nil, false
	}
	if len(crew) != len(ids) {
		respondError(c, http.StatusBadRequest, "USER_NOT_FOUND", "One or more crew members do not exist")
		return nil, false
	}
	return crew, true
}

// checkFieldValue verifies that value fits the kind of def
func checkFieldValue(def models.FieldDefinition, value interface{}) error {
	switch def.Kind {
	case models.FieldKindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q expects true or false", def.Label)
		}
	case models.FieldKindDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q expects a date", def.Label)
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("field %q expects a date in YYYY-MM-DD format", def.Label)
		}
	case models.FieldKindDropdown:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q expects one of its options", def.Label)
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		var options []string
		if len(def.Options) > 0 {
			if err := json.Unmarshal(def.Options, &options); err != nil {
				return fmt.Errorf("field %q has invalid options: %w", def.Label, err)
			}
		}
		for _, option := range options {
			if option == s {
				return nil
			}
		}
		return fmt.Errorf("field %q does not offer option %q", def.Label, s)
	default:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q expects text", def.Label)
		}
	}
	return nil
}
