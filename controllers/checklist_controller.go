package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"gorm.io/datatypes"
)

// ChecklistItem is one line of a checklist
type ChecklistItem struct {
	Label string `json:"label" binding:"required,max=200"`
	Done  bool   `json:"done"`
}

// CreateChecklistRequest represents the request body for attaching a checklist
type CreateChecklistRequest struct {
	Title string          `json:"title" binding:"required,min=1,max=200"`
	Items []ChecklistItem `json:"items" binding:"dive"`
}

// CreateChecklist handles POST /api/v1/appointments/:id/checklists - attaches a checklist
// Staff and the assigned crew may attach checklists.
func CreateChecklist(c *gin.Context) {
	var req CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to edit this appointment")
		return
	}

	items := req.Items
	if items == nil {
		items = []ChecklistItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid checklist items")
		return
	}

	checklist := models.Checklist{
		AppointmentID: appt.ID,
		Title:         req.Title,
		Items:         datatypes.JSON(encoded),
		CreatedByID:   user.ID,
	}

	if err := config.GetDB().Create(&checklist).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create checklist")
		return
	}

	respondData(c, http.StatusCreated, checklist)
}

// ListChecklists handles GET /api/v1/appointments/:id/checklists
func ListChecklists(c *gin.Context) {
	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this appointment")
		return
	}

	checklists := appt.Checklists
	if checklists == nil {
		checklists = []models.Checklist{}
	}
	respondData(c, http.StatusOK, checklists)
}
