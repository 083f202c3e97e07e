package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
)

// CreateNoteRequest represents the request body for leaving a note on an appointment
type CreateNoteRequest struct {
	Text string `json:"text" binding:"required,min=1,max=5000"`
}

// CreateNote handles POST /api/v1/appointments/:id/notes - leaves a note on an appointment
// Staff and the assigned crew may write notes.
func CreateNote(c *gin.Context) {
	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to write notes on this appointment")
		return
	}

	note := models.Note{
		AppointmentID: appt.ID,
		AuthorID:      user.ID,
		Text:          req.Text,
	}

	db := config.GetDB()
	if err := db.Create(&note).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create note")
		return
	}

	// Load the author relationship to return complete data
	if err := db.Preload("Author").First(&note, note.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load note details")
		return
	}

	respondData(c, http.StatusCreated, note)
}

// ListNotes handles GET /api/v1/appointments/:id/notes - notes in chronological order
func ListNotes(c *gin.Context) {
	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view notes on this appointment")
		return
	}

	var notes []models.Note
	if err := config.GetDB().
		Preload("Author").
		Where("appointment_id = ?", appt.ID).
		Order("created_at ASC, id ASC").
		Find(&notes).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch notes")
		return
	}

	respondData(c, http.StatusOK, notes)
}
