package controllers

import (
	"context"
	"log"

	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/services"
	"gorm.io/gorm"
)

// appointmentAggregate preloads everything the validator looks at
func appointmentAggregate(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Preload(prefix+"Crew").
		Preload(prefix+"Checklists").
		Preload(prefix+"AppointmentType.Fields", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload(prefix + "AppointmentType.DocumentRequirements.DocumentType")
}

func loadAppointment(db *gorm.DB, id uint) (models.Appointment, error) {
	var appt models.Appointment
	err := appointmentAggregate(db, "").Preload("Notes.Author").First(&appt, id).Error
	return appt, err
}

func loadJob(db *gorm.DB, id uint) (models.Job, error) {
	var job models.Job
	err := appointmentAggregate(db, "Appointments.").
		Preload("Client").
		Preload("Property").
		Preload("Appointments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("start_date ASC, id ASC")
		}).
		First(&job, id).Error
	return job, err
}

// documentsFor returns the documents uploaded to any of the appointments
func documentsFor(db *gorm.DB, appointmentIDs ...uint) ([]models.Document, error) {
	docs := []models.Document{}
	if len(appointmentIDs) == 0 {
		return docs, nil
	}
	err := db.Preload("DocumentType").
		Where("appointment_id IN ?", appointmentIDs).
		Order("created_at ASC, id ASC").
		Find(&docs).Error
	return docs, err
}

func appointmentIDs(job models.Job) []uint {
	ids := make([]uint, len(job.Appointments))
	for i, appt := range job.Appointments {
		ids[i] = appt.ID
	}
	return ids
}

// canViewAppointment reports whether user may read appt. Staff see
// everything, monteurs only appointments they are assigned to.
func canViewAppointment(user models.User, appt models.Appointment) bool {
	return user.IsStaff() || appt.HasCrewMember(user.ID)
}

// canViewJob reports whether user may read job
func canViewJob(user models.User, job models.Job) bool {
	if user.IsStaff() {
		return true
	}
	for _, appt := range job.Appointments {
		if appt.HasCrewMember(user.ID) {
			return true
		}
	}
	return false
}

// attachURLs fills in the download URL of each document
func attachURLs(ctx context.Context, docs []models.Document) {
	storage := services.GetDocumentService()
	if storage == nil {
		return
	}
	for i := range docs {
		url, err := storage.URL(ctx, docs[i].StorageKey)
		if err != nil {
			log.Printf("Failed to build URL for document %d: %v", docs[i].ID, err)
			continue
		}
		if url != "" {
			docs[i].URL = &url
		}
	}
}
