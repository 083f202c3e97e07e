package controllers

import (
	"testing"
	"time"

	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// jobFixture is a job for one client with a single appointment whose type
// requires the field "Zählerstand" and the document "Abnahmeprotokoll"
type jobFixture struct {
	office   models.User
	monteur  models.User
	client   models.Client
	docType  models.DocumentType
	apptType models.AppointmentType
	field    models.FieldDefinition
	job      models.Job
	appt     models.Appointment
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newJobFixture(t *testing.T, db *gorm.DB) jobFixture {
	t.Helper()

	f := jobFixture{
		office:  createTestUser(t, db, "office", models.RoleOffice),
		monteur: createTestUser(t, db, "monteur", models.RoleMonteur),
	}

	f.client = models.Client{Name: "Hausverwaltung Müller"}
	require.NoError(t, db.Create(&f.client).Error)

	f.docType = models.DocumentType{Name: "Abnahmeprotokoll"}
	require.NoError(t, db.Create(&f.docType).Error)

	f.apptType = models.AppointmentType{Name: "Wartung"}
	require.NoError(t, db.Create(&f.apptType).Error)

	f.field = models.FieldDefinition{
		AppointmentTypeID: f.apptType.ID,
		Label:             "Zählerstand",
		Kind:              models.FieldKindText,
		Required:          true,
	}
	require.NoError(t, db.Create(&f.field).Error)
	require.NoError(t, db.Create(&models.FieldDefinition{
		AppointmentTypeID: f.apptType.ID,
		Label:             "Bemerkung",
		Kind:              models.FieldKindText,
		Position:          1,
	}).Error)
	require.NoError(t, db.Create(&models.DocumentRequirement{
		AppointmentTypeID: f.apptType.ID,
		DocumentTypeID:    f.docType.ID,
	}).Error)

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f.job = models.Job{
		Title:     "Heizungswartung",
		Status:    models.StatusPlanned,
		ClientID:  f.client.ID,
		StartDate: timePtr(start),
		EndDate:   timePtr(start.Add(48 * time.Hour)),
	}
	require.NoError(t, db.Create(&f.job).Error)

	f.appt = f.addAppointment(t, db, "Erstbegehung")
	return f
}

// addAppointment adds an appointment in status "geplant" without dates,
// crew, field values or checklists
func (f jobFixture) addAppointment(t *testing.T, db *gorm.DB, title string) models.Appointment {
	t.Helper()

	appt := models.Appointment{
		JobID:             f.job.ID,
		Title:             title,
		Status:            models.StatusPlanned,
		AppointmentTypeID: &f.apptType.ID,
		FieldValues:       datatypes.JSONMap{},
	}
	require.NoError(t, db.Create(&appt).Error)
	return appt
}

// completeAppointment fills in everything except documents
func (f jobFixture) completeAppointment(t *testing.T, db *gorm.DB, appt models.Appointment) {
	t.Helper()

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&models.Appointment{}).Where("id = ?", appt.ID).Updates(map[string]interface{}{
		"start_date":   start,
		"end_date":     start.Add(4 * time.Hour),
		"field_values": datatypes.JSONMap{f.field.ValueKey(): "12345"},
	}).Error)
	require.NoError(t, db.Model(&appt).Association("Crew").Append(&f.monteur))
	require.NoError(t, db.Create(&models.Checklist{
		AppointmentID: appt.ID,
		Title:         "Sicherheit",
		Items:         datatypes.JSON(`[{"label":"Gas abgestellt","done":true}]`),
		CreatedByID:   f.office.ID,
	}).Error)
}

// uploadDocumentRecord stores a document row without a file behind it
func (f jobFixture) uploadDocumentRecord(t *testing.T, db *gorm.DB, appt models.Appointment) models.Document {
	t.Helper()

	doc := models.Document{
		AppointmentID:  appt.ID,
		DocumentTypeID: f.docType.ID,
		FileName:       "protokoll.pdf",
		StorageKey:     "documents/" + itoa(appt.ID) + "/protokoll.pdf",
		ContentType:    "application/pdf",
		Size:           1024,
		UploadedByID:   f.monteur.ID,
	}
	require.NoError(t, db.Create(&doc).Error)
	return doc
}
