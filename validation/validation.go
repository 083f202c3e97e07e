// Package validation decides whether a job or appointment is ready to move
// into the "vorbereitet" status or beyond.
//
// Validation is always derived from the current data and never cached, so
// documents or fields that change after a transition show up immediately.
// The validators never fail: missing nested data means "nothing required".
package validation

import (
	"fmt"
	"strings"

	"github.com/kendall-kelly/fieldservice-api/models"
)

// Kind identifies which precondition a warning is about.
type Kind string

const (
	KindMissingDates    Kind = "missing_dates"
	KindNoCrew          Kind = "no_crew"
	KindMissingDocument Kind = "missing_document"
	KindMissingFields   Kind = "missing_fields"
	KindNoChecklist     Kind = "no_checklist"
)

// Warning is a single unmet precondition. Rendering to text is left to a Renderer.
type Warning struct {
	Kind             Kind     `json:"kind"`
	AppointmentID    uint     `json:"appointment_id,omitempty"`
	AppointmentTitle string   `json:"appointment_title,omitempty"`
	DocumentTypeID   uint     `json:"document_type_id,omitempty"`
	DocumentTypeName string   `json:"document_type_name,omitempty"`
	FieldLabels      []string `json:"field_labels,omitempty"`
}

// Result is the outcome of a validation run. Valid is true iff there are no warnings.
type Result struct {
	Valid    bool      `json:"valid"`
	Warnings []Warning `json:"warnings"`
}

// Messages renders every warning in order.
func (r Result) Messages(renderer Renderer) []string {
	messages := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		messages = append(messages, renderer.Render(w))
	}
	return messages
}

func newResult(warnings []Warning) Result {
	if warnings == nil {
		warnings = []Warning{}
	}
	return Result{Valid: len(warnings) == 0, Warnings: warnings}
}

// ValidateAppointment checks a single appointment against its type's
// requirements. docs are the documents uploaded for the appointment.
func ValidateAppointment(appt models.Appointment, docs []models.Document) Result {
	var warnings []Warning
	if appt.StartDate == nil || appt.EndDate == nil {
		warnings = append(warnings, Warning{Kind: KindMissingDates})
	}
	warnings = append(warnings, appointmentWarnings(appt, uploadedTypes(docs), false)...)
	return newResult(warnings)
}

// ValidateJob checks a job and all of its appointments. The date pair is
// checked once on the job itself. A job without appointments has no crew
// and no checklist. docs are the documents uploaded across
// all of the job's appointments; a document satisfies a requirement no
// matter which appointment it was uploaded to.
func ValidateJob(job models.Job, docs []models.Document) Result {
	var warnings []Warning
	if job.StartDate == nil || job.EndDate == nil {
		warnings = append(warnings, Warning{Kind: KindMissingDates})
	}
	if len(job.Appointments) == 0 {
		warnings = append(warnings, Warning{Kind: KindNoCrew}, Warning{Kind: KindNoChecklist})
	}
	uploaded := uploadedTypes(docs)
	for _, appt := range job.Appointments {
		warnings = append(warnings, appointmentWarnings(appt, uploaded, true)...)
	}
	return newResult(warnings)
}

// appointmentWarnings evaluates every rule except the date pair.
func appointmentWarnings(appt models.Appointment, uploaded map[uint]bool, withContext bool) []Warning {
	var warnings []Warning
	add := func(w Warning) {
		if withContext {
			w.AppointmentID = appt.ID
			w.AppointmentTitle = appt.Title
		}
		warnings = append(warnings, w)
	}

	if len(appt.Crew) == 0 {
		add(Warning{Kind: KindNoCrew})
	}

	var fields []models.FieldDefinition
	var requirements []models.DocumentRequirement
	if appt.AppointmentType != nil {
		fields = appt.AppointmentType.Fields
		requirements = appt.AppointmentType.DocumentRequirements
	}

	for _, req := range requirements {
		if !uploaded[req.DocumentTypeID] {
			add(Warning{
				Kind:             KindMissingDocument,
				DocumentTypeID:   req.DocumentTypeID,
				DocumentTypeName: req.DocumentType.Name,
			})
		}
	}

	var missing []string
	for _, field := range fields {
		if field.Required && !isFilled(appt.FieldValues[field.ValueKey()]) {
			missing = append(missing, field.Label)
		}
	}
	if len(missing) > 0 {
		add(Warning{Kind: KindMissingFields, FieldLabels: missing})
	}

	if len(appt.Checklists) == 0 {
		add(Warning{Kind: KindNoChecklist})
	}

	return warnings
}

func uploadedTypes(docs []models.Document) map[uint]bool {
	uploaded := make(map[uint]bool, len(docs))
	for _, doc := range docs {
		uploaded[doc.DocumentTypeID] = true
	}
	return uploaded
}

// isFilled reports whether a field value is present and not blank.
func isFilled(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return strings.TrimSpace(fmt.Sprint(v)) != ""
	}
}
