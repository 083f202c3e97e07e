package validation

import (
	"fmt"
	"strings"
)

// Renderer turns a structured warning into a human-readable message.
type Renderer interface {
	Render(w Warning) string
}

// German renders warnings in German. It is the default for the UI.
type German struct{}

// Render implements Renderer.
func (German) Render(w Warning) string {
	var msg string
	switch w.Kind {
	case KindMissingDates:
		msg = "Start- und Enddatum müssen gesetzt sein"
	case KindNoCrew:
		msg = "Mindestens ein Monteur muss zugewiesen sein"
	case KindMissingDocument:
		msg = fmt.Sprintf("Pflichtdokument fehlt: %s", nameOr(w.DocumentTypeName, "Unbekannt"))
	case KindMissingFields:
		msg = fmt.Sprintf("Pflichtfelder nicht ausgefüllt: %s", strings.Join(w.FieldLabels, ", "))
	case KindNoChecklist:
		msg = "Mindestens eine Checkliste muss angehängt sein"
	default:
		msg = string(w.Kind)
	}
	if w.AppointmentTitle != "" {
		return fmt.Sprintf("Termin %q: %s", w.AppointmentTitle, msg)
	}
	return msg
}

// English renders warnings in English.
type English struct{}

// Render implements Renderer.
func (English) Render(w Warning) string {
	var msg string
	switch w.Kind {
	case KindMissingDates:
		msg = "Start and end date must be set"
	case KindNoCrew:
		msg = "At least one crew member must be assigned"
	case KindMissingDocument:
		msg = fmt.Sprintf("Required document missing: %s", nameOr(w.DocumentTypeName, "Unknown"))
	case KindMissingFields:
		msg = fmt.Sprintf("Required fields not filled: %s", strings.Join(w.FieldLabels, ", "))
	case KindNoChecklist:
		msg = "At least one checklist must be attached"
	default:
		msg = string(w.Kind)
	}
	if w.AppointmentTitle != "" {
		return fmt.Sprintf("Appointment %q: %s", w.AppointmentTitle, msg)
	}
	return msg
}

// RendererFor picks a renderer from an Accept-Language style tag.
func RendererFor(lang string) Renderer {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "en") {
		return English{}
	}
	return German{}
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
