package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Field kinds for custom appointment fields
const (
	FieldKindText     = "text"
	FieldKindBoolean  = "boolean"
	FieldKindDate     = "date"
	FieldKindDropdown = "dropdown"
)

// DocumentType is a category of required paperwork (e.g. "Abnahmeprotokoll")
type DocumentType struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DocumentType model
func (DocumentType) TableName() string {
	return "document_types"
}

// AppointmentType describes a kind of visit together with the custom
// fields and documents it requires.
type AppointmentType struct {
	ID                   uint                  `gorm:"primaryKey" json:"id"`
	Name                 string                `gorm:"uniqueIndex;not null" json:"name"`
	Fields               []FieldDefinition     `gorm:"foreignKey:AppointmentTypeID" json:"fields"`
	DocumentRequirements []DocumentRequirement `gorm:"foreignKey:AppointmentTypeID" json:"document_requirements"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	DeletedAt            gorm.DeletedAt        `gorm:"index" json:"-"`
}

// TableName specifies the table name for the AppointmentType model
func (AppointmentType) TableName() string {
	return "appointment_types"
}

// FieldDefinition is a custom field shown on appointments of a type
type FieldDefinition struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	AppointmentTypeID uint           `gorm:"not null;index" json:"appointment_type_id"`
	Label             string         `gorm:"not null" json:"label"`
	Kind              string         `gorm:"not null;default:'text'" json:"kind"`
	Required          bool           `gorm:"not null;default:false" json:"required"`
	Options           datatypes.JSON `json:"options,omitempty"` // dropdown choices, JSON array of strings
	Position          int            `gorm:"not null;default:0" json:"position"`
}

// TableName specifies the table name for the FieldDefinition model
func (FieldDefinition) TableName() string {
	return "field_definitions"
}

// ValueKey is the key under which the field's value is stored in
// Appointment.FieldValues.
func (f FieldDefinition) ValueKey() string {
	return strconv.FormatUint(uint64(f.ID), 10)
}

// DocumentRequirement links an appointment type to a document type it needs
type DocumentRequirement struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	AppointmentTypeID uint         `gorm:"not null;uniqueIndex:idx_requirement_type_doc" json:"appointment_type_id"`
	DocumentTypeID    uint         `gorm:"not null;uniqueIndex:idx_requirement_type_doc" json:"document_type_id"`
	DocumentType      DocumentType `gorm:"foreignKey:DocumentTypeID" json:"document_type"`
}

// TableName specifies the table name for the DocumentRequirement model
func (DocumentRequirement) TableName() string {
	return "document_requirements"
}

// ValidFieldKind reports whether kind is a supported custom field kind.
func ValidFieldKind(kind string) bool {
	switch kind {
	case FieldKindText, FieldKindBoolean, FieldKindDate, FieldKindDropdown:
		return true
	}
	return false
}
