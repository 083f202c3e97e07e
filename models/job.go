package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job is an order for a client at a property, carried out in one or more appointments
type Job struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Status       Status         `gorm:"type:varchar(32);not null;default:'offen'" json:"status"`
	StartDate    *time.Time     `json:"start_date"`
	EndDate      *time.Time     `json:"end_date"`
	ClientID     uint           `gorm:"not null;index" json:"client_id"`
	Client       Client         `gorm:"foreignKey:ClientID" json:"client"`
	PropertyID   *uint          `gorm:"index" json:"property_id"`
	Property     *Property      `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Appointments []Appointment  `gorm:"foreignKey:JobID" json:"appointments,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}

// Appointment is a single scheduled visit within a job
type Appointment struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	JobID             uint              `gorm:"not null;index" json:"job_id"`
	Title             string            `gorm:"not null" json:"title"`
	Status            Status            `gorm:"type:varchar(32);not null;default:'offen'" json:"status"`
	StartDate         *time.Time        `json:"start_date"`
	EndDate           *time.Time        `json:"end_date"`
	AppointmentTypeID *uint             `gorm:"index" json:"appointment_type_id"`
	AppointmentType   *AppointmentType  `gorm:"foreignKey:AppointmentTypeID" json:"appointment_type,omitempty"`
	FieldValues       datatypes.JSONMap `json:"field_values"`
	Crew              []User            `gorm:"many2many:appointment_crew;" json:"crew"`
	Checklists        []Checklist       `gorm:"foreignKey:AppointmentID" json:"checklists,omitempty"`
	Notes             []Note            `gorm:"foreignKey:AppointmentID" json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// HasCrewMember reports whether userID is assigned to the appointment.
func (a Appointment) HasCrewMember(userID uint) bool {
	for _, member := range a.Crew {
		if member.ID == userID {
			return true
		}
	}
	return false
}

// Checklist is a checklist attached to an appointment
type Checklist struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppointmentID uint           `gorm:"not null;index" json:"appointment_id"`
	Title         string         `gorm:"not null" json:"title"`
	Items         datatypes.JSON `json:"items"` // JSON array of {"label","done"}
	CreatedByID   uint           `gorm:"not null" json:"created_by_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Checklist model
func (Checklist) TableName() string {
	return "checklists"
}

// Note is a free-text note left on an appointment
type Note struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppointmentID uint           `gorm:"not null;index" json:"appointment_id"`
	AuthorID      uint           `gorm:"not null;index" json:"author_id"`
	Author        User           `gorm:"foreignKey:AuthorID" json:"author"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Note model
func (Note) TableName() string {
	return "notes"
}
