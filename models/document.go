package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is an uploaded file that satisfies a document type for an appointment
type Document struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	AppointmentID  uint           `gorm:"not null;index" json:"appointment_id"`
	DocumentTypeID uint           `gorm:"not null;index" json:"document_type_id"`
	DocumentType   DocumentType   `gorm:"foreignKey:DocumentTypeID" json:"document_type"`
	FileName       string         `gorm:"not null" json:"file_name"`
	StorageKey     string         `gorm:"not null" json:"storage_key"`
	ContentType    string         `gorm:"not null" json:"content_type"`
	Size           int64          `gorm:"not null" json:"size"`
	URL            *string        `gorm:"-" json:"url,omitempty"` // computed, storage URL for download
	UploadedByID   uint           `gorm:"not null;index" json:"uploaded_by_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Document model
func (Document) TableName() string {
	return "documents"
}
