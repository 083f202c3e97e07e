package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is a customer of the field-service business
type Client struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Email      *string        `json:"email"`
	Phone      *string        `json:"phone"`
	Properties []Property     `gorm:"foreignKey:ClientID" json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// Property is a site belonging to a client where work is carried out
type Property struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ClientID   uint           `gorm:"not null;index" json:"client_id"`
	Street     string         `gorm:"not null" json:"street"`
	PostalCode string         `gorm:"not null" json:"postal_code"`
	City       string         `gorm:"not null" json:"city"`
	Notes      *string        `json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Property model
func (Property) TableName() string {
	return "properties"
}
