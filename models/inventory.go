package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is a stock item kept in the warehouse or a vehicle
type InventoryItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SKU             string          `gorm:"uniqueIndex;not null" json:"sku"`
	Name            string          `gorm:"not null" json:"name"`
	Unit            string          `gorm:"not null;default:'Stk'" json:"unit"`
	Location        *string         `json:"location"`
	Quantity        decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	MinQuantity     decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"min_quantity"`
	ClientUpdatedAt *time.Time      `json:"client_updated_at"` // timestamp of the last applied offline edit
	UpdatedByID     *uint           `json:"updated_by_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the InventoryItem model
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// BelowMinimum reports whether the stock has fallen under its reorder level.
func (i InventoryItem) BelowMinimum() bool {
	return i.Quantity.LessThan(i.MinQuantity)
}

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&Property{},
		&DocumentType{},
		&AppointmentType{},
		&FieldDefinition{},
		&DocumentRequirement{},
		&Job{},
		&Appointment{},
		&Checklist{},
		&Note{},
		&Document{},
		&ScoreEntry{},
		&BonusSettings{},
		&InventoryItem{},
	}
}
