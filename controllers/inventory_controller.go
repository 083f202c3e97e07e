package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/syncqueue"
	"github.com/kendall-kelly/fieldservice-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateInventoryItemRequest represents the request body for adding a stock item
type CreateInventoryItemRequest struct {
	SKU         string          `json:"sku" binding:"required,max=64"`
	Name        string          `json:"name" binding:"required,max=200"`
	Unit        string          `json:"unit" binding:"omitempty,max=20"`
	Location    *string         `json:"location"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// ListInventory handles GET /api/v1/inventory
// Optional query parameters: below_minimum=true, location
func ListInventory(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	query := config.GetDB().Order("name ASC")
	if c.Query("below_minimum") == "true" {
		query = query.Where("quantity < min_quantity")
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location = ?", location)
	}

	var items []models.InventoryItem
	if err := query.Find(&items).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch inventory")
		return
	}

	respondData(c, http.StatusOK, items)
}

// CreateInventoryItem handles POST /api/v1/inventory (admin and office only)
func CreateInventoryItem(c *gin.Context) {
	var req CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can add inventory items", models.RoleAdmin, models.RoleOffice) {
		return
	}

	if req.Quantity.IsNegative() || req.MinQuantity.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Quantities must not be negative")
		return
	}

	unit := req.Unit
	if unit == "" {
		unit = "Stk"
	}

	item := models.InventoryItem{
		SKU:         req.SKU,
		Name:        req.Name,
		Unit:        unit,
		Location:    req.Location,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		UpdatedByID: &user.ID,
	}

	if err := config.GetDB().Create(&item).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "SKU_EXISTS", "An item with this SKU already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create inventory item")
		return
	}

	respondData(c, http.StatusCreated, item)
}

// SyncInventory handles POST /api/v1/inventory/sync - applies a batch of offline stock edits
// The last change per item wins. A change older than the item's last applied
// edit is reported as stale and skipped.
func SyncInventory(c *gin.Context) {
	var req syncqueue.Batch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	for _, ch := range req.Changes {
		if ch.Quantity.IsNegative() {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Quantities must not be negative")
			return
		}
	}

	changes := syncqueue.Collapse(req.Changes)
	results := make([]syncqueue.ItemResult, 0, len(changes))

	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		for _, ch := range changes {
			result, err := applyChange(tx, user.ID, ch)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to apply inventory changes")
		return
	}

	respondData(c, http.StatusOK, syncqueue.BatchResult{Results: results})
}

func applyChange(tx *gorm.DB, userID uint, ch syncqueue.Change) (syncqueue.ItemResult, error) {
	var item models.InventoryItem
	if err := tx.First(&item, ch.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return syncqueue.ItemResult{ItemID: ch.ItemID, Status: syncqueue.StatusNotFound}, nil
		}
		return syncqueue.ItemResult{}, err
	}

	if !ch.ClientUpdatedAt.IsZero() && item.ClientUpdatedAt != nil && ch.ClientUpdatedAt.Before(*item.ClientUpdatedAt) {
		quantity := item.Quantity
		return syncqueue.ItemResult{ItemID: item.ID, Status: syncqueue.StatusStale, Quantity: &quantity}, nil
	}

	updates := map[string]interface{}{
		"quantity":      ch.Quantity,
		"updated_by_id": userID,
	}
	if !ch.ClientUpdatedAt.IsZero() {
		updates["client_updated_at"] = ch.ClientUpdatedAt.UTC()
	}
	if err := tx.Model(&item).Updates(updates).Error; err != nil {
		return syncqueue.ItemResult{}, err
	}

	quantity := ch.Quantity
	return syncqueue.ItemResult{ItemID: item.ID, Status: syncqueue.StatusApplied, Quantity: &quantity}, nil
}
