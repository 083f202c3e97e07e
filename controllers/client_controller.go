package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
)

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=200"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,max=50"`
}

// CreatePropertyRequest represents the request body for adding a property to a client
type CreatePropertyRequest struct {
	Street     string  `json:"street" binding:"required"`
	PostalCode string  `json:"postal_code" binding:"required,max=10"`
	City       string  `json:"city" binding:"required"`
	Notes      *string `json:"notes"`
}

// CreateClient handles POST /api/v1/clients - creates a new client (admin and office only)
func CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can create clients", models.RoleAdmin, models.RoleOffice) {
		return
	}

	client := models.Client{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	if err := config.GetDB().Create(&client).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create client")
		return
	}

	respondData(c, http.StatusCreated, client)
}

// ListClients handles GET /api/v1/clients - lists clients ordered by name
// Optional query parameter: q (name substring)
func ListClients(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can list clients", models.RoleAdmin, models.RoleOffice) {
		return
	}

	query := config.GetDB().Order("name ASC")
	if q := c.Query("q"); q != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+q+"%")
	}

	var clients []models.Client
	if err := query.Find(&clients).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch clients")
		return
	}

	respondData(c, http.StatusOK, clients)
}

// GetClient handles GET /api/v1/clients/:id - returns a client with its properties
func GetClient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can view clients", models.RoleAdmin, models.RoleOffice) {
		return
	}

	clientID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var client models.Client
	if err := config.GetDB().Preload("Properties").First(&client, clientID).Error; err != nil {
		respondError(c, http.StatusNotFound, "CLIENT_NOT_FOUND", "Client not found")
		return
	}

	respondData(c, http.StatusOK, client)
}

// CreateProperty handles POST /api/v1/clients/:id/properties - adds a property to a client
func CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can add properties", models.RoleAdmin, models.RoleOffice) {
		return
	}

	clientID, ok := idParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var client models.Client
	if err := db.First(&client, clientID).Error; err != nil {
		respondError(c, http.StatusNotFound, "CLIENT_NOT_FOUND", "Client not found")
		return
	}

	property := models.Property{
		ClientID:   client.ID,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		City:       req.City,
		Notes:      req.Notes,
	}

	if err := db.Create(&property).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create property")
		return
	}

	respondData(c, http.StatusCreated, property)
}
