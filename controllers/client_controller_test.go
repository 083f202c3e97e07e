package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientRouter(user models.User) *gin.Engine {
	router := routerAs(user)
	router.POST("/clients", CreateClient)
	router.GET("/clients", ListClients)
	router.GET("/clients/:id", GetClient)
	router.POST("/clients/:id/properties", CreateProperty)
	return router
}

func TestClientLifecycle(t *testing.T) {
	db := setupTestDB(t)
	office := createTestUser(t, db, "office", models.RoleOffice)
	router := clientRouter(office)

	email := "info@schmidt-bau.de"
	w := performRequest(router, http.MethodPost, "/clients", CreateClientRequest{Name: "Schmidt Bau GmbH", Email: &email})
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	clientID := jsonID(responseData(t, w)["id"])

	w = performRequest(router, http.MethodPost, "/clients", CreateClientRequest{Name: "Wohnbau Nord"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(router, http.MethodPost, "/clients/"+itoa(clientID)+"/properties", CreatePropertyRequest{
		Street:     "Hauptstraße 5",
		PostalCode: "20095",
		City:       "Hamburg",
	})
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	assert.Equal(t, float64(clientID), responseData(t, w)["client_id"])

	w = performRequest(router, http.MethodGet, "/clients/"+itoa(clientID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "Schmidt Bau GmbH", data["name"])
	assert.Len(t, data["properties"], 1)

	w = performRequest(router, http.MethodGet, "/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := responseList(t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "Schmidt Bau GmbH", list[0].(map[string]interface{})["name"])

	w = performRequest(router, http.MethodGet, "/clients?q=nord", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, responseList(t, w), 1)
}

func TestClientErrors(t *testing.T) {
	db := setupTestDB(t)
	office := createTestUser(t, db, "office", models.RoleOffice)
	monteur := createTestUser(t, db, "monteur", models.RoleMonteur)

	tests := []struct {
		name           string
		user           models.User
		method         string
		path           string
		payload        interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"missing name", office, http.MethodPost, "/clients", CreateClientRequest{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid email", office, http.MethodPost, "/clients", map[string]string{"name": "X", "email": "nope"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown client", office, http.MethodGet, "/clients/999", nil, http.StatusNotFound, "CLIENT_NOT_FOUND"},
		{"property for unknown client", office, http.MethodPost, "/clients/999/properties", CreatePropertyRequest{Street: "A", PostalCode: "1", City: "B"}, http.StatusNotFound, "CLIENT_NOT_FOUND"},
		{"property missing city", office, http.MethodPost, "/clients/1/properties", map[string]string{"street": "A", "postal_code": "1"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid id", office, http.MethodGet, "/clients/abc", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"monteur cannot list", monteur, http.MethodGet, "/clients", nil, http.StatusForbidden, "FORBIDDEN"},
		{"monteur cannot create", monteur, http.MethodPost, "/clients", CreateClientRequest{Name: "X"}, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(clientRouter(tt.user), tt.method, tt.path, tt.payload)
			require.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			assert.Equal(t, tt.expectedCode, errorCode(t, w))
		})
	}
}
