package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/middleware"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory database with every model migrated and
// installs it as the process-wide database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	// Every pooled connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")

	config.SetDB(db)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing
// It sets up the context exactly as the real EnsureValidToken middleware does
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

// createTestUser inserts a user whose Auth0 ID is "auth0|<name>"
func createTestUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   name + "@example.com",
		Role:    role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// routerAs returns a router that authenticates every request as user
func routerAs(user models.User) *gin.Engine {
	router := setupTestRouter()
	router.Use(mockAuthMiddleware(user.Auth0ID, user.Role, "token-"+user.Name))
	return router
}

func performRequest(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return response
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], "Response body: %s", w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data should be an object: %s", w.Body.String())
	return data
}

func responseList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], "Response body: %s", w.Body.String())
	data, ok := response["data"].([]interface{})
	require.True(t, ok, "data should be a list: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, false, response["success"], "Response body: %s", w.Body.String())
	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok)
	return errObj["code"].(string)
}

func jsonID(v interface{}) uint {
	return uint(v.(float64))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func jsonBody(payload interface{}) io.Reader {
	raw, _ := json.Marshal(payload)
	return bytes.NewBuffer(raw)
}

func uintPtr(v uint) *uint {
	return &v
}
