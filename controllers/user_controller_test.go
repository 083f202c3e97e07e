package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMockAuth0Server creates a mock HTTP server that simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		userInfo, exists := userInfoMap[authHeader[7:]]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userInfo)
	}))
}

// useAuth0Server points the Auth0 service at server for the duration of the test
func useAuth0Server(t *testing.T, server *httptest.Server) {
	originalConfig := config.GetConfig()
	config.SetConfig(&config.Config{Auth0Domain: server.URL})
	t.Cleanup(func() {
		config.SetConfig(originalConfig)
	})
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name           string
		auth0ID        string
		email          string
		userName       string
		nickname       string
		role           string
		profileRole    string
		expectedName   string
		expectedRole   string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Create office user from role claim",
			auth0ID:        "auth0|office1",
			email:          "office@example.com",
			userName:       "Office User",
			role:           models.RoleOffice,
			expectedRole:   models.RoleOffice,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Create monteur when role claim is empty",
			auth0ID:        "auth0|norole",
			email:          "norole@example.com",
			userName:       "Klaus Becker",
			expectedRole:   models.RoleMonteur,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Role from profile when the token has none",
			auth0ID:        "auth0|profilerole",
			email:          "buero@example.com",
			userName:       "Petra Vogel",
			profileRole:    models.RoleOffice,
			expectedRole:   models.RoleOffice,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Token role wins over profile role",
			auth0ID:        "auth0|tokenrole",
			email:          "admin@example.com",
			userName:       "Admin",
			role:           models.RoleAdmin,
			profileRole:    models.RoleMonteur,
			expectedRole:   models.RoleAdmin,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Unknown profile role falls back to monteur",
			auth0ID:        "auth0|badrole",
			email:          "badrole@example.com",
			userName:       "Jan Kurz",
			profileRole:    "customer",
			expectedRole:   models.RoleMonteur,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Nickname replaces a name that is just the email",
			auth0ID:        "auth0|nick",
			email:          "m.schulz@example.com",
			userName:       "m.schulz@example.com",
			nickname:       "Martin Schulz",
			expectedName:   "Martin Schulz",
			expectedRole:   models.RoleMonteur,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Fail with missing email",
			auth0ID:        "auth0|noemail",
			userName:       "No Email User",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_EMAIL",
		},
		{
			name:           "Fail with missing name",
			auth0ID:        "auth0|noname",
			email:          "noname@example.com",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MISSING_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db.Exec("DELETE FROM users")

			accessToken := "token-" + tt.auth0ID
			mockServer := setupMockAuth0Server(map[string]*services.Auth0UserInfo{
				accessToken: {Sub: tt.auth0ID, Email: tt.email, Name: tt.userName, Nickname: tt.nickname, Role: tt.profileRole},
			})
			defer mockServer.Close()
			useAuth0Server(t, mockServer)

			router := setupTestRouter()
			router.POST("/users", mockAuthMiddleware(tt.auth0ID, tt.role, accessToken), CreateUser)

			w := performRequest(router, http.MethodPost, "/users", nil)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())

			if tt.expectedStatus == http.StatusCreated {
				data := responseData(t, w)
				assert.Equal(t, tt.email, data["email"])
				expectedName := tt.expectedName
				if expectedName == "" {
					expectedName = tt.userName
				}
				assert.Equal(t, expectedName, data["name"])
				assert.Equal(t, tt.auth0ID, data["auth0_id"])
				assert.Equal(t, tt.expectedRole, data["role"])
			} else {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
		})
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "existing", models.RoleMonteur)

	tests := []struct {
		name    string
		auth0ID string
		email   string
	}{
		{"duplicate Auth0 ID", "auth0|existing", "other@example.com"},
		{"duplicate email", "auth0|newcomer", "existing@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := setupMockAuth0Server(map[string]*services.Auth0UserInfo{
				"token-dup": {Sub: tt.auth0ID, Email: tt.email, Name: "Second User"},
			})
			defer mockServer.Close()
			useAuth0Server(t, mockServer)

			router := setupTestRouter()
			router.POST("/users", mockAuthMiddleware(tt.auth0ID, "", "token-dup"), CreateUser)

			w := performRequest(router, http.MethodPost, "/users", nil)
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Equal(t, "USER_EXISTS", errorCode(t, w))
		})
	}
}

func TestCreateUser_Auth0Unavailable(t *testing.T) {
	setupTestDB(t)

	mockServer := setupMockAuth0Server(map[string]*services.Auth0UserInfo{})
	defer mockServer.Close()
	useAuth0Server(t, mockServer)

	router := setupTestRouter()
	router.POST("/users", mockAuthMiddleware("auth0|x", "", "unknown-token"), CreateUser)

	w := performRequest(router, http.MethodPost, "/users", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "AUTH0_ERROR", errorCode(t, w))
}

func TestGetMyProfile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "testuser", models.RoleMonteur)

	t.Run("existing user", func(t *testing.T) {
		router := routerAs(user)
		router.GET("/users/me", GetMyProfile)

		w := performRequest(router, http.MethodGet, "/users/me", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := responseData(t, w)
		assert.Equal(t, "testuser@example.com", data["email"])
		assert.Equal(t, models.RoleMonteur, data["role"])
	})

	t.Run("unknown user", func(t *testing.T) {
		router := routerAs(models.User{Auth0ID: "auth0|nonexistent"})
		router.GET("/users/me", GetMyProfile)

		w := performRequest(router, http.MethodGet, "/users/me", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "USER_NOT_FOUND", errorCode(t, w))
	})
}

func TestUpdateMyProfile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "testuser", models.RoleMonteur)
	createTestUser(t, db, "other", models.RoleMonteur)

	router := routerAs(user)
	router.PUT("/users/me", UpdateMyProfile)

	tests := []struct {
		name           string
		payload        UpdateUserRequest
		expectedStatus int
		expectedCode   string
		expectedName   string
		expectedEmail  string
	}{
		{
			name:           "partial update keeps email",
			payload:        UpdateUserRequest{Name: "Updated Name"},
			expectedStatus: http.StatusOK,
			expectedName:   "Updated Name",
			expectedEmail:  "testuser@example.com",
		},
		{
			name:           "full update",
			payload:        UpdateUserRequest{Name: "New Name", Email: "new@example.com"},
			expectedStatus: http.StatusOK,
			expectedName:   "New Name",
			expectedEmail:  "new@example.com",
		},
		{
			name:           "invalid email",
			payload:        UpdateUserRequest{Email: "invalid-email"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "email taken by another user",
			payload:        UpdateUserRequest{Email: "other@example.com"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "EMAIL_EXISTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPut, "/users/me", tt.payload)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())

			if tt.expectedStatus == http.StatusOK {
				data := responseData(t, w)
				assert.Equal(t, tt.expectedName, data["name"])
				assert.Equal(t, tt.expectedEmail, data["email"])
			} else {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	office := createTestUser(t, db, "office", models.RoleOffice)
	monteur := createTestUser(t, db, "monteur", models.RoleMonteur)
	createTestUser(t, db, "admin", models.RoleAdmin)

	t.Run("office filters by role", func(t *testing.T) {
		router := routerAs(office)
		router.GET("/users", ListUsers)

		w := performRequest(router, http.MethodGet, "/users?role=monteur", nil)
		require.Equal(t, http.StatusOK, w.Code)

		users := responseList(t, w)
		require.Len(t, users, 1)
		assert.Equal(t, "monteur", users[0].(map[string]interface{})["name"])
	})

	t.Run("monteur is forbidden", func(t *testing.T) {
		router := routerAs(monteur)
		router.GET("/users", ListUsers)

		w := performRequest(router, http.MethodGet, "/users", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	})
}

func TestUpdateUserRole(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	office := createTestUser(t, db, "office", models.RoleOffice)
	monteur := createTestUser(t, db, "monteur", models.RoleMonteur)

	path := "/users/" + itoa(monteur.ID) + "/role"

	t.Run("admin promotes monteur", func(t *testing.T) {
		router := routerAs(admin)
		router.PUT("/users/:id/role", UpdateUserRole)

		w := performRequest(router, http.MethodPut, path, UpdateUserRoleRequest{Role: models.RoleOffice})
		require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
		assert.Equal(t, models.RoleOffice, responseData(t, w)["role"])
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		router := routerAs(admin)
		router.PUT("/users/:id/role", UpdateUserRole)

		w := performRequest(router, http.MethodPut, path, UpdateUserRoleRequest{Role: "customer"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("office cannot change roles", func(t *testing.T) {
		router := routerAs(office)
		router.PUT("/users/:id/role", UpdateUserRole)

		w := performRequest(router, http.MethodPut, path, UpdateUserRoleRequest{Role: models.RoleAdmin})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
