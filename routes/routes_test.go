package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/middleware"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/tests/testutil"
	"github.com/stretchr/testify/assert"
)

const settingsBody = `{"weight_speed":0.3,"weight_quality":0.3,"weight_reliability":0.15,"weight_team":0.15,` +
	`"weight_cleanliness":0.1,"min_bonus_threshold":1,"min_neutral_threshold":0.5,"half_year_bonus_pool":"2400"}`

func putSettings(router *gin.Engine, user models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/bonus", strings.NewReader(settingsBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testutil.Token(user))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateBonusSettingsRequiresScope(t *testing.T) {
	testutil.RequireTestEnvironment(t)
	gin.SetMode(gin.TestMode)

	db := testutil.OpenDB(t)
	admin := testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	cfg := testutil.Config(t.TempDir())

	w := putSettings(Setup(cfg, testutil.BearerAuth("read:settings")), admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_SCOPE")

	settings, err := models.LoadBonusSettings(db)
	assert.NoError(t, err)
	assert.Equal(t, "2000", settings.HalfYearBonusPool.String(), "rejected update leaves the defaults")

	w = putSettings(Setup(cfg, testutil.BearerAuth(middleware.ScopeWriteSettings)), admin)
	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	assert.Contains(t, w.Body.String(), `"half_year_bonus_pool":"2400"`)
}
