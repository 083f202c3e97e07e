package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/middleware"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/routes"
	"github.com/kendall-kelly/fieldservice-api/services"
	"github.com/kendall-kelly/fieldservice-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// FieldServiceIntegrationTestSuite drives the full router with a mock token validator
type FieldServiceIntegrationTestSuite struct {
	suite.Suite
	router  *gin.Engine
	db      *gorm.DB
	store   *services.MockObjectStore
	admin   models.User
	office  models.User
	monteur models.User
	other   models.User
}

// SetupSuite runs once before all tests
func (suite *FieldServiceIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
	testutil.RequireTestEnvironment(suite.T())
}

// SetupTest runs before each test
func (suite *FieldServiceIntegrationTestSuite) SetupTest() {
	suite.db = testutil.OpenDB(suite.T())

	suite.store = services.NewMockObjectStore()
	services.SetDocumentService(services.NewDocumentService(suite.store))

	suite.router = routes.Setup(testutil.Config(suite.T().TempDir()), testutil.BearerAuth(middleware.ScopeWriteSettings))

	suite.admin = testutil.CreateUser(suite.T(), suite.db, "admin", models.RoleAdmin)
	suite.office = testutil.CreateUser(suite.T(), suite.db, "office", models.RoleOffice)
	suite.monteur = testutil.CreateUser(suite.T(), suite.db, "monteur", models.RoleMonteur)
	suite.other = testutil.CreateUser(suite.T(), suite.db, "other", models.RoleMonteur)
}

// TearDownTest runs after each test
func (suite *FieldServiceIntegrationTestSuite) TearDownTest() {
	services.SetDocumentService(nil)
}

// request performs an authenticated JSON request and decodes the envelope
func (suite *FieldServiceIntegrationTestSuite) request(user models.User, method, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Authorization", "Bearer "+testutil.Token(user))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	}
	return w.Code, response
}

// mustRequest performs a request that has to succeed with status and returns its data
func (suite *FieldServiceIntegrationTestSuite) mustRequest(user models.User, method, path string, body interface{}, status int) map[string]interface{} {
	code, response := suite.request(user, method, path, body)
	suite.Require().Equal(status, code, "%s %s: %v", method, path, response)
	data, _ := response["data"].(map[string]interface{})
	return data
}

func (suite *FieldServiceIntegrationTestSuite) upload(user models.User, apptID, docTypeID uint, filename string, content []byte) (int, map[string]interface{}) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	suite.Require().NoError(writer.WriteField("document_type_id", fmt.Sprint(docTypeID)))
	part, err := writer.CreateFormFile("file", filename)
	suite.Require().NoError(err)
	_, err = part.Write(content)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/appointments/%d/documents", apptID), body)
	req.Header.Set("Authorization", "Bearer "+testutil.Token(user))
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func id(data map[string]interface{}) uint {
	return uint(data["id"].(float64))
}

func errorOf(response map[string]interface{}) map[string]interface{} {
	e, _ := response["error"].(map[string]interface{})
	return e
}

// catalog creates the document type and appointment type used by the workflow
func (suite *FieldServiceIntegrationTestSuite) catalog() (docTypeID, apptTypeID, fieldID uint) {
	docType := suite.mustRequest(suite.admin, http.MethodPost, "/document-types", map[string]interface{}{"name": "Abnahmeprotokoll"}, http.StatusCreated)

	apptType := suite.mustRequest(suite.admin, http.MethodPost, "/appointment-types", map[string]interface{}{
		"name": "Wartung",
		"fields": []map[string]interface{}{
			{"label": "Zählerstand", "kind": "text", "required": true},
			{"label": "Brenner gereinigt", "kind": "boolean"},
		},
		"document_type_ids": []uint{id(docType)},
	}, http.StatusCreated)

	field := apptType["fields"].([]interface{})[0].(map[string]interface{})
	return id(docType), id(apptType), id(field)
}

// jobWithAppointment creates a dated job with one undated appointment staffed by the monteur
func (suite *FieldServiceIntegrationTestSuite) jobWithAppointment(apptTypeID uint) (jobID, apptID uint) {
	client := suite.mustRequest(suite.office, http.MethodPost, "/clients", map[string]interface{}{"name": "Hausverwaltung Krüger"}, http.StatusCreated)
	property := suite.mustRequest(suite.office, http.MethodPost, fmt.Sprintf("/clients/%d/properties", id(client)), map[string]interface{}{
		"street":      "Lindenallee 12",
		"postal_code": "50667",
		"city":        "Köln",
	}, http.StatusCreated)

	start := time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)
	job := suite.mustRequest(suite.office, http.MethodPost, "/jobs", map[string]interface{}{
		"title":       "Heizungswartung Lindenallee",
		"client_id":   id(client),
		"property_id": id(property),
		"start_date":  start,
		"end_date":    start.Add(72 * time.Hour),
	}, http.StatusCreated)
	suite.Equal("offen", job["status"])

	appt := suite.mustRequest(suite.office, http.MethodPost, fmt.Sprintf("/jobs/%d/appointments", id(job)), map[string]interface{}{
		"title":               "Brennerwartung",
		"appointment_type_id": apptTypeID,
		"crew_ids":            []uint{suite.monteur.ID},
	}, http.StatusCreated)

	return id(job), id(appt)
}

// TestWorkflow_AppointmentToJobReady walks an appointment up to "erledigt" and the job to "vorbereitet"
func (suite *FieldServiceIntegrationTestSuite) TestWorkflow_AppointmentToJobReady() {
	t := suite.T()
	docTypeID, apptTypeID, fieldID := suite.catalog()
	jobID, apptID := suite.jobWithAppointment(apptTypeID)
	apptPath := fmt.Sprintf("/appointments/%d", apptID)
	jobPath := fmt.Sprintf("/jobs/%d", jobID)

	// Below the threshold no requirements apply
	data := suite.mustRequest(suite.monteur, http.MethodPatch, apptPath+"/status", map[string]string{"status": "geplant"}, http.StatusOK)
	assert.Equal(t, "geplant", data["status"])

	code, response := suite.request(suite.monteur, http.MethodPatch, apptPath+"/status", map[string]string{"status": "vorbereitet"})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	e := errorOf(response)
	assert.Equal(t, "VALIDATION_FAILED", e["code"])
	warnings := e["warnings"].([]interface{})
	assert.Len(t, warnings, 4, "dates, document, field and checklist are missing: %v", warnings)
	assert.Contains(t, warnings, "Pflichtdokument fehlt: Abnahmeprotokoll")
	assert.Contains(t, warnings, "Pflichtfelder nicht ausgefüllt: Zählerstand")

	// Live validation is off below the threshold but the next step is still checked
	code, response = suite.request(suite.monteur, http.MethodGet, apptPath+"/validation", nil, "Accept-Language", "en-US,en;q=0.9")
	require.Equal(t, http.StatusOK, code)
	report := response["data"].(map[string]interface{})
	assert.Equal(t, false, report["live"])
	assert.Equal(t, "vorbereitet", report["next_status"])
	assert.Equal(t, false, report["can_advance"])

	// Fulfil every requirement
	start := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	suite.mustRequest(suite.office, http.MethodPatch, apptPath, map[string]interface{}{
		"start_date": start,
		"end_date":   start.Add(2 * time.Hour),
	}, http.StatusOK)
	suite.mustRequest(suite.monteur, http.MethodPut, apptPath+"/fields", map[string]interface{}{
		"values": map[string]interface{}{fmt.Sprint(fieldID): "48213"},
	}, http.StatusOK)
	suite.mustRequest(suite.monteur, http.MethodPost, apptPath+"/checklists", map[string]interface{}{
		"title": "Sicherheitscheck",
		"items": []map[string]interface{}{{"label": "Gaszufuhr geprüft", "done": true}},
	}, http.StatusCreated)

	code, response = suite.upload(suite.monteur, apptID, docTypeID, "abnahme.pdf", []byte("%PDF-1.7 protokoll"))
	require.Equal(t, http.StatusCreated, code, "%v", response)
	assert.Len(t, suite.store.Objects(), 1)

	data = suite.mustRequest(suite.monteur, http.MethodGet, apptPath+"/validation", nil, http.StatusOK)
	assert.Equal(t, true, data["can_advance"])

	for _, status := range []string{"vorbereitet", "in_arbeit", "erledigt"} {
		data = suite.mustRequest(suite.monteur, http.MethodPatch, apptPath+"/status", map[string]string{"status": status}, http.StatusOK)
		assert.Equal(t, status, data["status"])
	}

	// Live validation now runs and reports a clean appointment
	data = suite.mustRequest(suite.monteur, http.MethodGet, apptPath+"/validation", nil, http.StatusOK)
	assert.Equal(t, true, data["live"])
	assert.Equal(t, true, data["valid"])

	code, response = suite.request(suite.monteur, http.MethodPatch, apptPath+"/status", map[string]string{"status": "offen"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_TRANSITION", errorOf(response)["code"])

	// The job sees the appointment's document through the union
	code, response = suite.request(suite.monteur, http.MethodGet, jobPath+"/documents", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, response["data"], 1)

	code, _ = suite.request(suite.monteur, http.MethodPatch, jobPath+"/status", map[string]string{"status": "geplant"})
	assert.Equal(t, http.StatusForbidden, code, "only office staff move jobs")

	suite.mustRequest(suite.office, http.MethodPatch, jobPath+"/status", map[string]string{"status": "geplant"}, http.StatusOK)
	data = suite.mustRequest(suite.office, http.MethodPatch, jobPath+"/status", map[string]string{"status": "vorbereitet"}, http.StatusOK)
	assert.Equal(t, "vorbereitet", data["status"])

	var job models.Job
	require.NoError(t, suite.db.First(&job, jobID).Error)
	assert.Equal(t, models.Status("vorbereitet"), job.Status)
}

// TestWorkflow_JobBlockedByAppointment checks that job warnings name the appointment
func (suite *FieldServiceIntegrationTestSuite) TestWorkflow_JobBlockedByAppointment() {
	t := suite.T()
	_, apptTypeID, _ := suite.catalog()
	jobID, _ := suite.jobWithAppointment(apptTypeID)
	jobPath := fmt.Sprintf("/jobs/%d", jobID)

	suite.mustRequest(suite.office, http.MethodPatch, jobPath+"/status", map[string]string{"status": "geplant"}, http.StatusOK)

	code, response := suite.request(suite.office, http.MethodPatch, jobPath+"/status", map[string]string{"status": "vorbereitet"}, "Accept-Language", "en")
	require.Equal(t, http.StatusUnprocessableEntity, code)

	warnings := errorOf(response)["warnings"].([]interface{})
	assert.Contains(t, warnings, `Appointment "Brennerwartung": Required document missing: Abnahmeprotokoll`)
	for _, w := range warnings {
		assert.Contains(t, w, `Appointment "Brennerwartung"`, "the job itself is dated, every warning comes from the appointment")
	}

	// A step back is always allowed
	data := suite.mustRequest(suite.office, http.MethodPatch, jobPath+"/status", map[string]string{"status": "offen"}, http.StatusOK)
	assert.Equal(t, "offen", data["status"])
}

// TestAccessControl checks what a monteur outside the crew can reach
func (suite *FieldServiceIntegrationTestSuite) TestAccessControl() {
	t := suite.T()
	_, apptTypeID, _ := suite.catalog()
	jobID, apptID := suite.jobWithAppointment(apptTypeID)

	code, response := suite.request(suite.monteur, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, response["data"], 1)

	code, response = suite.request(suite.other, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, response["data"], 0)

	code, _ = suite.request(suite.other, http.MethodGet, fmt.Sprintf("/jobs/%d", jobID), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = suite.request(suite.other, http.MethodPatch, fmt.Sprintf("/appointments/%d/status", apptID), map[string]string{"status": "geplant"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = suite.request(suite.monteur, http.MethodPost, "/clients", map[string]string{"name": "X"})
	assert.Equal(t, http.StatusForbidden, code)

	// Without a token nothing behind the auth group is reachable
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown users have to bootstrap their profile first
	stranger := models.User{Auth0ID: "auth0|stranger"}
	code, response = suite.request(stranger, http.MethodGet, "/jobs", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", errorOf(response)["code"])
}

// TestScoringWorkflow records, approves and aggregates monthly reviews
func (suite *FieldServiceIntegrationTestSuite) TestScoringWorkflow() {
	t := suite.T()
	perfect := map[string]interface{}{"speed": 5, "quality": 5, "reliability": 5, "team": 5, "cleanliness": 5}

	var ids []uint
	for _, ym := range [][2]int{{2025, 12}, {2026, 2}, {2026, 8}} {
		body := map[string]interface{}{"monteur_id": suite.monteur.ID, "year": ym[0], "month": ym[1]}
		for k, v := range perfect {
			body[k] = v
		}
		data := suite.mustRequest(suite.admin, http.MethodPost, "/scores", body, http.StatusCreated)
		assert.Equal(t, "833.33", data["monthly_bonus"])
		ids = append(ids, id(data))
	}

	// Halving the pool recomputes the drafts
	suite.mustRequest(suite.admin, http.MethodPut, "/settings/bonus", map[string]interface{}{
		"weight_speed": 0.3, "weight_quality": 0.3, "weight_reliability": 0.15, "weight_team": 0.15, "weight_cleanliness": 0.1,
		"min_bonus_threshold": 1.0, "min_neutral_threshold": 0.5, "half_year_bonus_pool": "1000",
	}, http.StatusOK)

	for _, scoreID := range ids[:2] {
		suite.mustRequest(suite.admin, http.MethodPost, fmt.Sprintf("/scores/%d/approve", scoreID), nil, http.StatusOK)
	}

	data := suite.mustRequest(suite.monteur, http.MethodGet, "/users/me/bonus-history", nil, http.StatusOK)
	periods := data["periods"].([]interface{})
	require.Len(t, periods, 1, "the August draft is not part of the history")
	period := periods[0].(map[string]interface{})
	assert.Equal(t, "1st half 2026", period["label"])
	assert.Equal(t, float64(2), period["months"])
	assert.Equal(t, "833.34", period["bonus"])

	code, _ := suite.request(suite.monteur, http.MethodPost, "/scores", perfect)
	assert.Equal(t, http.StatusBadRequest, code, "binding fails before the role check")

	code, _ = suite.request(suite.office, http.MethodGet, fmt.Sprintf("/users/%d/bonus-history", suite.monteur.ID), nil)
	assert.Equal(t, http.StatusOK, code)
}

// TestFieldServiceIntegrationTestSuite runs the test suite
func TestFieldServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(FieldServiceIntegrationTestSuite))
}
