package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"project/backend/config"
	"project/backend/models"
	"project/backend/routes"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
		BcryptCost: 4,
	}

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg)
	return app, db, cfg
}

func createUser(t *testing.T, db *gorm.DB, cfg *config.Config, username, role string) (models.User, string) {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	token, err := utils.GenerateJWTToken(user.ID, cfg)
	require.NoError(t, err)
	return user, token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func seedCatalog(t *testing.T, db *gorm.DB) (models.Certification, models.Course, models.Module, models.Module) {
	t.Helper()
	certification := models.Certification{Title: "Go Fundamentals", CertificationType: models.CertificationProfessional, IsActive: true}
	require.NoError(t, db.Create(&certification).Error)
	course := models.Course{CertificationID: &certification.ID, Title: "Basics", SequenceOrder: 1, IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	textModule := models.Module{CourseID: course.ID, Title: "Intro", ModuleType: models.ModuleText, SequenceOrder: 1, TextContent: "Welcome", IsActive: true}
	require.NoError(t, db.Create(&textModule).Error)
	videoModule := models.Module{CourseID: course.ID, Title: "Walkthrough", ModuleType: models.ModuleVideo, SequenceOrder: 2, VideoDuration: 100, IsActive: true}
	require.NoError(t, db.Create(&videoModule).Error)
	return certification, course, textModule, videoModule
}

func TestRegisterAndLogin(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doRequest(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": "jdoe",
		"email":    "jdoe@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, body = doRequest(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "jdoe",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doRequest(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"username": "jdoe",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doRequest(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": "jdoe",
		"email":    "jdoe@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": "jdoe",
		"email":    "other@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username already exists", body["error"])
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doRequest(t, app, "GET", "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEnrollmentFlow(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	certification, _, _, _ := seedCatalog(t, db)

	path := fmt.Sprintf("/api/certifications/%d/enroll", certification.ID)

	resp, body := doRequest(t, app, "POST", path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_enrolled"])

	resp, body = doRequest(t, app, "POST", path, token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, true, body["is_enrolled"])

	resp, body = doRequest(t, app, "DELETE", path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_enrolled"])

	resp, body = doRequest(t, app, "DELETE", path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_enrolled"])
}

func TestEnrollUnknownCertification(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)

	resp, _ := doRequest(t, app, "POST", "/api/certifications/9999/enroll", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModuleCompletionFlow(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	_, _, textModule, videoModule := seedCatalog(t, db)

	// Explicit completion is for non-video modules only.
	resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/complete", videoModule.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/complete", textModule.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_completed"])
	assert.InDelta(t, 50.0, body["course_progress"].(float64), 0.001)
	assert.Equal(t, false, body["is_course_complete"])

	// Watch time below the threshold keeps the video incomplete.
	resp, body = doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/video-progress", videoModule.ID), token, fiber.Map{"watch_time": 50})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_completed"])
	assert.InDelta(t, 50.0, body["progress_percentage"].(float64), 0.001)

	resp, body = doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/video-progress", videoModule.ID), token, fiber.Map{"watch_time": 85})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_completed"])
	assert.InDelta(t, 100.0, body["course_progress"].(float64), 0.001)
	assert.Equal(t, true, body["is_course_complete"])
}

func TestVideoProgressValidation(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	_, _, _, videoModule := seedCatalog(t, db)

	resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/video-progress", videoModule.ID), token, fiber.Map{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/video-progress", videoModule.ID), token, fiber.Map{"watch_time": -5})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCertificateIssuanceFlow(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	certification, course, textModule, videoModule := seedCatalog(t, db)

	certPath := fmt.Sprintf("/api/courses/%d/certificate", course.ID)

	resp, _ := doRequest(t, app, "POST", certPath, token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/complete", textModule.ID), token, nil)
	doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/video-progress", videoModule.ID), token, fiber.Map{"watch_time": 100})

	resp, body := doRequest(t, app, "POST", certPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["freshly_issued"])
	firstID := body["certificate_id"].(string)
	assert.Regexp(t, `^CERT-[0-9A-F]{12}$`, firstID)

	// Re-issuing returns the stored certificate without the fresh flag.
	resp, body = doRequest(t, app, "POST", certPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["freshly_issued"])
	assert.Equal(t, firstID, body["certificate_id"])

	// Certification certificate needs the enrollment row.
	certificationPath := fmt.Sprintf("/api/certifications/%d/certificate", certification.ID)
	resp, _ = doRequest(t, app, "POST", certificationPath, token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doRequest(t, app, "POST", fmt.Sprintf("/api/certifications/%d/enroll", certification.ID), token, nil)

	resp, body = doRequest(t, app, "POST", certificationPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["freshly_issued"])
	assert.Regexp(t, `^PROF-[0-9A-F]{12}$`, body["certificate_id"])

	resp, body = doRequest(t, app, "GET", certPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, course.Title, body["title"])
	assert.Equal(t, firstID, body["certificate_id"])
}

func TestCertificationDetailsAndProgress(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	certification, _, textModule, videoModule := seedCatalog(t, db)

	doRequest(t, app, "POST", fmt.Sprintf("/api/certifications/%d/enroll", certification.ID), token, nil)
	doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/complete", textModule.ID), token, nil)
	doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/video-progress", videoModule.ID), token, fiber.Map{"watch_time": 100})

	resp, body := doRequest(t, app, "GET", fmt.Sprintf("/api/certifications/%d", certification.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_enrolled"])
	assert.Equal(t, true, body["is_complete"])
	assert.InDelta(t, 100.0, body["overall_progress"].(float64), 0.001)

	resp, body = doRequest(t, app, "GET", fmt.Sprintf("/api/certifications/%d/progress", certification.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 100.0, body["percentage"].(float64), 0.001)
	assert.Equal(t, true, body["is_complete"])
}

func TestGetModuleReturnsSiblings(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	_, _, textModule, videoModule := seedCatalog(t, db)

	resp, body := doRequest(t, app, "GET", fmt.Sprintf("/api/modules/%d", textModule.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["prev_module_id"])
	assert.Equal(t, float64(videoModule.ID), body["next_module_id"].(float64))
}

func TestDashboard(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "learner", models.RoleLearner)
	certification, _, textModule, _ := seedCatalog(t, db)

	doRequest(t, app, "POST", fmt.Sprintf("/api/certifications/%d/enroll", certification.ID), token, nil)
	doRequest(t, app, "POST", fmt.Sprintf("/api/modules/%d/complete", textModule.ID), token, nil)

	resp, body := doRequest(t, app, "GET", "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	certifications := body["certifications"].([]interface{})
	require.Len(t, certifications, 1)
	recent := body["recent_activity"].([]interface{})
	require.Len(t, recent, 1)
	assert.Equal(t, float64(textModule.ID), recent[0].(map[string]interface{})["module_id"].(float64))
}

func TestAdminRoutesRequireInstructor(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, learnerToken := createUser(t, db, cfg, "learner", models.RoleLearner)
	_, instructorToken := createUser(t, db, cfg, "teach", models.RoleInstructor)

	payload := fiber.Map{"title": "New Certification"}

	resp, _ := doRequest(t, app, "POST", "/api/admin/certifications/", learnerToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := doRequest(t, app, "POST", "/api/admin/certifications/", instructorToken, payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	certification := body["certification"].(map[string]interface{})
	assert.Equal(t, "New Certification", certification["Title"])
}

func TestAdminModuleCRUD(t *testing.T) {
	app, db, cfg := newTestApp(t)
	_, token := createUser(t, db, cfg, "teach", models.RoleInstructor)
	_, course, _, _ := seedCatalog(t, db)

	resp, body := doRequest(t, app, "POST", fmt.Sprintf("/api/admin/courses/%d/modules", course.ID), token, fiber.Map{
		"title":          "Deep Dive",
		"module_type":    models.ModuleVideo,
		"video_duration": 300,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	module := body["module"].(map[string]interface{})
	moduleID := uint(module["ID"].(float64))

	resp, _ = doRequest(t, app, "PUT", fmt.Sprintf("/api/admin/courses/%d/modules/%d", course.ID, moduleID), token, fiber.Map{
		"title": "Deeper Dive",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Module
	require.NoError(t, db.First(&stored, moduleID).Error)
	assert.Equal(t, "Deeper Dive", stored.Title)

	resp, _ = doRequest(t, app, "DELETE", fmt.Sprintf("/api/admin/courses/%d/modules/%d", course.ID, moduleID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, "DELETE", fmt.Sprintf("/api/admin/courses/%d/modules/%d", course.ID, moduleID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Invalid module type is rejected up front.
	resp, _ = doRequest(t, app, "POST", fmt.Sprintf("/api/admin/courses/%d/modules", course.ID), token, fiber.Map{
		"title":       "Broken",
		"module_type": "quiz",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
