package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"personal-calendar/internal/auth"
	"personal-calendar/internal/database"
	"personal-calendar/internal/service"
)

type testServer struct {
	router *gin.Engine
	db     *database.DB
	issuer *auth.Issuer
	hook   *logtest.Hook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "calendar.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db.DB, db.Driver, logger))

	repos := db.Repositories()
	users, err := service.NewUserService(repos.Users, bcrypt.MinCost)
	require.NoError(t, err)
	events := service.NewEventService(repos.Events)
	issuer := auth.NewIssuer("test-secret", time.Hour)

	router := gin.New()
	NewHandler(Deps{
		Users:       users,
		Events:      events,
		Exports:     service.NewExportService(events, nil, service.PublishConfig{}),
		Issuer:      issuer,
		DB:          db,
		Logger:      logger,
		CORSOrigins: []string{"*"},
	}).RegisterRoutes(router)

	return &testServer{router: router, db: db, issuer: issuer, hook: hook}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) register(t *testing.T, email string) AuthResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"name":"Ada","email":"`+email+`","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[AuthResponse](t, rec)
}

func (s *testServer) createEvent(t *testing.T, token, body string) EventResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/events", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[EventResponse](t, rec)
}

const standupBody = `{"title":"Standup","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T09:30:00Z"}`

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	reg := s.register(t, "ada@example.com")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Nil(t, reg.User.Phone)

	id, err := s.issuer.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id.UserID)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[AuthResponse](t, rec)
	assert.Equal(t, reg.User.ID, login.User.ID)

	rec = s.do(t, http.MethodGet, "/api/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		User UserResponse `json:"user"`
	}](t, rec)
	assert.Equal(t, "Ada", me.User.Name)
}

func TestRegister_Errors(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/auth/register", "", `{"name":"A","email":"a@example.com","password":"secret1","phone":"555"}`)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing", `{"email":"b@example.com"}`, http.StatusBadRequest, "Name, email, and password are required"},
		{"weak", `{"name":"B","email":"b@example.com","password":"123"}`, http.StatusBadRequest, "Password must be at least 6 characters"},
		{"dup email", `{"name":"B","email":"a@example.com","password":"secret1"}`, http.StatusConflict, "Email already registered"},
		{"dup phone", `{"name":"B","email":"b@example.com","password":"secret1","phone":"555"}`, http.StatusConflict, "Phone number already registered"},
		{"empty body", ``, http.StatusBadRequest, "Request body is required"},
		{"array body", `[]`, http.StatusBadRequest, "Request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decode[errorBody](t, rec).Error)
		})
	}
}

func TestLogin_SameResponseForUnknownAndWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	wrong := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"nope-nope"}`)
	unknown := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ghost@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, errorBody{Error: "Invalid email or password", Code: "invalid_credentials"}, decode[errorBody](t, wrong))

	missing := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestEvents_RequireBearerToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization token required", decode[errorBody](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/api/events", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode[errorBody](t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "unauthenticated", decode[errorBody](t, rec).Code)
}

func TestEvents_LifecycleScenario(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token

	rec := s.do(t, http.MethodGet, "/api/events", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/events", token,
		`{"title":"Standup","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T09:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errorBody{Error: "start_date must be before end_date", Code: "invalid_range"}, decode[errorBody](t, rec))

	ev := s.createEvent(t, token, standupBody)
	assert.Equal(t, "Standup", ev.Title)
	assert.Equal(t, "2024-01-01T09:00:00.000Z", ev.StartDate)
	assert.Equal(t, "2024-01-01T09:30:00.000Z", ev.EndDate)
	assert.Nil(t, ev.Description)
	assert.Nil(t, ev.Contacts)
	assert.NotEmpty(t, ev.CreatedAt)

	rec = s.do(t, http.MethodPut, "/api/events/"+itoa(ev.ID), token, `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errorBody{Error: "Title cannot be empty", Code: "empty_title"}, decode[errorBody](t, rec))
}

func TestEvents_WireShapeHasNulls(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token
	ev := s.createEvent(t, token, standupBody)

	rec := s.do(t, http.MethodGet, "/api/events/"+itoa(ev.ID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"id", "user_id", "title", "description", "contacts", "start_date", "end_date", "created_at"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["description"])
	assert.Nil(t, raw["contacts"])
}

func TestEvents_Update(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token
	ev := s.createEvent(t, token,
		`{"title":"Standup","description":"daily","contacts":"bob","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T09:30:00Z"}`)
	path := "/api/events/" + itoa(ev.ID)

	rec := s.do(t, http.MethodPut, path, token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_fields", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodPut, path, token, `{"end_date":"2024-01-01T08:59:00Z"}`)
	assert.Equal(t, "invalid_range", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodPatch, path, token, `{"start_date":"2024-01-01T09:30:00Z"}`)
	assert.Equal(t, "invalid_range", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodPut, path, token, `{"start_date":"not a date"}`)
	assert.Equal(t, errorBody{Error: "Invalid start_date format", Code: "invalid_date"}, decode[errorBody](t, rec))

	rec = s.do(t, http.MethodPut, path, token, `{"title":null,"description":"","contacts":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[EventResponse](t, rec)
	assert.Equal(t, "Standup", updated.Title, "null title leaves it untouched")
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.Contacts)
	assert.Equal(t, ev.CreatedAt, updated.CreatedAt)

	rec = s.do(t, http.MethodPatch, path, token, `{"end_date":"2024-01-01T10:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-01-01T10:00:00.000Z", decode[EventResponse](t, rec).EndDate)

	rec = s.do(t, http.MethodPut, path, token, `{"title":42}`)
	assert.Equal(t, "invalid_body", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodPut, path, token, ``)
	assert.Equal(t, "missing_body", decode[errorBody](t, rec).Code)
}

func TestEvents_OwnershipIsNotFound(t *testing.T) {
	s := newTestServer(t)
	ada := s.register(t, "ada@example.com").Token
	bob := s.register(t, "bob@example.com").Token
	ev := s.createEvent(t, ada, standupBody)
	path := "/api/events/" + itoa(ev.ID)

	for _, rec := range []*httptest.ResponseRecorder{
		s.do(t, http.MethodGet, path, bob, ""),
		s.do(t, http.MethodPut, path, bob, `{"title":"mine"}`),
		s.do(t, http.MethodDelete, path, bob, ""),
		s.do(t, http.MethodGet, path+"/export.ics", bob, ""),
	} {
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errorBody{Error: "Event not found", Code: "not_found"}, decode[errorBody](t, rec))
	}

	rec := s.do(t, http.MethodGet, "/api/events", bob, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestEvents_DeleteTwice(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token
	ev := s.createEvent(t, token, standupBody)
	path := "/api/events/" + itoa(ev.ID)

	rec := s.do(t, http.MethodDelete, path, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MessageResponse{Message: "Event deleted successfully"}, decode[MessageResponse](t, rec))

	rec = s.do(t, http.MethodDelete, path, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_InvalidID(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token

	for _, id := range []string{"abc", "0", "-3"} {
		rec := s.do(t, http.MethodDelete, "/api/events/"+id, token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Equal(t, "Invalid event ID", decode[errorBody](t, rec).Error)
	}
}

func TestEvents_SubMillisecondRangeRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token

	rec := s.do(t, http.MethodPost, "/api/events", token,
		`{"title":"Tick","start_date":"2024-01-01T09:00:00.0001Z","end_date":"2024-01-01T09:00:00.0002Z"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "invalid_range", body.Code)
	assert.Equal(t, "start_date must be before end_date", body.Error)

	ev := s.createEvent(t, token,
		`{"title":"Tick","start_date":"2024-01-01T09:00:00.0009Z","end_date":"2024-01-01T09:00:00.0011Z"}`)
	assert.Equal(t, "2024-01-01T09:00:00.000Z", ev.StartDate)
	assert.Equal(t, "2024-01-01T09:00:00.001Z", ev.EndDate)
}

func TestEvents_ListOrderedByStart(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token
	late := s.createEvent(t, token, `{"title":"Late","start_date":"2024-01-02T09:00:00Z","end_date":"2024-01-02T10:00:00Z"}`)
	early := s.createEvent(t, token, `{"title":"Early","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T10:00:00Z"}`)

	rec := s.do(t, http.MethodGet, "/api/events", token, "")
	list := decode[[]EventResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
}

func TestExports(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token
	ev := s.createEvent(t, token, `{"title":"Team sync","description":"weekly","start_date":"2024-01-01T09:00:00Z","end_date":"2024-01-01T09:30:00Z"}`)

	rec := s.do(t, http.MethodGet, "/api/events/export.ics", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="calendar.ics"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "SUMMARY:Team sync\r\n")

	rec = s.do(t, http.MethodGet, "/api/events/export.csv", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `"Title","Description","Contacts","Start Date","End Date"`+"\n"))

	rec = s.do(t, http.MethodGet, "/api/events/"+itoa(ev.ID)+"/export.ics", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Team_sync.ics"`, rec.Header().Get("Content-Disposition"))

	rec = s.do(t, http.MethodGet, "/api/events/"+itoa(ev.ID)+"/google-link", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[LinkResponse](t, rec).URL, "action=TEMPLATE")

	rec = s.do(t, http.MethodPost, "/api/events/export/publish", token, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "publishing_disabled", decode[errorBody](t, rec).Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = s.do(t, method, "/api/events/export/published", token, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, method)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Database)

	require.NoError(t, s.db.Close())
	rec = s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "disconnected", decode[HealthResponse](t, rec).Database)
}

func TestNotFoundRouteAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[errorBody](t, rec).Error)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = s.do(t, http.MethodOptions, "/api/events", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com").Token
	s.hook.Reset()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
	entry := s.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-123", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.NotNil(t, entry.Data["user_id"])
}

func TestCORS_AllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(corsMiddleware([]string{"http://app.test"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteError_InternalIsOpaque(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil))

	writeError(c, errors.New("db error: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errorBody{Error: "Internal server error", Code: "internal_error"}, decode[errorBody](t, rec))
	require.Len(t, c.Errors, 1)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
