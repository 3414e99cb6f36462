package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patient-portal/internal/booking"
	"patient-portal/internal/client"
	"patient-portal/internal/config"
	"patient-portal/internal/metrics"
	"patient-portal/internal/models"
	"patient-portal/internal/notify"
	"patient-portal/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// backend fakes the hospital API and records what it received.
type backend struct {
	mu           sync.Mutex
	appointments []map[string]interface{}
	messages     []map[string]interface{}
	failWith     string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/user/doctors":
		_, _ = io.WriteString(w, `{"success":true,"doctors":[
			{"_id":"d1","firstName":"Jane","lastName":"Doe","doctorDepartment":"Cardiology"},
			{"_id":"d2","firstName":"Sam","lastName":"Lee","doctorDepartment":"Dermatology"},
			{"_id":"d3","firstName":"Kim","lastName":"Park","doctorDepartment":"Pediatrics"}]}`)
	case "/api/v1/appointment/post", "/api/v1/message/send":
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failWith != "" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"success":false,"message":"`+b.failWith+`"}`)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path == "/api/v1/message/send" {
			b.messages = append(b.messages, body)
			_, _ = io.WriteString(w, `{"success":true}`)
			return
		}
		b.appointments = append(b.appointments, body)
		_, _ = io.WriteString(w, `{"success":true,"message":"Appointment Sent!"}`)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) sentAppointments() []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]interface{}(nil), b.appointments...)
}

func (b *backend) sentMessages() []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]interface{}(nil), b.messages...)
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

type portal struct {
	router  *gin.Engine
	backend *backend
	session *session.Context
}

func newPortal(t *testing.T, mutate func(*config.Config)) *portal {
	t.Helper()
	b := &backend{}
	ts := httptest.NewServer(b)
	t.Cleanup(ts.Close)

	api, err := client.New(ts.URL, time.Second, zerolog.Nop())
	require.NoError(t, err)
	sess, err := session.Load(context.Background(), session.NewMemoryStorage())
	require.NoError(t, err)

	cfg := &config.Config{Form: config.FormConfig{AllowPrefilledIdentity: true}}
	if mutate != nil {
		mutate(cfg)
	}
	reg := prometheus.NewRegistry()
	feed := notify.NewFeed(20)

	router := gin.New()
	SetupRoutes(router, Dependencies{
		Config:  cfg,
		Session: sess,
		Backend: api,
		Feed:    feed,
		Booking: booking.Deps{
			Notifier: feed,
			Metrics:  metrics.NewPortalMetrics(reg),
			Logger:   zerolog.Nop(),
		},
		Gatherer: reg,
	})
	return &portal{router: router, backend: b, session: sess}
}

func (p *portal) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

var validPatient = map[string]string{
	"firstName":        "Alice",
	"lastName":         "Smith",
	"email":            "alice@example.com",
	"phone":            "555-123-4567",
	"dob":              "1990-04-12",
	"gender":           "Female",
	"appointment_date": "2026-11-02",
	"department":       "Cardiology",
	"address":          "1 Main St",
	"hasVisited":       "true",
}

func TestHealthAndDepartments(t *testing.T) {
	p := newPortal(t, nil)

	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())

	code, env := p.do(t, http.MethodGet, "/api/v1/departments", nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[struct {
		Departments []models.Department `json:"departments"`
		Default     models.Department   `json:"default"`
	}](t, env.Data)
	assert.Len(t, got.Departments, 11)
	assert.Equal(t, models.DepartmentPediatrics, got.Default)
}

func TestBookAppointmentEndToEnd(t *testing.T) {
	p := newPortal(t, nil)

	code, env := p.do(t, http.MethodGet, "/api/v1/appointment-form", nil)
	require.Equal(t, http.StatusOK, code)
	state := decode[booking.State](t, env.Data)
	assert.Equal(t, models.DepartmentPediatrics, state.Department)
	require.Len(t, state.Doctors, 1, "only the default department's doctors are offered")
	assert.Equal(t, "Kim", state.Doctors[0].FirstName)

	code, env = p.do(t, http.MethodGet, "/api/v1/doctors?department=Cardiology", nil)
	require.Equal(t, http.StatusOK, code)
	doctors := decode[[]models.Doctor](t, env.Data)
	require.Len(t, doctors, 1)
	assert.Equal(t, "d1", doctors[0].ID)

	fields := map[string]string{"doctor": "d1"}
	for k, v := range validPatient {
		fields[k] = v
	}
	code, env = p.do(t, http.MethodPatch, "/api/v1/appointment-form", fields)
	require.Equal(t, http.StatusOK, code, env.Error)
	state = decode[booking.State](t, env.Data)
	require.NotNil(t, state.Doctor, "department is applied before the doctor")
	assert.Equal(t, "Jane", state.Doctor.FirstName)

	code, env = p.do(t, http.MethodPost, "/api/v1/appointment-form/submit", nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Equal(t, "Appointment Sent!", env.Message)

	require.Len(t, p.backend.sentAppointments(), 1)
	sent := p.backend.sentAppointments()[0]
	assert.Equal(t, "Jane", sent["doctor_firstName"])
	assert.Equal(t, "Doe", sent["doctor_lastName"])
	assert.Equal(t, true, sent["hasVisited"])
	assert.Equal(t, "Alice", sent["firstName"])

	state = decode[booking.State](t, env.Data)
	assert.Nil(t, state.Doctor)
	assert.Empty(t, state.Identity.FirstName)

	code, env = p.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	notes := decode[[]notify.Notification](t, env.Data)
	require.Len(t, notes, 1)
	assert.Equal(t, "Appointment Sent!", notes[0].Message)
}

func TestSubmitValidationFailure(t *testing.T) {
	p := newPortal(t, nil)

	code, env := p.do(t, http.MethodPatch, "/api/v1/appointment-form", map[string]string{"firstName": "Al"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = p.do(t, http.MethodPost, "/api/v1/appointment-form/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "firstName", env.Field)
	assert.Equal(t, "First Name must be at least 3 characters and contain only letters.", env.Error)
	assert.Empty(t, p.backend.sentAppointments())
}

func TestSubmitBackendErrorIsRelayed(t *testing.T) {
	p := newPortal(t, nil)
	p.backend.mu.Lock()
	p.backend.failWith = "doctor not found"
	p.backend.mu.Unlock()

	fields := map[string]string{"doctor": "d1"}
	for k, v := range validPatient {
		fields[k] = v
	}
	code, _ := p.do(t, http.MethodPatch, "/api/v1/appointment-form", fields)
	require.Equal(t, http.StatusOK, code)

	code, env := p.do(t, http.MethodPost, "/api/v1/appointment-form/submit", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "doctor not found", env.Error)

	_, env = p.do(t, http.MethodGet, "/api/v1/appointment-form", nil)
	state := decode[booking.State](t, env.Data)
	assert.Equal(t, "Alice", state.Identity.FirstName)
	require.NotNil(t, state.Doctor)
}

func TestUpdateFormErrors(t *testing.T) {
	p := newPortal(t, nil)

	code, _ := p.do(t, http.MethodPatch, "/api/v1/appointment-form", map[string]string{"nickname": "Al"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = p.do(t, http.MethodPut, "/api/v1/appointment-form/doctor", map[string]string{"doctorId": "nope"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = p.do(t, http.MethodPut, "/api/v1/appointment-form/doctor", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = p.do(t, http.MethodGet, "/api/v1/doctors?department=Astrology", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessionIdentityIsReadOnly(t *testing.T) {
	p := newPortal(t, nil)

	code, env := p.do(t, http.MethodPut, "/api/v1/session", map[string]string{
		"_id":       "u1",
		"firstName": "Bo",
		"lastName":  "Li",
		"email":     "bo@example.com",
		"phone":     "+1 555 010 9999",
		"dob":       "1985-01-30",
		"gender":    "Male",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	_, env = p.do(t, http.MethodGet, "/api/v1/appointment-form", nil)
	state := decode[booking.State](t, env.Data)
	assert.Equal(t, booking.IdentityFromSession, state.IdentitySource)
	assert.Equal(t, "Bo", state.Identity.FirstName)

	code, _ = p.do(t, http.MethodPatch, "/api/v1/appointment-form", map[string]string{"firstName": "Robert"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = p.do(t, http.MethodPatch, "/api/v1/appointment-form", map[string]string{
		"appointment_date": "2026-11-02",
		"department":       "Cardiology",
		"doctor":           "d1",
		"address":          "9 Elm St",
	})
	require.Equal(t, http.StatusOK, code)
	code, env = p.do(t, http.MethodPost, "/api/v1/appointment-form/submit", nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	require.Len(t, p.backend.sentAppointments(), 1)
	assert.NotContains(t, p.backend.sentAppointments()[0], "firstName")

	code, _ = p.do(t, http.MethodDelete, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, code)
	_, env = p.do(t, http.MethodGet, "/api/v1/appointment-form", nil)
	state = decode[booking.State](t, env.Data)
	assert.Equal(t, booking.IdentityFromSelf, state.IdentitySource, "logout remounts a self-service form")
}

func TestSetSessionValidates(t *testing.T) {
	p := newPortal(t, nil)

	code, _ := p.do(t, http.MethodPut, "/api/v1/session", map[string]string{"firstName": "Bo"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, p.session.IsAuthenticated())
}

func TestRequireLogin(t *testing.T) {
	p := newPortal(t, func(cfg *config.Config) { cfg.RequireLogin = true })

	code, _ := p.do(t, http.MethodGet, "/api/v1/appointment-form", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = p.do(t, http.MethodGet, "/api/v1/departments", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestSendMessage(t *testing.T) {
	p := newPortal(t, nil)

	code, env := p.do(t, http.MethodPost, "/api/v1/message", map[string]string{
		"firstName": "Alice",
		"lastName":  "Smith",
		"email":     "alice@example.com",
		"phone":     "5551234567",
		"message":   "Do you take walk-ins?",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Equal(t, booking.MsgMessageSent, env.Message)
	require.Len(t, p.backend.sentMessages(), 1)
	assert.Equal(t, "Do you take walk-ins?", p.backend.sentMessages()[0]["message"])

	code, env = p.do(t, http.MethodPost, "/api/v1/message", map[string]string{"firstName": "Alice"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "lastName", env.Field)

	_, env = p.do(t, http.MethodGet, "/api/v1/message", nil)
	state := decode[booking.MessageState](t, env.Data)
	assert.Equal(t, "Alice", state.FirstName)
}

func TestMetricsEndpoint(t *testing.T) {
	p := newPortal(t, nil)
	p.do(t, http.MethodGet, "/api/v1/appointment-form", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `portal_directory_fetch_total{outcome="success"} 1`)
}
