package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"
	"github.com/jg-Harshini/Trackfence/internal/provider"
	"github.com/jg-Harshini/Trackfence/internal/repository"
	"github.com/jg-Harshini/Trackfence/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ============================================
// in-memory stores backing the services under test
// ============================================

type memLocationStore struct {
	saved []models.Location
}

func (m *memLocationStore) CreateLocation(_ context.Context, loc *models.Location) error {
	m.saved = append(m.saved, *loc)
	return nil
}

func (m *memLocationStore) GetCurrentLocation(_ context.Context, patientID string) (*models.Location, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].PatientID == patientID {
			return &m.saved[i], nil
		}
	}
	// 与 LocationRepository 的契约一致：没有采样返回哨兵错误
	return nil, repository.ErrLocationNotFound
}

func (m *memLocationStore) ListLocations(_ context.Context, patientID string) ([]models.Location, error) {
	var out []models.Location
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].PatientID == patientID {
			out = append(out, m.saved[i])
		}
	}
	return out, nil
}

func (m *memLocationStore) ListLocationsBetween(_ context.Context, patientID string, start, end time.Time) ([]models.Location, error) {
	return m.ListLocations(context.Background(), patientID)
}

type noopEvaluator struct{}

func (noopEvaluator) Evaluate(_ context.Context, _ *models.Location) (*models.Alert, error) {
	return nil, nil
}

type noopLocationNotifier struct{}

func (noopLocationNotifier) PublishLocation(_ context.Context, _ string, _ *models.Location) {}

type stubProvider struct{}

func (stubProvider) FetchLocation(_ context.Context, _ string) (*provider.Coordinates, error) {
	return nil, &provider.ProviderError{Op: "fetch location", StatusCode: 503}
}

type memAlertStore struct {
	alerts map[string]*models.Alert
}

func (m *memAlertStore) GetAlert(_ context.Context, alertID string) (*models.Alert, error) {
	a, ok := m.alerts[alertID]
	if !ok {
		return nil, repository.ErrAlertNotFound
	}
	return a, nil
}

func (m *memAlertStore) ListAlerts(_ context.Context, patientID string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.alerts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAlertStore) ListOpenAlerts(_ context.Context, patientID string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.alerts {
		if a.PatientID == patientID && !a.Acknowledged {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAlertStore) CloseAlert(_ context.Context, alertID, actorID string) (*models.Alert, error) {
	a, ok := m.alerts[alertID]
	if !ok {
		return nil, repository.ErrAlertNotFound
	}
	if !a.Acknowledged {
		now := time.Now().UTC()
		a.Acknowledged = true
		a.AcknowledgedAt = &now
		a.AcknowledgedBy = &actorID
	}
	return a, nil
}

type noopAlertNotifier struct{}

func (noopAlertNotifier) PublishAlert(_ context.Context, _ string, _ *models.Alert) {}

func setupTestRouter(t *testing.T) (*Router, *memLocationStore, *memAlertStore) {
	t.Helper()
	logger := zap.NewNop()

	locStore := &memLocationStore{}
	alertStore := &memAlertStore{alerts: make(map[string]*models.Alert)}

	locSvc := service.NewLocationService(locStore, noopEvaluator{}, noopLocationNotifier{}, stubProvider{}, logger)
	alertSvc := service.NewAlertService(alertStore, noopAlertNotifier{}, logger)

	router := NewRouter(logger)
	router.RegisterHealthRoute()
	router.RegisterLocationRoutes(NewLocationHandler(locSvc, logger))
	router.RegisterAlertRoutes(NewAlertHandler(alertSvc, logger))
	return router, locStore, alertStore
}

func doJSON(t *testing.T, router *Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ============================================
// tests
// ============================================

func TestHealthRoute(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateLocation_OK(t *testing.T) {
	router, locStore, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/locations/update", map[string]any{
		"patient_id": "p1",
		"latitude":   40.0,
		"longitude":  -75.0,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[models.Location]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ResultSuccess, resp.Code)
	assert.Equal(t, models.SourceManual, resp.Result.Source)
	assert.Len(t, locStore.saved, 1)
}

func TestUpdateLocation_InvalidCoordinates(t *testing.T) {
	router, locStore, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/locations/update", map[string]any{
		"patient_id": "p1",
		"latitude":   95.0,
		"longitude":  -75.0,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, locStore.saved)
}

func TestUpdateLocation_MethodNotAllowed(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/locations/update", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFetchLocation_ProviderDown(t *testing.T) {
	router, locStore, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/locations/fetch", map[string]any{
		"patient_id":  "p1",
		"tracking_id": "track-1",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, locStore.saved)
}

func TestGetCurrentLocation_NotFound(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/locations/p1/current", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp Result[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ResultError, resp.Code)
	assert.Equal(t, "no location recorded for patient", resp.Message)
}

func TestGetCurrentLocation_AfterUpdate(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/locations/update", map[string]any{
		"patient_id": "p1",
		"latitude":   40.0,
		"longitude":  -75.0,
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/locations/p1/current", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[models.Location]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.Result.PatientID)
}

func TestAcknowledgeAlert_Routes(t *testing.T) {
	router, _, alertStore := setupTestRouter(t)
	alertStore.alerts["a1"] = &models.Alert{
		AlertID:     "a1",
		PatientID:   "p1",
		Kind:        models.AlertKindZoneExit,
		TriggeredAt: time.Now().UTC(),
	}

	rec := doJSON(t, router, http.MethodPut, "/api/v1/alerts/a1/acknowledge", map[string]any{
		"caretaker_id": "caretaker-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[models.Alert]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Acknowledged)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/alerts/missing/acknowledge", map[string]any{
		"caretaker_id": "caretaker-1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAlerts_EmptyArray(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/alerts/p1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	// result 必须是 [] 而不是 null
	assert.Contains(t, rec.Body.String(), `"result":[]`)
}

func TestExportAlerts_ContentType(t *testing.T) {
	router, _, alertStore := setupTestRouter(t)
	alertStore.alerts["a1"] = &models.Alert{
		AlertID:     "a1",
		PatientID:   "p1",
		Kind:        models.AlertKindZoneExit,
		TriggeredAt: time.Now().UTC(),
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/alerts/p1/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}
