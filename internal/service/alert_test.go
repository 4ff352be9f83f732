package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"
	"github.com/jg-Harshini/Trackfence/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeServiceAlertStore struct {
	alerts map[string]*models.Alert
}

func newFakeServiceAlertStore() *fakeServiceAlertStore {
	return &fakeServiceAlertStore{alerts: make(map[string]*models.Alert)}
}

func (f *fakeServiceAlertStore) GetAlert(_ context.Context, alertID string) (*models.Alert, error) {
	a, ok := f.alerts[alertID]
	if !ok {
		return nil, repository.ErrAlertNotFound
	}
	return a, nil
}

func (f *fakeServiceAlertStore) ListAlerts(_ context.Context, patientID string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range f.alerts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeServiceAlertStore) ListOpenAlerts(_ context.Context, patientID string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range f.alerts {
		if a.PatientID == patientID && !a.Acknowledged {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeServiceAlertStore) CloseAlert(_ context.Context, alertID, actorID string) (*models.Alert, error) {
	a, ok := f.alerts[alertID]
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

type fakeAlertPublisher struct {
	published []*models.Alert
}

func (f *fakeAlertPublisher) PublishAlert(_ context.Context, _ string, alert *models.Alert) {
	f.published = append(f.published, alert)
}

func seedAlert(store *fakeServiceAlertStore, alertID, patientID string, acknowledged bool) *models.Alert {
	zoneID := "z1"
	a := &models.Alert{
		AlertID:          alertID,
		PatientID:        patientID,
		ZoneID:           &zoneID,
		Kind:             models.AlertKindZoneExit,
		Message:          "Patient has exited safe zone: Home",
		PatientLatitude:  40.01,
		PatientLongitude: -75.0,
		TriggeredAt:      time.Now().UTC().Add(-time.Hour),
		Acknowledged:     acknowledged,
	}
	if acknowledged {
		ackAt := a.TriggeredAt.Add(10 * time.Minute)
		ackBy := "caretaker-0"
		a.AcknowledgedAt = &ackAt
		a.AcknowledgedBy = &ackBy
	}
	store.alerts[alertID] = a
	return a
}

func TestAcknowledgeAlert_ClosesAndPublishes(t *testing.T) {
	store := newFakeServiceAlertStore()
	pub := &fakeAlertPublisher{}
	svc := NewAlertService(store, pub, zap.NewNop())
	seedAlert(store, "a1", "p1", false)

	alert, err := svc.AcknowledgeAlert(context.Background(), "a1", "caretaker-1")

	require.NoError(t, err)
	assert.True(t, alert.Acknowledged)
	require.NotNil(t, alert.AcknowledgedBy)
	assert.Equal(t, "caretaker-1", *alert.AcknowledgedBy)
	require.Len(t, pub.published, 1)
}

func TestAcknowledgeAlert_NotFound(t *testing.T) {
	store := newFakeServiceAlertStore()
	svc := NewAlertService(store, &fakeAlertPublisher{}, zap.NewNop())

	alert, err := svc.AcknowledgeAlert(context.Background(), "missing", "caretaker-1")

	assert.Nil(t, alert)
	assert.ErrorIs(t, err, repository.ErrAlertNotFound)
}

func TestAcknowledgeAlert_AlreadyClosedKeepsOriginalActor(t *testing.T) {
	store := newFakeServiceAlertStore()
	svc := NewAlertService(store, &fakeAlertPublisher{}, zap.NewNop())
	seedAlert(store, "a1", "p1", true)

	alert, err := svc.AcknowledgeAlert(context.Background(), "a1", "caretaker-2")

	require.NoError(t, err)
	require.NotNil(t, alert.AcknowledgedBy)
	assert.Equal(t, "caretaker-0", *alert.AcknowledgedBy)
}

func TestListAlerts_UnacknowledgedOnly(t *testing.T) {
	store := newFakeServiceAlertStore()
	svc := NewAlertService(store, &fakeAlertPublisher{}, zap.NewNop())
	seedAlert(store, "a1", "p1", false)
	seedAlert(store, "a2", "p1", true)

	all, err := svc.ListAlerts(context.Background(), "p1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := svc.ListAlerts(context.Background(), "p1", true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a1", open[0].AlertID)
}

func TestExportAlerts_ProducesWorkbook(t *testing.T) {
	store := newFakeServiceAlertStore()
	svc := NewAlertService(store, &fakeAlertPublisher{}, zap.NewNop())
	seedAlert(store, "a1", "p1", false)
	seedAlert(store, "a2", "p1", true)

	data, err := svc.ExportAlerts(context.Background(), "p1")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Alerts")
	require.NoError(t, err)
	// 表头 + 两条报警
	require.Len(t, rows, 3)
	assert.Equal(t, AlertExportHeader[0], rows[0][0])
}
