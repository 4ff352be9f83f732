package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jg-Harshini/Trackfence/internal/models"
)

func setupMockZoneDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SafeZoneRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSafeZoneRepository(db, zap.NewNop())

	return db, mock, repo
}

func safeZoneRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"zone_id", "patient_id", "name", "center_latitude", "center_longitude",
		"radius_meters", "active", "created_at", "updated_at", "created_by",
	})
}

func TestCreateSafeZone_Success(t *testing.T) {
	db, mock, repo := setupMockZoneDB(t)
	defer db.Close()

	ctx := context.Background()
	zoneID := uuid.New().String()
	patientID := uuid.New().String()
	caretakerID := uuid.New().String()
	now := time.Now()

	zone := &models.SafeZone{
		ZoneID:          zoneID,
		PatientID:       patientID,
		Name:            "Home",
		CenterLatitude:  40.0,
		CenterLongitude: -75.0,
		RadiusMeters:    100,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       caretakerID,
	}

	mock.ExpectExec(`INSERT INTO safe_zones`).
		WithArgs(zoneID, patientID, "Home", 40.0, -75.0, 100.0, true, now, now, caretakerID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateSafeZone(ctx, zone)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveSafeZones_StorageOrder(t *testing.T) {
	db, mock, repo := setupMockZoneDB(t)
	defer db.Close()

	patientID := uuid.New().String()
	now := time.Now()

	rows := safeZoneRows().
		AddRow("zone-a", patientID, "Home", 40.0, -75.0, 100.0, true, now.Add(-2*time.Hour), now, "c1").
		AddRow("zone-b", patientID, "Park", 41.0, -75.0, 200.0, true, now.Add(-time.Hour), now, "c1")

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID).
		WillReturnRows(rows)

	zones, err := repo.ListActiveSafeZones(context.Background(), patientID)

	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "zone-a", zones[0].ZoneID)
	assert.Equal(t, "zone-b", zones[1].ZoneID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSafeZone_NotFound(t *testing.T) {
	db, mock, repo := setupMockZoneDB(t)
	defer db.Close()

	zoneID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(zoneID).
		WillReturnError(sql.ErrNoRows)

	zone, err := repo.GetSafeZone(context.Background(), zoneID)

	assert.Nil(t, zone)
	assert.ErrorIs(t, err, ErrZoneNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateSafeZone_Success(t *testing.T) {
	db, mock, repo := setupMockZoneDB(t)
	defer db.Close()

	zoneID := uuid.New().String()

	mock.ExpectExec(`UPDATE safe_zones`).
		WithArgs(zoneID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeactivateSafeZone(context.Background(), zoneID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateSafeZone_NotFound(t *testing.T) {
	db, mock, repo := setupMockZoneDB(t)
	defer db.Close()

	zoneID := uuid.New().String()

	mock.ExpectExec(`UPDATE safe_zones`).
		WithArgs(zoneID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeactivateSafeZone(context.Background(), zoneID)

	assert.ErrorIs(t, err, ErrZoneNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSafeZone_Success(t *testing.T) {
	db, mock, repo := setupMockZoneDB(t)
	defer db.Close()

	zoneID := uuid.New().String()

	mock.ExpectExec(`DELETE FROM safe_zones`).
		WithArgs(zoneID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteSafeZone(context.Background(), zoneID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
