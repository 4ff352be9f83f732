package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"

	"go.uber.org/zap"
)

// ErrLocationNotFound patient 还没有任何位置记录
var ErrLocationNotFound = errors.New("location not found")

// LocationRepository 位置采样仓库（对应 locations 表）
// 采样只写不改，查询按 timestamp 倒序
type LocationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLocationRepository 创建位置仓库
func NewLocationRepository(db *sql.DB, logger *zap.Logger) *LocationRepository {
	return &LocationRepository{
		db:     db,
		logger: logger,
	}
}

const locationColumns = `
		location_id,
		patient_id,
		latitude,
		longitude,
		accuracy,
		timestamp,
		source,
		created_at
`

// CreateLocation 写入一条位置采样
func (r *LocationRepository) CreateLocation(ctx context.Context, loc *models.Location) error {
	if loc == nil {
		return fmt.Errorf("location is required")
	}
	if loc.LocationID == "" {
		return fmt.Errorf("location_id is required")
	}
	if loc.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}

	query := `
		INSERT INTO locations (` + locationColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		loc.LocationID,
		loc.PatientID,
		loc.Latitude,
		loc.Longitude,
		loc.Accuracy,
		loc.Timestamp,
		loc.Source,
		loc.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}

	return nil
}

// GetCurrentLocation 获取 patient 最新的一条位置
func (r *LocationRepository) GetCurrentLocation(ctx context.Context, patientID string) (*models.Location, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE patient_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	loc, err := r.scanLocation(r.db.QueryRowContext(ctx, query, patientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: patient_id=%s", ErrLocationNotFound, patientID)
		}
		return nil, fmt.Errorf("failed to get current location: %w", err)
	}

	return loc, nil
}

// ListLocations 获取 patient 的位置历史，按时间倒序
func (r *LocationRepository) ListLocations(ctx context.Context, patientID string) ([]models.Location, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE patient_id = $1
		ORDER BY timestamp DESC
	`

	return r.queryLocations(ctx, query, patientID)
}

// ListLocationsBetween 获取时间范围内的位置历史，按时间倒序
func (r *LocationRepository) ListLocationsBetween(ctx context.Context, patientID string, start, end time.Time) ([]models.Location, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE patient_id = $1
		  AND timestamp >= $2
		  AND timestamp <= $3
		ORDER BY timestamp DESC
	`

	return r.queryLocations(ctx, query, patientID, start, end)
}

func (r *LocationRepository) queryLocations(ctx context.Context, query string, args ...interface{}) ([]models.Location, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		loc, err := r.scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, *loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	return locations, nil
}

func (r *LocationRepository) scanLocation(row rowScanner) (*models.Location, error) {
	var loc models.Location
	var accuracy sql.NullFloat64

	err := row.Scan(
		&loc.LocationID,
		&loc.PatientID,
		&loc.Latitude,
		&loc.Longitude,
		&accuracy,
		&loc.Timestamp,
		&loc.Source,
		&loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if accuracy.Valid {
		loc.Accuracy = &accuracy.Float64
	}

	return &loc, nil
}
