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

// ErrZoneNotFound 安全区域不存在
var ErrZoneNotFound = errors.New("safe zone not found")

// SafeZoneRepository 安全区域仓库（对应 safe_zones 表）
// 列表查询固定按 created_at 升序（存储顺序），
// 保证 ViolatedZones 等派生结果稳定可测
type SafeZoneRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSafeZoneRepository 创建安全区域仓库
func NewSafeZoneRepository(db *sql.DB, logger *zap.Logger) *SafeZoneRepository {
	return &SafeZoneRepository{
		db:     db,
		logger: logger,
	}
}

const safeZoneColumns = `
		zone_id,
		patient_id,
		name,
		center_latitude,
		center_longitude,
		radius_meters,
		active,
		created_at,
		updated_at,
		created_by
`

// CreateSafeZone 写入一条安全区域
func (r *SafeZoneRepository) CreateSafeZone(ctx context.Context, zone *models.SafeZone) error {
	if zone == nil {
		return fmt.Errorf("zone is required")
	}
	if zone.ZoneID == "" {
		return fmt.Errorf("zone_id is required")
	}
	if zone.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}

	query := `
		INSERT INTO safe_zones (` + safeZoneColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		zone.ZoneID,
		zone.PatientID,
		zone.Name,
		zone.CenterLatitude,
		zone.CenterLongitude,
		zone.RadiusMeters,
		zone.Active,
		zone.CreatedAt,
		zone.UpdatedAt,
		zone.CreatedBy,
	)

	if err != nil {
		return fmt.Errorf("failed to create safe zone: %w", err)
	}

	return nil
}

// GetSafeZone 根据 zone_id 获取单个区域
func (r *SafeZoneRepository) GetSafeZone(ctx context.Context, zoneID string) (*models.SafeZone, error) {
	if zoneID == "" {
		return nil, fmt.Errorf("zone_id is required")
	}

	query := `
		SELECT ` + safeZoneColumns + `
		FROM safe_zones
		WHERE zone_id = $1
	`

	var zone models.SafeZone
	err := r.db.QueryRowContext(ctx, query, zoneID).Scan(
		&zone.ZoneID,
		&zone.PatientID,
		&zone.Name,
		&zone.CenterLatitude,
		&zone.CenterLongitude,
		&zone.RadiusMeters,
		&zone.Active,
		&zone.CreatedAt,
		&zone.UpdatedAt,
		&zone.CreatedBy,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: zone_id=%s", ErrZoneNotFound, zoneID)
		}
		return nil, fmt.Errorf("failed to get safe zone: %w", err)
	}

	return &zone, nil
}

// ListSafeZones 获取 patient 的全部区域（含软删除），按存储顺序
func (r *SafeZoneRepository) ListSafeZones(ctx context.Context, patientID string) ([]models.SafeZone, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + safeZoneColumns + `
		FROM safe_zones
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`

	return r.queryZones(ctx, query, patientID)
}

// ListActiveSafeZones 获取 patient 的活跃区域，按存储顺序
// 只有活跃区域参与围栏评估
func (r *SafeZoneRepository) ListActiveSafeZones(ctx context.Context, patientID string) ([]models.SafeZone, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + safeZoneColumns + `
		FROM safe_zones
		WHERE patient_id = $1
		  AND active = true
		ORDER BY created_at ASC
	`

	return r.queryZones(ctx, query, patientID)
}

// UpdateSafeZone 更新区域的名称/中心/半径
func (r *SafeZoneRepository) UpdateSafeZone(ctx context.Context, zoneID, name string, centerLat, centerLon, radiusMeters float64) (*models.SafeZone, error) {
	if zoneID == "" {
		return nil, fmt.Errorf("zone_id is required")
	}

	query := `
		UPDATE safe_zones
		SET name = $2,
		    center_latitude = $3,
		    center_longitude = $4,
		    radius_meters = $5,
		    updated_at = $6
		WHERE zone_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, zoneID, name, centerLat, centerLon, radiusMeters, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update safe zone: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: zone_id=%s", ErrZoneNotFound, zoneID)
	}

	return r.GetSafeZone(ctx, zoneID)
}

// DeactivateSafeZone 软删除：active 置为 false，历史报警引用保留
func (r *SafeZoneRepository) DeactivateSafeZone(ctx context.Context, zoneID string) error {
	if zoneID == "" {
		return fmt.Errorf("zone_id is required")
	}

	query := `
		UPDATE safe_zones
		SET active = false,
		    updated_at = $2
		WHERE zone_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, zoneID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate safe zone: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deactivate result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: zone_id=%s", ErrZoneNotFound, zoneID)
	}

	return nil
}

// DeleteSafeZone 物理删除（仅显式的永久删除路径使用）
func (r *SafeZoneRepository) DeleteSafeZone(ctx context.Context, zoneID string) error {
	if zoneID == "" {
		return fmt.Errorf("zone_id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM safe_zones WHERE zone_id = $1`, zoneID)
	if err != nil {
		return fmt.Errorf("failed to delete safe zone: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: zone_id=%s", ErrZoneNotFound, zoneID)
	}

	return nil
}

func (r *SafeZoneRepository) queryZones(ctx context.Context, query string, args ...interface{}) ([]models.SafeZone, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query safe zones: %w", err)
	}
	defer rows.Close()

	var zones []models.SafeZone
	for rows.Next() {
		var zone models.SafeZone
		err := rows.Scan(
			&zone.ZoneID,
			&zone.PatientID,
			&zone.Name,
			&zone.CenterLatitude,
			&zone.CenterLongitude,
			&zone.RadiusMeters,
			&zone.Active,
			&zone.CreatedAt,
			&zone.UpdatedAt,
			&zone.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan safe zone: %w", err)
		}
		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate safe zones: %w", err)
	}

	return zones, nil
}
