package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidZone 区域参数非法（半径非正、坐标越界、名称为空）
// 校验在落库前完成，失败不产生任何写入
var ErrInvalidZone = errors.New("invalid safe zone")

// SafeZoneStore 区域服务依赖的仓库接口
type SafeZoneStore interface {
	CreateSafeZone(ctx context.Context, zone *models.SafeZone) error
	GetSafeZone(ctx context.Context, zoneID string) (*models.SafeZone, error)
	ListSafeZones(ctx context.Context, patientID string) ([]models.SafeZone, error)
	ListActiveSafeZones(ctx context.Context, patientID string) ([]models.SafeZone, error)
	UpdateSafeZone(ctx context.Context, zoneID, name string, centerLat, centerLon, radiusMeters float64) (*models.SafeZone, error)
	DeactivateSafeZone(ctx context.Context, zoneID string) error
	DeleteSafeZone(ctx context.Context, zoneID string) error
}

// SafeZoneService 安全区域管理
type SafeZoneService struct {
	zones  SafeZoneStore
	logger *zap.Logger
}

// NewSafeZoneService 创建区域服务
func NewSafeZoneService(zones SafeZoneStore, logger *zap.Logger) *SafeZoneService {
	return &SafeZoneService{
		zones:  zones,
		logger: logger,
	}
}

// CreateSafeZoneRequest 创建区域请求
type CreateSafeZoneRequest struct {
	PatientID       string  `json:"patient_id"`
	Name            string  `json:"name"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusMeters    float64 `json:"radius_meters"`
	CreatedBy       string  `json:"created_by"`
}

// CreateSafeZone 创建新区域，默认 active
func (s *SafeZoneService) CreateSafeZone(ctx context.Context, req CreateSafeZoneRequest) (*models.SafeZone, error) {
	if req.PatientID == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidZone)
	}
	if err := validateZoneGeometry(req.Name, req.CenterLatitude, req.CenterLongitude, req.RadiusMeters); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	zone := &models.SafeZone{
		ZoneID:          uuid.New().String(),
		PatientID:       req.PatientID,
		Name:            req.Name,
		CenterLatitude:  req.CenterLatitude,
		CenterLongitude: req.CenterLongitude,
		RadiusMeters:    req.RadiusMeters,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       req.CreatedBy,
	}

	if err := s.zones.CreateSafeZone(ctx, zone); err != nil {
		return nil, err
	}

	s.logger.Info("Safe zone created",
		zap.String("zone_id", zone.ZoneID),
		zap.String("patient_id", zone.PatientID),
		zap.String("name", zone.Name),
		zap.Float64("radius_meters", zone.RadiusMeters),
	)

	return zone, nil
}

// ListSafeZones 查询 patient 的区域；activeOnly 时只返回活跃区域
func (s *SafeZoneService) ListSafeZones(ctx context.Context, patientID string, activeOnly bool) ([]models.SafeZone, error) {
	if activeOnly {
		return s.zones.ListActiveSafeZones(ctx, patientID)
	}
	return s.zones.ListSafeZones(ctx, patientID)
}

// UpdateSafeZoneRequest 更新区域请求
type UpdateSafeZoneRequest struct {
	Name            string  `json:"name"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusMeters    float64 `json:"radius_meters"`
}

// UpdateSafeZone 更新名称/中心/半径，重新校验几何参数
func (s *SafeZoneService) UpdateSafeZone(ctx context.Context, zoneID string, req UpdateSafeZoneRequest) (*models.SafeZone, error) {
	if err := validateZoneGeometry(req.Name, req.CenterLatitude, req.CenterLongitude, req.RadiusMeters); err != nil {
		return nil, err
	}

	zone, err := s.zones.UpdateSafeZone(ctx, zoneID, req.Name, req.CenterLatitude, req.CenterLongitude, req.RadiusMeters)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Safe zone updated",
		zap.String("zone_id", zone.ZoneID),
		zap.String("patient_id", zone.PatientID),
	)

	return zone, nil
}

// DeleteSafeZone 删除区域：默认软删除（active=false），
// permanent=true 时物理删除
func (s *SafeZoneService) DeleteSafeZone(ctx context.Context, zoneID string, permanent bool) error {
	if permanent {
		if err := s.zones.DeleteSafeZone(ctx, zoneID); err != nil {
			return err
		}
		s.logger.Info("Safe zone permanently deleted", zap.String("zone_id", zoneID))
		return nil
	}

	if err := s.zones.DeactivateSafeZone(ctx, zoneID); err != nil {
		return err
	}
	s.logger.Info("Safe zone deactivated", zap.String("zone_id", zoneID))
	return nil
}

func validateZoneGeometry(name string, lat, lon, radius float64) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidZone)
	}
	if radius <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidZone, radius)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude out of range, got %v", ErrInvalidZone, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude out of range, got %v", ErrInvalidZone, lon)
	}
	return nil
}
