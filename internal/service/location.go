package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"
	"github.com/jg-Harshini/Trackfence/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCoordinates 位置坐标越界
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// LocationStore 位置服务依赖的仓库接口
type LocationStore interface {
	CreateLocation(ctx context.Context, loc *models.Location) error
	GetCurrentLocation(ctx context.Context, patientID string) (*models.Location, error)
	ListLocations(ctx context.Context, patientID string) ([]models.Location, error)
	ListLocationsBetween(ctx context.Context, patientID string, start, end time.Time) ([]models.Location, error)
}

// Evaluator 围栏评估接口（geofence.Engine 实现）
type Evaluator interface {
	Evaluate(ctx context.Context, loc *models.Location) (*models.Alert, error)
}

// LocationNotifier 位置推送接口
type LocationNotifier interface {
	PublishLocation(ctx context.Context, patientID string, loc *models.Location)
}

// LocationProvider 外部定位服务接口
type LocationProvider interface {
	FetchLocation(ctx context.Context, trackingID string) (*provider.Coordinates, error)
}

// LocationService 位置入口：落库 → 推送 → 围栏评估
// 这是触发评估的唯一入口，手动上报、MQTT 设备上报、
// Shipday 拉取都走 UpdateLocation
type LocationService struct {
	locations LocationStore
	engine    Evaluator
	notifier  LocationNotifier
	provider  LocationProvider
	logger    *zap.Logger
}

// NewLocationService 创建位置服务
func NewLocationService(
	locations LocationStore,
	engine Evaluator,
	notifier LocationNotifier,
	locationProvider LocationProvider,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		locations: locations,
		engine:    engine,
		notifier:  notifier,
		provider:  locationProvider,
		logger:    logger,
	}
}

// UpdateLocation 处理一条新的位置采样
// 采样落库后即视为成功：推送是尽力而为的，评估失败只记日志，
// 不回滚已写入的采样
func (s *LocationService) UpdateLocation(ctx context.Context, patientID string, latitude, longitude float64, accuracy *float64, source string) (*models.Location, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("%w: latitude out of range, got %v", ErrInvalidCoordinates, latitude)
	}
	if longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("%w: longitude out of range, got %v", ErrInvalidCoordinates, longitude)
	}

	now := time.Now().UTC()
	loc := &models.Location{
		LocationID: uuid.New().String(),
		PatientID:  patientID,
		Latitude:   latitude,
		Longitude:  longitude,
		Accuracy:   accuracy,
		Timestamp:  now,
		Source:     source,
		CreatedAt:  now,
	}

	if err := s.locations.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}

	s.logger.Info("Location updated",
		zap.String("patient_id", patientID),
		zap.Float64("latitude", latitude),
		zap.Float64("longitude", longitude),
		zap.String("source", source),
	)

	s.notifier.PublishLocation(ctx, patientID, loc)

	if _, err := s.engine.Evaluate(ctx, loc); err != nil {
		s.logger.Error("Geofence evaluation failed",
			zap.String("patient_id", patientID),
			zap.String("location_id", loc.LocationID),
			zap.Error(err),
		)
	}

	return loc, nil
}

// FetchAndUpdateLocation 从 Shipday 拉取坐标后走统一的上报路径
// 拉取完全成功之前不发生任何落库或评估
func (s *LocationService) FetchAndUpdateLocation(ctx context.Context, patientID, trackingID string) (*models.Location, error) {
	coords, err := s.provider.FetchLocation(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	return s.UpdateLocation(ctx, patientID, coords.Latitude, coords.Longitude, nil, models.SourceShipday)
}

// GetCurrentLocation 获取 patient 当前位置（最新采样）
func (s *LocationService) GetCurrentLocation(ctx context.Context, patientID string) (*models.Location, error) {
	return s.locations.GetCurrentLocation(ctx, patientID)
}

// GetLocationHistory 获取位置历史，按时间倒序
func (s *LocationService) GetLocationHistory(ctx context.Context, patientID string) ([]models.Location, error) {
	return s.locations.ListLocations(ctx, patientID)
}

// GetLocationHistoryBetween 获取时间范围内的位置历史
func (s *LocationService) GetLocationHistoryBetween(ctx context.Context, patientID string, start, end time.Time) ([]models.Location, error) {
	return s.locations.ListLocationsBetween(ctx, patientID, start, end)
}
