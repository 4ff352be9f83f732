package service

import (
	"context"

	"github.com/jg-Harshini/Trackfence/internal/models"

	"go.uber.org/zap"
)

// AlertStore 报警服务依赖的台账接口
type AlertStore interface {
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, patientID string) ([]models.Alert, error)
	ListOpenAlerts(ctx context.Context, patientID string) ([]models.Alert, error)
	CloseAlert(ctx context.Context, alertID, actorID string) (*models.Alert, error)
}

// AlertNotifier 报警推送接口
type AlertNotifier interface {
	PublishAlert(ctx context.Context, patientID string, alert *models.Alert)
}

// AlertService 报警查询与人工确认
// 人工确认和引擎的自动关闭共用台账的 CloseAlert，
// 只是 actorID 不同（caretaker ID vs SYSTEM_REENTRY）
type AlertService struct {
	alerts   AlertStore
	notifier AlertNotifier
	logger   *zap.Logger
}

// NewAlertService 创建报警服务
func NewAlertService(alerts AlertStore, notifier AlertNotifier, logger *zap.Logger) *AlertService {
	return &AlertService{
		alerts:   alerts,
		notifier: notifier,
		logger:   logger,
	}
}

// ListAlerts 查询 patient 的报警；unacknowledgedOnly 时只返回 open 报警
func (s *AlertService) ListAlerts(ctx context.Context, patientID string, unacknowledgedOnly bool) ([]models.Alert, error) {
	if unacknowledgedOnly {
		return s.alerts.ListOpenAlerts(ctx, patientID)
	}
	return s.alerts.ListAlerts(ctx, patientID)
}

// AcknowledgeAlert caretaker 人工确认报警
// 报警不存在返回 repository.ErrAlertNotFound；
// 已关闭的报警按 first-close-wins 原样返回
func (s *AlertService) AcknowledgeAlert(ctx context.Context, alertID, caretakerID string) (*models.Alert, error) {
	alert, err := s.alerts.CloseAlert(ctx, alertID, caretakerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Alert acknowledged",
		zap.String("alert_id", alertID),
		zap.String("patient_id", alert.PatientID),
		zap.String("caretaker_id", caretakerID),
	)

	s.notifier.PublishAlert(ctx, alert.PatientID, alert)

	return alert, nil
}
