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

// ErrAlertNotFound 报警不存在
var ErrAlertNotFound = errors.New("alert not found")

// AlertRepository 报警台账（对应 alerts 表）
// 关闭操作采用 first-close-wins：只更新 acknowledged=false 的行，
// 已关闭的报警重复关闭不修改任何字段
type AlertRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertRepository 创建报警台账
func NewAlertRepository(db *sql.DB, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

const alertColumns = `
		alert_id,
		patient_id,
		zone_id,
		kind,
		message,
		patient_latitude,
		patient_longitude,
		triggered_at,
		acknowledged,
		acknowledged_at,
		acknowledged_by
`

// CreateAlert 写入一条报警记录
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is required")
	}
	if alert.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}
	if alert.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}

	query := `
		INSERT INTO alerts (` + alertColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		alert.AlertID,
		alert.PatientID,
		alert.ZoneID,
		alert.Kind,
		alert.Message,
		alert.PatientLatitude,
		alert.PatientLongitude,
		alert.TriggeredAt,
		alert.Acknowledged,
		alert.AcknowledgedAt,
		alert.AcknowledgedBy,
	)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// GetAlert 根据 alert_id 获取单条报警
func (r *AlertRepository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE alert_id = $1
	`

	alert, err := r.scanAlert(r.db.QueryRowContext(ctx, query, alertID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: alert_id=%s", ErrAlertNotFound, alertID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// ListAlerts 获取 patient 的全部报警，按触发时间倒序
func (r *AlertRepository) ListAlerts(ctx context.Context, patientID string) ([]models.Alert, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE patient_id = $1
		ORDER BY triggered_at DESC
	`

	return r.queryAlerts(ctx, query, patientID)
}

// ListOpenAlerts 获取 patient 的全部 open 报警，按触发时间倒序
func (r *AlertRepository) ListOpenAlerts(ctx context.Context, patientID string) ([]models.Alert, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE patient_id = $1
		  AND acknowledged = false
		ORDER BY triggered_at DESC
	`

	return r.queryAlerts(ctx, query, patientID)
}

// ListOpenAlertsByKind 获取 patient 指定类型的 open 报警，按触发时间倒序
func (r *AlertRepository) ListOpenAlertsByKind(ctx context.Context, patientID, kind string) ([]models.Alert, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if kind == "" {
		return nil, fmt.Errorf("kind is required")
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE patient_id = $1
		  AND kind = $2
		  AND acknowledged = false
		ORDER BY triggered_at DESC
	`

	return r.queryAlerts(ctx, query, patientID, kind)
}

// CloseAlert 关闭报警（caretaker 确认和系统自动关闭共用此操作，
// 仅 actorID 不同）。报警不存在返回 ErrAlertNotFound；已关闭的
// 报警按 first-close-wins 原样返回，不做任何修改
func (r *AlertRepository) CloseAlert(ctx context.Context, alertID, actorID string) (*models.Alert, error) {
	if alertID == "" {
		return nil, fmt.Errorf("alert_id is required")
	}
	if actorID == "" {
		return nil, fmt.Errorf("actor_id is required")
	}

	query := `
		UPDATE alerts
		SET acknowledged = true,
		    acknowledged_at = $2,
		    acknowledged_by = $3
		WHERE alert_id = $1
		  AND acknowledged = false
	`

	result, err := r.db.ExecContext(ctx, query, alertID, time.Now().UTC(), actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to close alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read close result: %w", err)
	}

	if affected == 0 {
		// 要么不存在，要么已经关闭；GetAlert 区分两种情况
		alert, err := r.GetAlert(ctx, alertID)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("Alert already closed, keeping original close info",
			zap.String("alert_id", alertID),
			zap.String("actor_id", actorID),
		)
		return alert, nil
	}

	return r.GetAlert(ctx, alertID)
}

func (r *AlertRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]models.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		alert, err := r.scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *AlertRepository) scanAlert(row rowScanner) (*models.Alert, error) {
	var alert models.Alert
	var zoneID, acknowledgedBy sql.NullString
	var acknowledgedAt sql.NullTime

	err := row.Scan(
		&alert.AlertID,
		&alert.PatientID,
		&zoneID,
		&alert.Kind,
		&alert.Message,
		&alert.PatientLatitude,
		&alert.PatientLongitude,
		&alert.TriggeredAt,
		&alert.Acknowledged,
		&acknowledgedAt,
		&acknowledgedBy,
	)
	if err != nil {
		return nil, err
	}

	// 处理可空字段
	if zoneID.Valid {
		alert.ZoneID = &zoneID.String
	}
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	if acknowledgedBy.Valid {
		alert.AcknowledgedBy = &acknowledgedBy.String
	}

	return &alert, nil
}
