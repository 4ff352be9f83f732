package geofence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ZoneStore 引擎依赖的区域查询接口
type ZoneStore interface {
	ListActiveSafeZones(ctx context.Context, patientID string) ([]models.SafeZone, error)
}

// AlertStore 引擎依赖的报警台账接口
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	ListOpenAlertsByKind(ctx context.Context, patientID, kind string) ([]models.Alert, error)
	CloseAlert(ctx context.Context, alertID, actorID string) (*models.Alert, error)
}

// Notifier 报警推送接口（尽力而为，失败不影响评估结果）
type Notifier interface {
	PublishAlert(ctx context.Context, patientID string, alert *models.Alert)
}

// patientState 每个 patient 的评估状态
// mu 串行化同一 patient 的 read-decide-write 序列，
// lastEvaluated 用于丢弃乱序到达的旧采样
type patientState struct {
	mu            sync.Mutex
	lastEvaluated time.Time
}

// Engine 围栏状态机
// 每个 patient 的"当前状态"不单独持久化，每次评估时从台账重建：
// 是否有 open 的 ZONE_EXIT 报警 + 当前是否在任一活跃区域内。
// 状态迁移：
//   INSIDE --离开--> OUTSIDE_ALERTED（创建一条报警）
//   OUTSIDE_ALERTED --仍在外--> OUTSIDE_ALERTED（去重，不重复创建）
//   OUTSIDE_ALERTED --回到区域内--> INSIDE（自动关闭全部 open 报警）
//   无活跃区域时不做任何动作
type Engine struct {
	zones    ZoneStore
	alerts   AlertStore
	notifier Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	patients map[string]*patientState
}

// NewEngine 创建围栏状态机
func NewEngine(zones ZoneStore, alerts AlertStore, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		zones:    zones,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger,
		patients: make(map[string]*patientState),
	}
}

// Evaluate 评估一条新的位置采样，返回本次新建的报警（没有则为 nil）
// 同一 patient 的评估串行执行；比已评估采样更旧的采样直接跳过，
// 避免网络重试的迟到样本推翻更新的判定
func (e *Engine) Evaluate(ctx context.Context, loc *models.Location) (*models.Alert, error) {
	st := e.patientState(loc.PatientID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if loc.Timestamp.Before(st.lastEvaluated) {
		e.logger.Warn("Skipping stale location sample",
			zap.String("patient_id", loc.PatientID),
			zap.Time("sample_time", loc.Timestamp),
			zap.Time("last_evaluated", st.lastEvaluated),
		)
		return nil, nil
	}

	zones, err := e.zones.ListActiveSafeZones(ctx, loc.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active safe zones: %w", err)
	}

	// 未配置围栏：不评估，也不推进水位（建区后首个采样正常评估）
	if len(zones) == 0 {
		return nil, nil
	}

	st.lastEvaluated = loc.Timestamp

	if InAnyZone(loc.Latitude, loc.Longitude, zones) {
		return nil, e.resolveOpenExitAlerts(ctx, loc)
	}

	return e.raiseExitAlert(ctx, loc, zones)
}

// raiseExitAlert patient 在所有活跃区域之外：若尚无 open 的
// ZONE_EXIT 报警则创建一条，否则去重跳过
func (e *Engine) raiseExitAlert(ctx context.Context, loc *models.Location, zones []models.SafeZone) (*models.Alert, error) {
	open, err := e.alerts.ListOpenAlertsByKind(ctx, loc.PatientID, models.AlertKindZoneExit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open exit alerts: %w", err)
	}

	if len(open) > 0 {
		e.logger.Debug("Open exit alert already exists, suppressing duplicate",
			zap.String("patient_id", loc.PatientID),
			zap.String("alert_id", open[0].AlertID),
		)
		return nil, nil
	}

	violated := ViolatedZones(loc.Latitude, loc.Longitude, zones)
	// 多个区域同时被违反时取第一个作为代表
	// （每次离开事件产生一条报警，而不是每个区域一条）
	zone := violated[0]

	alert := e.buildExitAlert(loc, &zone)
	if err := e.alerts.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create exit alert: %w", err)
	}

	e.logger.Info("Zone exit alert created",
		zap.String("alert_id", alert.AlertID),
		zap.String("patient_id", loc.PatientID),
		zap.String("zone_id", zone.ZoneID),
		zap.String("zone_name", zone.Name),
	)

	e.notifier.PublishAlert(ctx, loc.PatientID, alert)

	return alert, nil
}

// resolveOpenExitAlerts patient 回到区域内：自动关闭其全部
// open 的 ZONE_EXIT 报警，处理人记为 SYSTEM_REENTRY
func (e *Engine) resolveOpenExitAlerts(ctx context.Context, loc *models.Location) error {
	open, err := e.alerts.ListOpenAlertsByKind(ctx, loc.PatientID, models.AlertKindZoneExit)
	if err != nil {
		return fmt.Errorf("failed to list open exit alerts: %w", err)
	}

	for i := range open {
		closed, err := e.alerts.CloseAlert(ctx, open[i].AlertID, models.ActorSystemReentry)
		if err != nil {
			e.logger.Error("Failed to auto-resolve exit alert",
				zap.String("alert_id", open[i].AlertID),
				zap.String("patient_id", loc.PatientID),
				zap.Error(err),
			)
			// 继续关闭其余报警，不中断
			continue
		}

		e.logger.Info("Zone exit alert auto-resolved on re-entry",
			zap.String("alert_id", closed.AlertID),
			zap.String("patient_id", loc.PatientID),
		)

		e.notifier.PublishAlert(ctx, loc.PatientID, closed)
	}

	return nil
}

// buildExitAlert 构建 ZONE_EXIT 报警记录
func (e *Engine) buildExitAlert(loc *models.Location, zone *models.SafeZone) *models.Alert {
	zoneID := zone.ZoneID
	return &models.Alert{
		AlertID:          uuid.New().String(),
		PatientID:        loc.PatientID,
		ZoneID:           &zoneID,
		Kind:             models.AlertKindZoneExit,
		Message:          fmt.Sprintf("Patient has exited safe zone: %s", zone.Name),
		PatientLatitude:  loc.Latitude,
		PatientLongitude: loc.Longitude,
		TriggeredAt:      time.Now().UTC(),
		Acknowledged:     false,
	}
}

func (e *Engine) patientState(patientID string) *patientState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.patients[patientID]
	if !ok {
		st = &patientState{}
		e.patients[patientID] = st
	}
	return st
}
