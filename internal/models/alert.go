package models

import (
	"time"
)

// 报警类型（kind 字段取值）
const (
	AlertKindZoneExit   = "ZONE_EXIT"   // 离开所有安全区域
	AlertKindZoneEntry  = "ZONE_ENTRY"  // 重新进入安全区域（预留，引擎当前不产生）
	AlertKindLowBattery = "LOW_BATTERY" // 设备低电量（预留）
	AlertKindNoMovement = "NO_MOVEMENT" // 长时间无移动（预留）
)

// ActorSystemReentry 系统自动关闭报警时使用的处理人标识
// 与任何真实 caretaker ID 区分开
const ActorSystemReentry = "SYSTEM_REENTRY"

// Alert 报警记录（对应 alerts 表）
// 不变式：要么 open（acknowledged=false，AcknowledgedAt/By 为空），
// 要么 closed（三个字段同时设置）。关闭采用 first-close-wins：
// 已关闭的报警再次关闭不改变任何字段。
type Alert struct {
	AlertID          string     `json:"alert_id" db:"alert_id"`
	PatientID        string     `json:"patient_id" db:"patient_id"`
	ZoneID           *string    `json:"zone_id,omitempty" db:"zone_id"` // 非区域类报警为空
	Kind             string     `json:"kind" db:"kind"`
	Message          string     `json:"message" db:"message"`
	PatientLatitude  float64    `json:"patient_latitude" db:"patient_latitude"`
	PatientLongitude float64    `json:"patient_longitude" db:"patient_longitude"`
	TriggeredAt      time.Time  `json:"triggered_at" db:"triggered_at"`
	Acknowledged     bool       `json:"acknowledged" db:"acknowledged"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	AcknowledgedBy   *string    `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
}

// IsOpen 报警是否仍处于 open 状态
func (a *Alert) IsOpen() bool {
	return !a.Acknowledged
}
