package models

import (
	"time"
)

// 位置来源（source 字段取值）
const (
	SourceManual  = "MANUAL"      // 手动上报（前端或测试工具）
	SourceShipday = "SHIPDAY_API" // Shipday 外部定位服务拉取
	SourceDevice  = "MQTT_DEVICE" // GPS 追踪设备经 MQTT 上报
)

// Location 位置采样（对应 locations 表）
// 一旦写入不再修改，按 patient_id + timestamp 排序
type Location struct {
	LocationID string     `json:"location_id" db:"location_id"`
	PatientID  string     `json:"patient_id" db:"patient_id"`
	Latitude   float64    `json:"latitude" db:"latitude"`
	Longitude  float64    `json:"longitude" db:"longitude"`
	Accuracy   *float64   `json:"accuracy,omitempty" db:"accuracy"` // 定位精度（米），可选
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	Source     string     `json:"source" db:"source"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
