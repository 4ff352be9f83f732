package models

import (
	"time"
)

// SafeZone 安全区域（对应 safe_zones 表）
// 圆形区域：中心坐标 + 半径（米）。active=false 表示软删除，
// 不参与围栏评估，但历史报警仍保留对它的引用。
type SafeZone struct {
	ZoneID          string    `json:"zone_id" db:"zone_id"`
	PatientID       string    `json:"patient_id" db:"patient_id"`
	Name            string    `json:"name" db:"name"` // 如 "Home", "Park"
	CenterLatitude  float64   `json:"center_latitude" db:"center_latitude"`
	CenterLongitude float64   `json:"center_longitude" db:"center_longitude"`
	RadiusMeters    float64   `json:"radius_meters" db:"radius_meters"` // 必须 > 0
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy       string    `json:"created_by" db:"created_by"` // 创建人（caretaker ID）
}
