package geofence

import (
	"github.com/jg-Harshini/Trackfence/internal/geo"
	"github.com/jg-Harshini/Trackfence/internal/models"
)

// IsWithin 判断坐标是否落在安全区域内
// 边界按包含处理：距离恰好等于半径视为在区域内
func IsWithin(lat, lon float64, zone *models.SafeZone) bool {
	d := geo.Distance(lat, lon, zone.CenterLatitude, zone.CenterLongitude)
	return d <= zone.RadiusMeters
}

// InAnyZone 判断坐标是否至少落在一个区域内
// zones 为空时返回 false（调用方需先判断是否配置了围栏）
func InAnyZone(lat, lon float64, zones []models.SafeZone) bool {
	for i := range zones {
		if IsWithin(lat, lon, &zones[i]) {
			return true
		}
	}
	return false
}

// ViolatedZones 返回不包含该坐标的区域子集
// 保持 zones 的原始顺序（存储顺序），保证测试可确定
func ViolatedZones(lat, lon float64, zones []models.SafeZone) []models.SafeZone {
	var violated []models.SafeZone
	for i := range zones {
		if !IsWithin(lat, lon, &zones[i]) {
			violated = append(violated, zones[i])
		}
	}
	return violated
}
