package geo

import (
	"math"
)

// EarthRadiusMeters 地球半径（米），haversine 计算用
const EarthRadiusMeters = 6371000.0

// Distance 计算两个经纬度坐标之间的大圆距离（米）
// 使用 haversine 公式，纯函数：Distance(A,B) == Distance(B,A)，
// Distance(A,A) == 0，结果始终非负
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
