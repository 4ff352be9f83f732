package geofence

import (
	"testing"

	"github.com/jg-Harshini/Trackfence/internal/geo"
	"github.com/jg-Harshini/Trackfence/internal/models"

	"github.com/stretchr/testify/assert"
)

func zone(id string, lat, lon, radius float64) models.SafeZone {
	return models.SafeZone{
		ZoneID:          id,
		PatientID:       "patient-1",
		Name:            id,
		CenterLatitude:  lat,
		CenterLongitude: lon,
		RadiusMeters:    radius,
		Active:          true,
	}
}

func TestIsWithin_Center(t *testing.T) {
	z := zone("home", 40.0, -75.0, 100)
	assert.True(t, IsWithin(40.0, -75.0, &z))
}

func TestIsWithin_BoundaryInclusive(t *testing.T) {
	// 半径恰好等于点到圆心的距离时，边界点算在区域内
	d := geo.Distance(40.0, -75.0, 40.002, -75.0)

	onBoundary := zone("home", 40.0, -75.0, d)
	assert.True(t, IsWithin(40.002, -75.0, &onBoundary))

	justOutside := zone("home", 40.0, -75.0, d-0.001)
	assert.False(t, IsWithin(40.002, -75.0, &justOutside))
}

func TestIsWithin_OutsideRadius(t *testing.T) {
	// 0.002 度纬度差约 222 米，半径只有 100 米
	z := zone("home", 40.0, -75.0, 100)
	assert.False(t, IsWithin(40.002, -75.0, &z))
}

func TestInAnyZone(t *testing.T) {
	zones := []models.SafeZone{
		zone("a", 40.0, -75.0, 100),
		zone("b", 41.0, -75.0, 100),
	}

	assert.True(t, InAnyZone(40.0, -75.0, zones))
	assert.True(t, InAnyZone(41.0, -75.0, zones))
	assert.False(t, InAnyZone(40.5, -75.0, zones))
	assert.False(t, InAnyZone(40.0, -75.0, nil))
}

func TestViolatedZones_OrderStable(t *testing.T) {
	zones := []models.SafeZone{
		zone("a", 40.0, -75.0, 100),
		zone("b", 41.0, -75.0, 100),
		zone("c", 42.0, -75.0, 100),
	}

	// 在 a 内，b 和 c 被违反，顺序与存储顺序一致
	violated := ViolatedZones(40.0, -75.0, zones)
	assert.Len(t, violated, 2)
	assert.Equal(t, "b", violated[0].ZoneID)
	assert.Equal(t, "c", violated[1].ZoneID)

	// 全部在外
	violated = ViolatedZones(10.0, 10.0, zones)
	assert.Len(t, violated, 3)
	assert.Equal(t, "a", violated[0].ZoneID)
}
