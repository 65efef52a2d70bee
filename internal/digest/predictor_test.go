package digest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepulse/homepulse/internal/model"
)

var testEntity = &model.MonitoredEntity{
	EntityID:     "sensor.front_door_battery",
	FriendlyName: "Front Door Battery",
	Domain:       "sensor",
	Category:     "energy",
	Priority:     "normal",
}

func TestPredictBatterySteadyDrain(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	points := []samplePoint{
		{ts: t0, value: 80},
		{ts: t0.Add(24 * time.Hour), value: 75},
		{ts: t0.Add(48 * time.Hour), value: 70},
	}

	p := predictBattery(testEntity, points)
	require.NotNil(t, p)
	assert.Equal(t, "sensor.front_door_battery", p.EntityID)
	assert.Equal(t, 70, p.CurrentLevel)
	assert.InDelta(t, 5.0, p.DrainRatePerDay, 1e-9)
	assert.Equal(t, 12, p.DaysRemaining) // (70-10)/5
	assert.Equal(t, 3, p.DataPoints)
	assert.True(t, p.NeedsAttention)
}

func TestPredictBatterySkipsSingleSample(t *testing.T) {
	t0 := time.Now()
	assert.Nil(t, predictBattery(testEntity, []samplePoint{{ts: t0, value: 50}}))
	assert.Nil(t, predictBattery(testEntity, nil))
}

func TestPredictBatterySkipsOutOfRangeLatest(t *testing.T) {
	t0 := time.Now()
	points := []samplePoint{
		{ts: t0, value: 90},
		{ts: t0.Add(time.Hour), value: 250}, // not a percentage
	}
	assert.Nil(t, predictBattery(testEntity, points))
}

func TestPredictBatterySkipsStableOrCharging(t *testing.T) {
	t0 := time.Now()

	flat := []samplePoint{
		{ts: t0, value: 80},
		{ts: t0.Add(24 * time.Hour), value: 80},
	}
	assert.Nil(t, predictBattery(testEntity, flat))

	charging := []samplePoint{
		{ts: t0, value: 40},
		{ts: t0.Add(24 * time.Hour), value: 60},
	}
	assert.Nil(t, predictBattery(testEntity, charging))
}

func TestPredictBatteryZeroTimeVariance(t *testing.T) {
	t0 := time.Now()
	points := []samplePoint{
		{ts: t0, value: 80},
		{ts: t0, value: 70},
	}
	// Same timestamp: regression denominator is 0, slope 0, excluded by
	// the drain-rate filter.
	assert.Nil(t, predictBattery(testEntity, points))
}

func TestPredictBatteryBelowFloor(t *testing.T) {
	t0 := time.Now()
	points := []samplePoint{
		{ts: t0, value: 12},
		{ts: t0.Add(24 * time.Hour), value: 8},
	}
	p := predictBattery(testEntity, points)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.DaysRemaining)
	assert.False(t, p.NeedsAttention)
}

func TestNeedsAttentionWindow(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	// 1%/day drain from 45%: (45-10)/1 = 35 days, outside the 30-day
	// attention horizon.
	points := []samplePoint{
		{ts: t0, value: 46},
		{ts: t0.Add(24 * time.Hour), value: 45},
	}
	p := predictBattery(testEntity, points)
	require.NotNil(t, p)
	assert.Equal(t, 35, p.DaysRemaining)
	assert.False(t, p.NeedsAttention)
}
