package digest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

const (
	millisPerDay      = 24 * 60 * 60 * 1000
	minDrainPerDay    = 0.01
	batteryFloor      = 10.0
	attentionHorizon  = 30
	predictionHistory = 7 * 24 * time.Hour
)

// samplePoint is one (timestamp, value) battery reading.
type samplePoint struct {
	ts    time.Time
	value float64
}

// predictBattery fits an ordinary least-squares line through one entity's
// trailing samples and projects days until the 10% floor. Returns nil when
// the entity should be skipped: fewer than 2 samples, latest value outside
// [0,100], or drain rate at or below 0.01 %/day (stable or charging).
func predictBattery(entity *model.MonitoredEntity, points []samplePoint) *model.BatteryPrediction {
	if len(points) < 2 {
		return nil
	}
	latest := points[len(points)-1].value
	if latest < 0 || latest > 100 {
		return nil
	}

	slope := regressionSlope(points)
	drainPerDay := -slope * millisPerDay
	if drainPerDay <= minDrainPerDay {
		return nil
	}

	daysRemaining := 0
	if latest > batteryFloor {
		daysRemaining = int(math.Round((latest - batteryFloor) / drainPerDay))
	}

	return &model.BatteryPrediction{
		EntityID:        entity.EntityID,
		FriendlyName:    entity.FriendlyName,
		CurrentLevel:    int(math.Round(latest)),
		DrainRatePerDay: math.Round(drainPerDay*10) / 10,
		DaysRemaining:   daysRemaining,
		DataPoints:      len(points),
		NeedsAttention:  daysRemaining > 0 && daysRemaining <= attentionHorizon,
	}
}

// regressionSlope returns the OLS slope in value units per millisecond.
// Time origin shifts to the first sample for numerical stability. Zero
// time variance yields slope 0.
func regressionSlope(points []samplePoint) float64 {
	n := float64(len(points))
	t0 := points[0].ts
	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		x := float64(p.ts.Sub(t0).Milliseconds())
		y := p.value
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

// BatteryPredictions computes drain projections for all battery entities,
// sorted most urgent first.
func (s *Service) BatteryPredictions(ctx context.Context) ([]model.BatteryPrediction, error) {
	entities, err := s.store.Entities().BatteryEntities(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := now.Add(-predictionHistory)

	var predictions []model.BatteryPrediction
	for _, entity := range entities {
		snaps, err := s.store.Snapshots().Range(ctx, entity.EntityID, start, now)
		if err != nil {
			return nil, err
		}
		var points []samplePoint
		for _, snap := range snaps {
			if snap.ValueNum == nil {
				continue
			}
			points = append(points, samplePoint{ts: snap.Timestamp, value: *snap.ValueNum})
		}
		if p := predictBattery(entity, points); p != nil {
			predictions = append(predictions, *p)
		}
	}

	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].DaysRemaining < predictions[j].DaysRemaining
	})
	return predictions, nil
}
