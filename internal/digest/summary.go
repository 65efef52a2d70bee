package digest

import (
	"fmt"
	"math"
	"strings"

	"github.com/homepulse/homepulse/internal/model"
)

// DataQualityIssue flags a statistical outlier in an entity's samples.
type DataQualityIssue struct {
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id"`
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

// entitySeries is one entity's samples within the analysis window.
type entitySeries struct {
	entityID     string
	friendlyName string
	category     string
	priority     string
	numeric      []float64
	states       []string
}

// summarizeEntities groups analysis rows by entity and renders one prompt
// line per entity. Numeric series get min/max/avg plus outlier detection;
// discrete series list their unique states.
func summarizeEntities(rows []model.AnalysisRow) (lines []string, issues []DataQualityIssue) {
	order := make([]string, 0)
	byEntity := make(map[string]*entitySeries)
	for _, r := range rows {
		s, ok := byEntity[r.EntityID]
		if !ok {
			s = &entitySeries{
				entityID:     r.EntityID,
				friendlyName: r.FriendlyName,
				category:     r.Category,
				priority:     r.Priority,
			}
			byEntity[r.EntityID] = s
			order = append(order, r.EntityID)
		}
		if r.ValueNum != nil {
			s.numeric = append(s.numeric, *r.ValueNum)
		} else if r.ValueStr != nil {
			s.states = append(s.states, *r.ValueStr)
		}
	}

	for _, id := range order {
		s := byEntity[id]
		var stats string
		if len(s.numeric) > 0 {
			min, max, avg := minMaxAvg(s.numeric)
			stddev := populationStdDev(s.numeric, avg)

			outlierFlag := ""
			if outliers := detectOutliers(s.numeric, avg, stddev); len(outliers) > 0 {
				outlierFlag = " ⚠️ POSSIBLE DATA QUALITY ISSUE"
				issues = append(issues, DataQualityIssue{
					Entity:   s.friendlyName,
					EntityID: s.entityID,
					Issue: fmt.Sprintf("Value(s) %s are >3 std dev from mean (%.1f ± %.1f)",
						joinFloats(outliers), avg, stddev),
					Severity: "data_quality",
				})
			}
			stats = fmt.Sprintf("min: %.1f, max: %.1f, avg: %.1f%s", min, max, avg, outlierFlag)
		} else if len(s.states) > 0 {
			stats = "states: " + strings.Join(uniqueStates(s.states), ", ")
		} else {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%s, %s): %s", s.friendlyName, s.category, s.priority, stats))
	}
	return lines, issues
}

func minMaxAvg(values []float64) (min, max, avg float64) {
	min, max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, max, sum / float64(len(values))
}

// populationStdDev divides by N, not N-1.
func populationStdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// detectOutliers returns samples strictly more than 3 standard deviations
// from the mean. A zero stddev never flags.
func detectOutliers(values []float64, mean, stddev float64) []float64 {
	if stddev <= 0 {
		return nil
	}
	var out []float64
	for _, v := range values {
		if math.Abs(v-mean) > 3*stddev {
			out = append(out, v)
		}
	}
	return out
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(parts, ", ")
}

func uniqueStates(states []string) []string {
	seen := make(map[string]bool, len(states))
	var out []string
	for _, s := range states {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
