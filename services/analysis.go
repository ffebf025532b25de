package services

import (
	"math"
	"time"

	"traffic-insight-api/models"

	"gonum.org/v1/gonum/stat"
)

const (
	// Vehicle counts at or above these bounds move a location into the
	// next congestion tier.
	mediumCongestionFloor = 20
	highCongestionFloor   = 50

	// A single reading with more accident reports than this marks the
	// whole location as a high-accident zone.
	highAccidentThreshold = 5
)

const (
	ImprovementHighAccident = "Install additional traffic signals and increase accident monitoring"
	ImprovementDefault      = "Optimize existing signal timings"
)

// ClassifyCongestion maps a vehicle count onto the coarse three-tier scale.
// Tier lower bounds are inclusive: exactly 20 is Medium, exactly 50 is High.
func ClassifyCongestion(vehicleCount int) models.CongestionLevel {
	switch {
	case vehicleCount < mediumCongestionFloor:
		return models.CongestionLow
	case vehicleCount < highCongestionFloor:
		return models.CongestionMedium
	default:
		return models.CongestionHigh
	}
}

// ComputeSafetyScore combines traffic volume and accident frequency into a
// score in [0, 100]. With zero accident reports the score is exactly 100;
// otherwise each accident costs 5 points and every 10 vehicles cost 1,
// clamped at 0.
func ComputeSafetyScore(vehicleCount, accidentReports int) float64 {
	if accidentReports == 0 {
		return 100
	}
	score := 100 - float64(vehicleCount)/10 - float64(accidentReports)*5
	return math.Max(0, score)
}

// GenerateInsights reduces the full reading history into one PlannerInsight
// per distinct location, in order of first appearance. It is pure; persisting
// the result is up to the caller.
func GenerateInsights(readings []models.TrafficReading) []models.PlannerInsight {
	counts := make(map[string][]float64)
	highAccident := make(map[string]bool)
	var order []string

	for _, r := range readings {
		if _, seen := counts[r.Location]; !seen {
			order = append(order, r.Location)
		}
		counts[r.Location] = append(counts[r.Location], float64(r.VehicleCount))
		if r.AccidentReports > highAccidentThreshold {
			highAccident[r.Location] = true
		}
	}

	now := time.Now().UTC()
	insights := make([]models.PlannerInsight, 0, len(order))
	for _, loc := range order {
		mean := stat.Mean(counts[loc], nil)

		zones := []string{}
		suggestion := ImprovementDefault
		if highAccident[loc] {
			zones = []string{loc}
			suggestion = ImprovementHighAccident
		}

		insights = append(insights, models.PlannerInsight{
			Location:              loc,
			AverageCongestion:     ClassifyCongestion(int(mean)),
			HighAccidentZones:     zones,
			SuggestedImprovements: suggestion,
			GeneratedAt:           now,
		})
	}
	return insights
}
