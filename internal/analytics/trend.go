package analytics

import "math"

const (
	TrendInsufficientData = "insufficient_data"
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"

	// trendSlopeThreshold is the per-day change that counts as a trend.
	trendSlopeThreshold = 100
	minTrendPoints      = 3
	predictionDays      = 7
)

type Trend struct {
	Direction        string  `json:"direction"`
	Slope            float64 `json:"slope"`
	PredictedAverage float64 `json:"predictedAverage"`
	Points           int     `json:"points"`
}

// WeeklyTrend fits a least-squares line through values (one per day, oldest
// first) and projects the average of the next seven days.
func WeeklyTrend(values []float64) Trend {
	n := len(values)
	if n < minTrendPoints {
		return Trend{Direction: TrendInsufficientData, Points: n}
	}

	slope, intercept := linearFit(values)
	// Mean of intercept + slope*x over x = n..n+6.
	predicted := intercept + slope*(float64(n)+float64(predictionDays-1)/2)

	t := Trend{
		Slope:            round2(slope),
		PredictedAverage: math.Max(0, round2(predicted)),
		Points:           n,
		Direction:        TrendStable,
	}
	switch {
	case slope > trendSlopeThreshold:
		t.Direction = TrendIncreasing
	case slope < -trendSlopeThreshold:
		t.Direction = TrendDecreasing
	}
	return t
}

func linearFit(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// GoalProbability blends how often the goal was met with how close the
// projected trend gets to it. The result is in [0, 1].
func GoalProbability(values []float64, goal float64) float64 {
	if len(values) == 0 || goal <= 0 {
		return 0
	}
	hits := 0
	var sum float64
	for _, v := range values {
		if v >= goal {
			hits++
		}
		sum += v
	}
	hitRate := float64(hits) / float64(len(values))

	projected := sum / float64(len(values))
	if t := WeeklyTrend(values); t.Direction != TrendInsufficientData {
		projected = t.PredictedAverage
	}
	return round2(0.5*hitRate + 0.5*math.Min(1, projected/goal))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
