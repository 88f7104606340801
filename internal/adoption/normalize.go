// Package adoption builds the per-organization adoption leaderboard from
// per-user metric rows.
package adoption

import (
	"math"
	"sort"
)

// bounds is the robust scaling band for one signal across the cohort.
type bounds struct {
	lower float64
	upper float64
}

// percentile computes the p-th percentile of sorted (ascending) values with
// linear interpolation between order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	k := float64(len(sorted)-1) * p / 100
	lower := math.Floor(k)
	upper := math.Ceil(k)
	if lower == upper {
		return sorted[int(k)]
	}
	return sorted[int(lower)]*(upper-k) + sorted[int(upper)]*(k-lower)
}

// signalBounds returns the 5th/95th percentile band for one signal.
func signalBounds(values []float64) bounds {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return bounds{
		lower: percentile(sorted, 5),
		upper: percentile(sorted, 95),
	}
}

// robustScale maps value into [0,1] within the band, clamping outliers.
// A degenerate band (all values equal, or a singleton cohort) scales to 1.0
// for every member rather than dividing by zero or dropping the signal.
func robustScale(value float64, b bounds) float64 {
	if b.upper <= b.lower {
		return 1.0
	}
	return math.Max(0, math.Min(1, (value-b.lower)/(b.upper-b.lower)))
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
