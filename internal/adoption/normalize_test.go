package adoption

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileInterpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	assert.InDelta(t, 10.0, percentile(sorted, 0), 1e-9)
	assert.InDelta(t, 30.0, percentile(sorted, 50), 1e-9)
	assert.InDelta(t, 50.0, percentile(sorted, 100), 1e-9)
	// 5th percentile of five values: k = 4*0.05 = 0.2 -> between 10 and 20.
	assert.InDelta(t, 12.0, percentile(sorted, 5), 1e-9)
	assert.InDelta(t, 48.0, percentile(sorted, 95), 1e-9)
}

func TestPercentileEmpty(t *testing.T) {
	assert.Equal(t, 0.0, percentile(nil, 50))
}

func TestSignalBoundsDoesNotSortCaller(t *testing.T) {
	values := []float64{5, 1, 3}
	b := signalBounds(values)
	assert.Equal(t, []float64{5, 1, 3}, values)
	assert.Less(t, b.lower, b.upper)
}

func TestRobustScaleClampsOutliers(t *testing.T) {
	b := bounds{lower: 10, upper: 20}
	assert.Equal(t, 0.0, robustScale(5, b))
	assert.Equal(t, 1.0, robustScale(25, b))
	assert.InDelta(t, 0.5, robustScale(15, b), 1e-9)
}

func TestRobustScaleDegenerateBandIsOne(t *testing.T) {
	// Everyone equal, or a singleton cohort: the signal maxes out for all.
	b := bounds{lower: 7, upper: 7}
	assert.Equal(t, 1.0, robustScale(7, b))
	assert.Equal(t, 1.0, robustScale(0, b))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 66.7, round1(66.666))
	assert.Equal(t, 100.0, round1(99.99))
	assert.Equal(t, 0.0, round1(0.04))
}
