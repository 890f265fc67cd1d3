package gait

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeaturesNoCycles(t *testing.T) {
	window := verticalWindow(sine(2.0, 20.0, 100))
	fv := ExtractFeatures(window, nil)
	assert.Equal(t, FeatureVector{}, fv)
}

func TestExtractFeaturesSingleCycle(t *testing.T) {
	window := make([][]float64, numChannels)
	window[0] = []float64{1, 1, 1, 1}
	window[1] = []float64{0, 2, 0, 2}
	window[2] = []float64{0, 1, 2, 3}
	for ch := 3; ch < numChannels; ch++ {
		window[ch] = make([]float64, 4)
	}

	fv := ExtractFeatures(window, []Cycle{{Start: 0, End: 4}})

	// Axis 0: constant. Mean 1, no spread.
	assert.InDelta(t, 1.0, fv[0], 1e-12)
	assert.InDelta(t, 0.0, fv[1], 1e-12)
	assert.InDelta(t, 0.0, fv[2], 1e-12)
	// Axis 1: square wave. Mean 1, population std 1, range 2.
	assert.InDelta(t, 1.0, fv[3], 1e-12)
	assert.InDelta(t, 1.0, fv[4], 1e-12)
	assert.InDelta(t, 2.0, fv[5], 1e-12)
	// Axis 2: ramp. Mean 1.5, population std sqrt(1.25), range 3.
	assert.InDelta(t, 1.5, fv[6], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), fv[7], 1e-12)
	assert.InDelta(t, 3.0, fv[8], 1e-12)
}

func TestExtractFeaturesAveragesCycles(t *testing.T) {
	window := make([][]float64, numChannels)
	for ch := range window {
		window[ch] = make([]float64, 8)
	}
	// Axis 0 mean is 1 over the first cycle, 3 over the second.
	copy(window[0], []float64{1, 1, 1, 1, 3, 3, 3, 3})

	fv := ExtractFeatures(window, []Cycle{{Start: 0, End: 4}, {Start: 4, End: 8}})
	assert.InDelta(t, 2.0, fv[0], 1e-12)
}
