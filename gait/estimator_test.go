package gait

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSpeedModel scripts the model path.
type stubSpeedModel struct {
	speed float64
	err   error
}

func (s *stubSpeedModel) Predict([]float64) (float64, error) { return s.speed, s.err }

func TestVarianceSpeedEstimator(t *testing.T) {
	e := NewVarianceSpeedEstimator(DefaultConfig())

	var fv FeatureVector
	fv[1], fv[4], fv[7] = 0.25, 0.25, 0.25
	speed, err := e.EstimateSpeed(fv)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, speed, 1e-12)

	// Large variance clamps to the physiological ceiling.
	fv[1], fv[4], fv[7] = 10, 10, 10
	speed, err = e.EstimateSpeed(fv)
	require.NoError(t, err)
	assert.Equal(t, 4.0, speed)
}

func TestModelSpeedEstimator(t *testing.T) {
	cfg := DefaultConfig()

	speed, err := NewModelSpeedEstimator(&stubSpeedModel{speed: 1.37}, cfg).EstimateSpeed(FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 1.37, speed)

	// Out-of-range predictions clamp rather than propagate.
	speed, err = NewModelSpeedEstimator(&stubSpeedModel{speed: 25}, cfg).EstimateSpeed(FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, speed)
	speed, err = NewModelSpeedEstimator(&stubSpeedModel{speed: -1}, cfg).EstimateSpeed(FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, speed)

	_, err = NewModelSpeedEstimator(&stubSpeedModel{speed: math.NaN()}, cfg).EstimateSpeed(FeatureVector{})
	assert.Error(t, err)
	_, err = NewModelSpeedEstimator(&stubSpeedModel{err: fmt.Errorf("boom")}, cfg).EstimateSpeed(FeatureVector{})
	assert.Error(t, err)
}

func TestEstimateWithFallback(t *testing.T) {
	cfg := DefaultConfig()
	heuristic := NewVarianceSpeedEstimator(cfg)

	var fv FeatureVector
	fv[1], fv[4], fv[7] = 0.5, 0.5, 0.5

	// Failing primary falls back to the heuristic for this call.
	failing := NewModelSpeedEstimator(&stubSpeedModel{err: fmt.Errorf("boom")}, cfg)
	assert.InDelta(t, 1.0, estimateWithFallback(failing, heuristic, fv), 1e-12)

	// Missing primary is the permanent heuristic path.
	assert.InDelta(t, 1.0, estimateWithFallback(nil, heuristic, fv), 1e-12)

	// Healthy primary wins.
	working := NewModelSpeedEstimator(&stubSpeedModel{speed: 2.5}, cfg)
	assert.Equal(t, 2.5, estimateWithFallback(working, heuristic, fv))
}
