package gait

import (
	"fmt"
	"log"
	"math"
)

// SpeedModel maps the canonical descriptor to a walking speed in m/s.
type SpeedModel interface {
	Predict(features []float64) (float64, error)
}

// SpeedEstimator produces an instantaneous speed estimate from a descriptor.
type SpeedEstimator interface {
	EstimateSpeed(fv FeatureVector) (float64, error)
}

// VarianceSpeedEstimator is the heuristic path: the average of the
// standard-deviation components of the descriptor (one per axis triplet),
// scaled by a fixed constant. Higher movement variance reads as higher
// speed; a rough proxy, bounded to the plausible human range.
type VarianceSpeedEstimator struct {
	scale    float64
	maxSpeed float64
}

// NewVarianceSpeedEstimator builds the heuristic estimator from config.
func NewVarianceSpeedEstimator(cfg Config) *VarianceSpeedEstimator {
	return &VarianceSpeedEstimator{scale: cfg.SpeedScale, maxSpeed: cfg.MaxSpeed}
}

// EstimateSpeed implements SpeedEstimator and never fails.
func (e *VarianceSpeedEstimator) EstimateSpeed(fv FeatureVector) (float64, error) {
	variance := (fv[1] + fv[4] + fv[7]) / 3
	return clamp(variance*e.scale, 0, e.maxSpeed), nil
}

// ModelSpeedEstimator is the model-backed path: a regression call clamped to
// the plausible range. Invocation failures surface to the caller for the
// per-call fallback.
type ModelSpeedEstimator struct {
	model    SpeedModel
	maxSpeed float64
}

// NewModelSpeedEstimator wraps a loaded regression model.
func NewModelSpeedEstimator(m SpeedModel, cfg Config) *ModelSpeedEstimator {
	return &ModelSpeedEstimator{model: m, maxSpeed: cfg.MaxSpeed}
}

// EstimateSpeed implements SpeedEstimator.
func (e *ModelSpeedEstimator) EstimateSpeed(fv FeatureVector) (float64, error) {
	speed, err := e.model.Predict(fv[:])
	if err != nil {
		return 0, fmt.Errorf("speed model inference: %w", err)
	}
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0, fmt.Errorf("speed model returned non-finite value")
	}
	return clamp(speed, 0, e.maxSpeed), nil
}

// estimateWithFallback tries the primary estimator and falls back to the
// heuristic for this call only on failure.
func estimateWithFallback(primary, fallback SpeedEstimator, fv FeatureVector) float64 {
	if primary != nil {
		speed, err := primary.EstimateSpeed(fv)
		if err == nil {
			return speed
		}
		log.Printf("[Gait] speed estimation fell back to heuristic: %v", err)
	}
	speed, _ := fallback.EstimateSpeed(fv)
	return speed
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
