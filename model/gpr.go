package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// SpeedGPR is a Gaussian-process regressor reduced to its prediction form:
// speed = bias + sum_i alpha_i * k(x, support_i) with an RBF kernel.
type SpeedGPR struct {
	LengthScale    float64     `json:"length_scale"`
	SignalVariance float64     `json:"signal_variance"`
	Bias           float64     `json:"bias"`
	Support        [][]float64 `json:"support"`
	Alpha          []float64   `json:"alpha"`
}

// LoadSpeedGPR reads and validates a regressor artifact.
func LoadSpeedGPR(path string) (*SpeedGPR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read speed regressor: %w", err)
	}
	var g SpeedGPR
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode speed regressor: %w", err)
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("speed regressor %s: %w", path, err)
	}
	return &g, nil
}

func (g *SpeedGPR) validate() error {
	if g.LengthScale <= 0 {
		return fmt.Errorf("length scale %v", g.LengthScale)
	}
	if len(g.Support) == 0 || len(g.Support) != len(g.Alpha) {
		return fmt.Errorf("support/alpha shape mismatch")
	}
	dim := len(g.Support[0])
	for _, s := range g.Support {
		if len(s) != dim {
			return fmt.Errorf("ragged support vectors")
		}
	}
	return nil
}

// Predict implements the speed-model contract.
func (g *SpeedGPR) Predict(features []float64) (float64, error) {
	if len(features) != len(g.Support[0]) {
		return 0, fmt.Errorf("descriptor has %d elements, regressor expects %d",
			len(features), len(g.Support[0]))
	}
	denom := 2 * g.LengthScale * g.LengthScale
	speed := g.Bias
	for i, s := range g.Support {
		d2 := floats.Distance(features, s, 2)
		speed += g.Alpha[i] * g.SignalVariance * math.Exp(-d2*d2/denom)
	}
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0, fmt.Errorf("non-finite prediction")
	}
	return speed, nil
}
