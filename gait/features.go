package gait

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ExtractFeatures reduces a set of cycles over a conditioned window to the
// canonical fixed-width descriptor: per cycle and per axis {mean, standard
// deviation, range}, averaged element-wise across cycles, truncated to the
// first FeatureDim values. The reduction is intentionally lossy so the speed
// estimator sees a stable input shape for any stride count. No cycles yield
// the zero vector.
func ExtractFeatures(window [][]float64, cycles []Cycle) FeatureVector {
	var fv FeatureVector
	if len(cycles) == 0 {
		return fv
	}

	// 3 statistics per axis; only the first FeatureDim of the flattened
	// (axis-major) values survive the truncation.
	perCycle := numChannels * 3
	sums := make([]float64, perCycle)
	for _, c := range cycles {
		for axis := 0; axis < numChannels; axis++ {
			seg := window[axis][c.Start:c.End]
			sums[axis*3+0] += stat.Mean(seg, nil)
			sums[axis*3+1] += stat.PopStdDev(seg, nil)
			sums[axis*3+2] += floats.Max(seg) - floats.Min(seg)
		}
	}

	n := float64(len(cycles))
	for i := 0; i < FeatureDim; i++ {
		fv[i] = sums[i] / n
	}
	return fv
}
