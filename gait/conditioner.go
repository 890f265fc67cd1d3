package gait

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Conditioner band-limits and normalizes raw sample windows ahead of
// contact detection. The band-pass design is fixed to the gait frequency
// band at construction; conditioning itself is a pure function of its input.
type Conditioner struct {
	filter *bandpass
}

// NewConditioner designs the zero-phase band-pass for the configured band.
func NewConditioner(cfg Config) (*Conditioner, error) {
	f, err := newBandpass(cfg.FilterOrder, cfg.LowCutHz, cfg.HighCutHz, cfg.SamplingRate)
	if err != nil {
		return nil, fmt.Errorf("design gait band-pass: %w", err)
	}
	return &Conditioner{filter: f}, nil
}

// Condition filters and z-normalizes each of the six channels independently
// over the full window. The result is indexed [channel][sample] with the
// channel order accelX, accelY, accelZ, pitch, yaw, roll. A channel with
// zero spread is mean-centered only.
func (c *Conditioner) Condition(samples []Sample) [][]float64 {
	window := splitChannels(samples)
	for ch := range window {
		filtered := c.filter.filtfilt(window[ch])
		normalize(filtered)
		window[ch] = filtered
	}
	return window
}

// splitChannels transposes samples into per-channel slices.
func splitChannels(samples []Sample) [][]float64 {
	window := make([][]float64, numChannels)
	for ch := range window {
		window[ch] = make([]float64, len(samples))
	}
	for i, s := range samples {
		window[chanAccelX][i] = s.AccelX
		window[chanAccelY][i] = s.AccelY
		window[chanAccelZ][i] = s.AccelZ
		window[chanPitch][i] = s.Pitch
		window[chanYaw][i] = s.Yaw
		window[chanRoll][i] = s.Roll
	}
	return window
}

// normalize applies an in-place z-score; with zero standard deviation only
// the mean is removed.
func normalize(x []float64) {
	if len(x) == 0 {
		return
	}
	mean := stat.Mean(x, nil)
	sd := stat.PopStdDev(x, nil)
	for i := range x {
		x[i] -= mean
		if sd > 0 {
			x[i] /= sd
		}
	}
}
