package gait

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// motionVariance computes the variance of the most recent n raw
// vertical-acceleration samples. Used to gate the whole detection pipeline:
// below the configured threshold the wearer is reported stationary no matter
// what the detector would say.
func motionVariance(samples []Sample, n int) float64 {
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	vertical := make([]float64, len(samples))
	for i, s := range samples {
		vertical[i] = s.AccelZ
	}
	return stat.PopVariance(vertical, nil)
}

// cadence derives steps per minute from the contact count over the buffered
// time span. Fewer than two contacts read as no cadence at all.
func cadence(contactCount, bufferLen int, samplingRate float64) float64 {
	if contactCount < 2 || bufferLen == 0 || samplingRate <= 0 {
		return 0
	}
	timeSpan := float64(bufferLen) / samplingRate
	return float64(contactCount) / timeSpan * 60
}

// updateStrides advances the session-cumulative stride counters. New
// contacts beyond the last recorded count credit one stride per two
// contacts; a drop in the count means the buffer rolled over old contacts,
// so the record is rebased without crediting anything. TotalStrides never
// decreases here.
func updateStrides(cs *CumulativeState, contactCount int) {
	switch {
	case contactCount > cs.LastContactCount:
		cs.TotalStrides += (contactCount - cs.LastContactCount) / 2
		cs.LastContactCount = contactCount
	case contactCount < cs.LastContactCount:
		cs.LastContactCount = contactCount
	}
}

// round2 and round1 fix the reported precision of speed and cadence.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
