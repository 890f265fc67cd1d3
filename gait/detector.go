package gait

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SequenceModel produces one initial-contact likelihood in [0,1] per sample
// of a conditioned window.
type SequenceModel interface {
	Predict(window [][]float64) ([]float64, error)
}

// ContactDetector finds initial-contact indices in a conditioned window.
// Returned indices are ascending and deduplicated.
type ContactDetector interface {
	DetectContacts(window [][]float64) ([]int, error)
}

// PeakContactDetector is the heuristic path: peak detection on the
// conditioned vertical-acceleration channel. A sample qualifies when it is a
// local maximum above mean + K*sigma of the channel, at least the configured
// separation away from any higher qualifying peak, and with the minimum
// prominence.
type PeakContactDetector struct {
	heightStd     float64
	minSeparation int
	minProminence float64
}

// NewPeakContactDetector builds the heuristic detector from config.
func NewPeakContactDetector(cfg Config) *PeakContactDetector {
	sep := int(cfg.SamplingRate * cfg.PeakSeparationSec)
	if sep < 1 {
		sep = 1
	}
	return &PeakContactDetector{
		heightStd:     cfg.PeakHeightStd,
		minSeparation: sep,
		minProminence: cfg.PeakMinProminence,
	}
}

// DetectContacts implements ContactDetector. It never fails: an empty or
// featureless window simply yields no contacts.
func (d *PeakContactDetector) DetectContacts(window [][]float64) ([]int, error) {
	if len(window) <= chanAccelZ {
		return nil, nil
	}
	vertical := window[chanAccelZ]
	if len(vertical) == 0 {
		return nil, nil
	}
	height := stat.Mean(vertical, nil) + d.heightStd*stat.PopStdDev(vertical, nil)
	return findPeaks(vertical, height, d.minSeparation, d.minProminence), nil
}

// ModelContactDetector is the model-backed path: per-sample likelihoods from
// a pretrained sequence model, thresholded local maxima with a minimum
// spacing.
type ModelContactDetector struct {
	model    SequenceModel
	height   float64
	distance int
}

// NewModelContactDetector wraps a loaded sequence model.
func NewModelContactDetector(m SequenceModel, cfg Config) *ModelContactDetector {
	return &ModelContactDetector{
		model:    m,
		height:   cfg.ModelPeakHeight,
		distance: cfg.ModelPeakDistance,
	}
}

// DetectContacts implements ContactDetector. A model invocation failure is
// returned to the caller so the per-call fallback can take over.
func (d *ModelContactDetector) DetectContacts(window [][]float64) ([]int, error) {
	likelihood, err := d.model.Predict(window)
	if err != nil {
		return nil, fmt.Errorf("contact model inference: %w", err)
	}
	return findPeaks(likelihood, d.height, d.distance, 0), nil
}

// detectWithFallback runs the primary detector and, on failure, the
// fallback for this call only. The returned flag reports whether the
// primary (model) path produced the contacts.
func detectWithFallback(primary, fallback ContactDetector, window [][]float64) ([]int, bool) {
	if primary != nil {
		contacts, err := primary.DetectContacts(window)
		if err == nil {
			return contacts, true
		}
		log.Printf("[Gait] contact detection fell back to heuristic: %v", err)
	}
	contacts, _ := fallback.DetectContacts(window)
	return contacts, false
}

// findPeaks returns indices of local maxima of x that exceed height, honor a
// minimum index separation, and (when minProminence > 0) rise at least that
// far above the higher of the surrounding valleys. Higher peaks win
// separation conflicts; the result is ascending.
func findPeaks(x []float64, height float64, separation int, minProminence float64) []int {
	var candidates []int
	for i := 1; i+1 < len(x); i++ {
		if x[i] <= x[i-1] || x[i] <= x[i+1] {
			continue
		}
		if x[i] <= height {
			continue
		}
		if minProminence > 0 && prominence(x, i) < minProminence {
			continue
		}
		candidates = append(candidates, i)
	}
	if separation <= 1 || len(candidates) < 2 {
		return candidates
	}

	// Resolve separation conflicts in favor of the taller peak.
	byHeight := make([]int, len(candidates))
	copy(byHeight, candidates)
	sort.Slice(byHeight, func(a, b int) bool { return x[byHeight[a]] > x[byHeight[b]] })

	kept := make([]int, 0, len(byHeight))
	for _, idx := range byHeight {
		ok := true
		for _, k := range kept {
			if abs(idx-k) < separation {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, idx)
		}
	}
	sort.Ints(kept)
	return kept
}

// prominence measures how far the peak at i rises above the higher of the
// two valleys found walking outward until a taller sample or the window edge.
func prominence(x []float64, i int) float64 {
	leftMin := x[i]
	for j := i - 1; j >= 0; j-- {
		if x[j] > x[i] {
			break
		}
		leftMin = math.Min(leftMin, x[j])
	}
	rightMin := x[i]
	for j := i + 1; j < len(x); j++ {
		if x[j] > x[i] {
			break
		}
		rightMin = math.Min(rightMin, x[j])
	}
	return x[i] - math.Max(leftMin, rightMin)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
