// Package gait implements the streaming gait-analysis pipeline: bounded
// session buffering of head-worn IMU samples, band-limited conditioning,
// initial-contact detection (model-backed or heuristic), cycle segmentation,
// feature extraction, speed estimation and metric aggregation.
package gait

import "encoding/json"

// Sample is one head-worn IMU reading: linear acceleration in g and
// orientation in degrees. Arrival order is the only temporal ordering;
// the sampling rate is fixed by Config.
type Sample struct {
	AccelX float64
	AccelY float64
	AccelZ float64
	Pitch  float64
	Yaw    float64
	Roll   float64
}

// Channel indices into a conditioned window. The layout matches the order
// the conditioner emits: accelerations first, then orientation angles.
const (
	chanAccelX = iota
	chanAccelY
	chanAccelZ
	chanPitch
	chanYaw
	chanRoll
	numChannels
)

// FeatureDim is the length of the canonical gait descriptor.
const FeatureDim = 9

// FeatureVector is the fixed-width descriptor fed to the speed estimator.
type FeatureVector [FeatureDim]float64

// Cycle is one candidate gait cycle: the half-open sample range between two
// consecutive initial contacts in a conditioned window.
type Cycle struct {
	Start int
	End   int
}

// Len returns the cycle length in samples.
func (c Cycle) Len() int { return c.End - c.Start }

// Status describes what the analyzer could do with the current buffer.
type Status string

const (
	// StatusInsufficientData means the buffer is shorter than the minimum
	// analysis window.
	StatusInsufficientData Status = "insufficient_data"
	// StatusStationary means the wearer shows no recent motion; the
	// detection pipeline is skipped entirely.
	StatusStationary Status = "stationary"
	// StatusAnalyzing means the model-backed contact path produced this tick.
	StatusAnalyzing Status = "analyzing"
	// StatusAnalyzingSimple means the heuristic contact path produced this tick.
	StatusAnalyzingSimple Status = "analyzing_simple"
)

// MetricsSnapshot is the result of one analysis tick. Produced fresh every
// tick; the analyzer caches only the most recent one for diagnostic reads.
type MetricsSnapshot struct {
	GaitSpeed       float64 `json:"gait_speed"`
	StrideCount     int     `json:"stride_count"`
	TotalStrides    int     `json:"total_strides"`
	Cadence         float64 `json:"cadence"`
	InitialContacts int     `json:"initial_contacts"`
	Status          Status  `json:"status"`
	BufferSize      int     `json:"buffer_size"`
	UsingModel      bool    `json:"using_model"`
}

// CumulativeState holds the per-session monotonic counters. TotalStrides
// never decreases within a session; LastContactCount tracks the previously
// observed contact count so buffer rollover can be told apart from genuinely
// new contacts.
type CumulativeState struct {
	TotalStrides     int
	LastContactCount int
}

// Reset zeroes the counters. Called once per session start.
func (cs *CumulativeState) Reset() {
	cs.TotalStrides = 0
	cs.LastContactCount = 0
}

// wireSample is the inbound record schema. Pointer fields distinguish a
// missing key from an explicit zero.
type wireSample struct {
	Pitch  *float64 `json:"pitch"`
	Yaw    *float64 `json:"yaw"`
	Roll   *float64 `json:"roll"`
	AccelX *float64 `json:"accelX"`
	AccelY *float64 `json:"accelY"`
	AccelZ *float64 `json:"accelZ"`
}

// ParseSample decodes one inbound record. A JSON error means the record is
// unparsable (callers log and ignore it). ok=false with a nil error means
// the record parsed but is missing at least one required field and must be
// dropped silently.
func ParseSample(data []byte) (s Sample, ok bool, err error) {
	var w wireSample
	if err := json.Unmarshal(data, &w); err != nil {
		return Sample{}, false, err
	}
	if w.Pitch == nil || w.Yaw == nil || w.Roll == nil ||
		w.AccelX == nil || w.AccelY == nil || w.AccelZ == nil {
		return Sample{}, false, nil
	}
	return Sample{
		AccelX: *w.AccelX,
		AccelY: *w.AccelY,
		AccelZ: *w.AccelZ,
		Pitch:  *w.Pitch,
		Yaw:    *w.Yaw,
		Roll:   *w.Roll,
	}, true, nil
}

// Config holds every tunable constant of the pipeline. The heuristic
// detector constants are deliberately configuration, not literals: the
// upstream values are still being tuned and the defaults follow the
// stricter of the two observed revisions.
type Config struct {
	// SamplingRate is the fixed inbound sample rate in Hz.
	SamplingRate float64 `yaml:"sampling_rate_hz"`
	// BufferCapacity bounds the per-session sample buffer (FIFO eviction).
	BufferCapacity int `yaml:"buffer_capacity"`
	// MinWindow is the minimum buffer length before any analysis runs.
	MinWindow int `yaml:"min_window"`
	// AnalysisInterval triggers one analysis tick every N accepted samples.
	AnalysisInterval int `yaml:"analysis_interval"`

	// Band-pass edges for the gait frequency band.
	LowCutHz  float64 `yaml:"low_cut_hz"`
	HighCutHz float64 `yaml:"high_cut_hz"`
	// FilterOrder is the Butterworth prototype order.
	FilterOrder int `yaml:"filter_order"`

	// Heuristic contact detector: a peak qualifies above
	// mean + PeakHeightStd sigma, at least PeakSeparationSec apart, with at
	// least PeakMinProminence of prominence.
	PeakHeightStd     float64 `yaml:"peak_height_std"`
	PeakSeparationSec float64 `yaml:"peak_separation_sec"`
	PeakMinProminence float64 `yaml:"peak_min_prominence"`

	// Model-backed contact detector: likelihood threshold and minimum
	// spacing in samples between selected maxima.
	ModelPeakHeight   float64 `yaml:"model_peak_height"`
	ModelPeakDistance int     `yaml:"model_peak_distance"`

	// MinCycleSamples discards cycles at or below this length.
	MinCycleSamples int `yaml:"min_cycle_samples"`

	// Speed estimation bounds and heuristic scale.
	MaxSpeed   float64 `yaml:"max_speed"`
	SpeedScale float64 `yaml:"speed_scale"`

	// Motion gating: variance of the most recent MotionWindow raw vertical
	// acceleration samples below MotionVarianceMin reports stationary.
	MotionWindow      int     `yaml:"motion_window"`
	MotionVarianceMin float64 `yaml:"motion_variance_min"`

	// MaxConcurrent bounds analysis ticks running at once across sessions.
	MaxConcurrent int64 `yaml:"max_concurrent"`
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		SamplingRate:      20.0,
		BufferCapacity:    500,
		MinWindow:         100,
		AnalysisInterval:  10,
		LowCutHz:          0.5,
		HighCutHz:         5.0,
		FilterOrder:       4,
		PeakHeightStd:     1.0,
		PeakSeparationSec: 0.5,
		PeakMinProminence: 0.5,
		ModelPeakHeight:   0.5,
		ModelPeakDistance: 10,
		MinCycleSamples:   5,
		MaxSpeed:          4.0,
		SpeedScale:        2.0,
		MotionWindow:      100,
		MotionVarianceMin: 0.01,
		MaxConcurrent:     4,
	}
}
