package gait

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Processor is the immutable, shared analysis service. One Processor serves
// every session; all mutable per-session state (buffer, cumulative counters)
// is owned by the Analyzer and passed in per call. The weighted semaphore
// bounds how many analysis ticks run at once across all sessions.
type Processor struct {
	cfg         Config
	conditioner *Conditioner
	sem         *semaphore.Weighted

	modelDetector     ContactDetector
	heuristicDetector ContactDetector

	modelEstimator     SpeedEstimator
	heuristicEstimator SpeedEstimator
}

// NewProcessor builds the shared pipeline. Either model may be nil, in which
// case the corresponding heuristic path is permanent for the lifetime of the
// processor.
func NewProcessor(cfg Config, contactModel SequenceModel, speedModel SpeedModel) (*Processor, error) {
	cond, err := NewConditioner(cfg)
	if err != nil {
		return nil, err
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	p := &Processor{
		cfg:                cfg,
		conditioner:        cond,
		sem:                semaphore.NewWeighted(maxConcurrent),
		heuristicDetector:  NewPeakContactDetector(cfg),
		heuristicEstimator: NewVarianceSpeedEstimator(cfg),
	}
	if contactModel != nil {
		p.modelDetector = NewModelContactDetector(contactModel, cfg)
	}
	if speedModel != nil {
		p.modelEstimator = NewModelSpeedEstimator(speedModel, cfg)
	}
	return p, nil
}

// Config returns the pipeline constants the processor was built with.
func (p *Processor) Config() Config { return p.cfg }

// acquire blocks until a concurrency slot is free or ctx is done.
func (p *Processor) acquire(ctx context.Context) error { return p.sem.Acquire(ctx, 1) }

func (p *Processor) release() { p.sem.Release(1) }

// UsingModel reports whether the model-backed contact path is available. It
// reflects construction-time availability, not the outcome of any one tick.
func (p *Processor) UsingModel() bool { return p.modelDetector != nil }

// Analyze runs one full tick over a buffered window and advances the
// session's cumulative counters. Callers must not share cum across
// concurrent Analyze calls.
func (p *Processor) Analyze(samples []Sample, cum *CumulativeState) MetricsSnapshot {
	snap := MetricsSnapshot{
		Status:       StatusInsufficientData,
		BufferSize:   len(samples),
		TotalStrides: cum.TotalStrides,
		UsingModel:   p.UsingModel(),
	}
	if len(samples) < p.cfg.MinWindow {
		return snap
	}

	// Motion gate on raw vertical acceleration: a stationary wearer skips
	// the whole detection pipeline and keeps the cumulative counters as-is.
	if motionVariance(samples, p.cfg.MotionWindow) < p.cfg.MotionVarianceMin {
		snap.Status = StatusStationary
		return snap
	}

	window := p.conditioner.Condition(samples)
	contacts, usedModel := detectWithFallback(p.modelDetector, p.heuristicDetector, window)
	cycles := SegmentCycles(contacts, p.cfg.MinCycleSamples)

	fv := ExtractFeatures(window, cycles)
	speed := estimateWithFallback(p.modelEstimator, p.heuristicEstimator, fv)

	updateStrides(cum, len(contacts))

	if usedModel {
		snap.Status = StatusAnalyzing
		snap.StrideCount = len(cycles)
	} else {
		snap.Status = StatusAnalyzingSimple
		snap.StrideCount = len(contacts) / 2
	}
	snap.GaitSpeed = round2(speed)
	snap.Cadence = round1(cadence(len(contacts), len(samples), p.cfg.SamplingRate))
	snap.InitialContacts = len(contacts)
	snap.TotalStrides = cum.TotalStrides
	return snap
}
