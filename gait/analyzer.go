package gait

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
)

// Analyzer owns one session's mutable state: the bounded sample buffer, the
// cumulative stride counters and the analysis worker. Sample ingestion is a
// cheap buffer push plus a coalesced tick signal; the analysis itself runs on
// a single per-session goroutine, so snapshots are emitted strictly in tick
// order and at most one analysis per session is ever in flight.
type Analyzer struct {
	proc *Processor

	mu       sync.Mutex
	buf      *Buffer
	cum      CumulativeState
	gen      uint64
	accepted int
	last     MetricsSnapshot

	ticks chan struct{}
	out   chan MetricsSnapshot
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewAnalyzer creates a fresh session state and starts its worker.
func NewAnalyzer(proc *Processor) *Analyzer {
	a := &Analyzer{
		proc: proc,
		buf:  NewBuffer(proc.cfg.BufferCapacity),
		last: MetricsSnapshot{
			Status:     StatusInsufficientData,
			UsingModel: proc.UsingModel(),
		},
		ticks: make(chan struct{}, 1),
		out:   make(chan MetricsSnapshot, 8),
		done:  make(chan struct{}),
	}
	a.cum.Reset()
	a.wg.Add(1)
	go a.run()
	return a
}

// Push accepts one validated sample. Every AnalysisInterval accepted samples
// it signals the worker; the signal channel holds at most one pending tick,
// so a slow analysis coalesces bursts instead of queuing them.
func (a *Analyzer) Push(s Sample) {
	a.mu.Lock()
	a.buf.Push(s)
	a.accepted++
	due := a.accepted%a.proc.cfg.AnalysisInterval == 0
	a.mu.Unlock()
	if !due {
		return
	}
	select {
	case a.ticks <- struct{}{}:
	default:
	}
}

// Snapshots returns the ordered stream of analysis results. The channel is
// closed when the analyzer shuts down.
func (a *Analyzer) Snapshots() <-chan MetricsSnapshot { return a.out }

// LastSnapshot returns the most recent result without waiting for a tick.
func (a *Analyzer) LastSnapshot() MetricsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// BufferLen reports the current buffered sample count.
func (a *Analyzer) BufferLen() int {
	return a.buf.Len()
}

// Reset clears the session back to its initial state: empty buffer, zeroed
// cumulative counters, tick phase restarted. The worker keeps running.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf.Reset()
	a.cum.Reset()
	a.gen++
	a.accepted = 0
	a.last = MetricsSnapshot{
		Status:     StatusInsufficientData,
		UsingModel: a.proc.UsingModel(),
	}
}

// Close stops the worker and closes the snapshot stream. Push must not be
// called after Close.
func (a *Analyzer) Close() {
	select {
	case <-a.done:
		return
	default:
	}
	close(a.done)
	a.wg.Wait()
}

func (a *Analyzer) run() {
	defer a.wg.Done()
	defer close(a.out)
	for {
		select {
		case <-a.done:
			return
		case <-a.ticks:
		}
		snap, ok, fatal := a.analyzeOnce()
		if fatal {
			return
		}
		if !ok {
			continue
		}
		a.mu.Lock()
		a.last = snap
		a.mu.Unlock()
		select {
		case a.out <- snap:
		case <-a.done:
			return
		}
	}
}

// analyzeOnce runs a single guarded tick. A panic inside the pipeline is
// contained here and ends the session instead of crashing the process.
func (a *Analyzer) analyzeOnce() (snap MetricsSnapshot, ok, fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Gait] analysis panicked, ending session: %v\n%s", r, debug.Stack())
			ok, fatal = false, true
		}
	}()

	if err := a.proc.acquire(context.Background()); err != nil {
		return MetricsSnapshot{}, false, false
	}
	defer a.proc.release()

	samples := a.buf.Snapshot()
	a.mu.Lock()
	cum := a.cum
	gen := a.gen
	a.mu.Unlock()

	snap = a.proc.Analyze(samples, &cum)

	// A reset that landed mid-tick wins: drop both the counter update and
	// the snapshot rather than resurrect pre-reset state.
	a.mu.Lock()
	if a.gen != gen {
		a.mu.Unlock()
		return MetricsSnapshot{}, false, false
	}
	a.cum = cum
	a.mu.Unlock()
	return snap, true, false
}
