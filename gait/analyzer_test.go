package gait

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainUntil reads snapshots until the predicate matches or the deadline
// passes. Tick coalescing means intermediate snapshots may be skipped, so
// tests assert on what eventually arrives, not on every tick.
func drainUntil(t *testing.T, a *Analyzer, timeout time.Duration, match func(MetricsSnapshot) bool) MetricsSnapshot {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case snap, ok := <-a.Snapshots():
			require.True(t, ok, "snapshot stream closed before a matching snapshot")
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("no matching snapshot within %v", timeout)
			return MetricsSnapshot{}
		}
	}
}

func TestAnalyzerEmitsStationary(t *testing.T) {
	proc := newHeuristicProcessor(t)
	a := NewAnalyzer(proc)
	defer a.Close()

	for _, s := range stillSamples(150) {
		a.Push(s)
	}

	snap := drainUntil(t, a, 2*time.Second, func(s MetricsSnapshot) bool {
		return s.Status == StatusStationary
	})
	assert.Zero(t, snap.GaitSpeed)
	assert.GreaterOrEqual(t, snap.BufferSize, 100)

	last := a.LastSnapshot()
	assert.NotEqual(t, StatusInsufficientData, last.Status)
}

func TestAnalyzerEmitsWalkingMetrics(t *testing.T) {
	proc := newHeuristicProcessor(t)
	a := NewAnalyzer(proc)
	defer a.Close()

	for _, s := range walkSamples(500) {
		a.Push(s)
	}

	snap := drainUntil(t, a, 2*time.Second, func(s MetricsSnapshot) bool {
		return s.Status == StatusAnalyzingSimple && s.BufferSize >= 400
	})
	assert.Greater(t, snap.InitialContacts, 0)
	assert.Greater(t, snap.TotalStrides, 0)
}

func TestAnalyzerShortStreamStaysInsufficient(t *testing.T) {
	proc := newHeuristicProcessor(t)
	a := NewAnalyzer(proc)
	defer a.Close()

	for _, s := range walkSamples(50) {
		a.Push(s)
	}

	snap := drainUntil(t, a, 2*time.Second, func(s MetricsSnapshot) bool {
		return s.Status == StatusInsufficientData
	})
	assert.Less(t, snap.BufferSize, 100)
}

func TestAnalyzerReset(t *testing.T) {
	proc := newHeuristicProcessor(t)
	a := NewAnalyzer(proc)
	defer a.Close()

	for _, s := range walkSamples(500) {
		a.Push(s)
	}
	drainUntil(t, a, 2*time.Second, func(s MetricsSnapshot) bool {
		return s.TotalStrides > 0
	})

	a.Reset()
	assert.Equal(t, 0, a.BufferLen())
	last := a.LastSnapshot()
	assert.Equal(t, StatusInsufficientData, last.Status)
	assert.Zero(t, last.TotalStrides)
}

func TestAnalyzerCloseClosesStream(t *testing.T) {
	proc := newHeuristicProcessor(t)
	a := NewAnalyzer(proc)

	a.Push(Sample{})
	a.Close()
	// Close is idempotent.
	a.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-a.Snapshots():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("snapshot stream not closed after Close")
		}
	}
}

func TestAnalyzerTickCadence(t *testing.T) {
	proc := newHeuristicProcessor(t)
	a := NewAnalyzer(proc)
	defer a.Close()

	// Nine samples: below the tick interval, no snapshot should arrive.
	for _, s := range stillSamples(9) {
		a.Push(s)
	}
	select {
	case snap := <-a.Snapshots():
		t.Fatalf("unexpected snapshot before the tick interval: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}
