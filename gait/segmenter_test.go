package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentCycles(t *testing.T) {
	contacts := []int{0, 3, 10, 30}
	cycles := SegmentCycles(contacts, 5)

	// The 0-3 pair is too short to be a real cycle.
	assert.Equal(t, []Cycle{{Start: 3, End: 10}, {Start: 10, End: 30}}, cycles)
}

func TestSegmentCyclesDegenerate(t *testing.T) {
	assert.Empty(t, SegmentCycles(nil, 5))
	assert.Empty(t, SegmentCycles([]int{42}, 5))
	// Exactly minSamples long does not qualify.
	assert.Empty(t, SegmentCycles([]int{0, 5}, 5))
	assert.Len(t, SegmentCycles([]int{0, 6}, 5), 1)
}
