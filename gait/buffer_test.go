package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferEvictsOldest(t *testing.T) {
	buf := NewBuffer(500)
	for i := 0; i < 650; i++ {
		buf.Push(Sample{AccelX: float64(i)})
	}

	assert.Equal(t, 500, buf.Len())
	snap := buf.Snapshot()
	assert.Len(t, snap, 500)
	// The oldest surviving sample is #150, the newest #649, in order.
	assert.Equal(t, 150.0, snap[0].AccelX)
	assert.Equal(t, 649.0, snap[499].AccelX)
	for i := 1; i < len(snap); i++ {
		assert.Equal(t, snap[i-1].AccelX+1, snap[i].AccelX)
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	buf := NewBuffer(10)
	buf.Push(Sample{AccelZ: 1})
	snap := buf.Snapshot()
	snap[0].AccelZ = 99

	assert.Equal(t, 1.0, buf.Snapshot()[0].AccelZ)
}

func TestBufferReset(t *testing.T) {
	buf := NewBuffer(10)
	for i := 0; i < 7; i++ {
		buf.Push(Sample{})
	}
	buf.Reset()

	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Snapshot())

	buf.Push(Sample{AccelY: 3})
	assert.Equal(t, 1, buf.Len())
	assert.Equal(t, 3.0, buf.Snapshot()[0].AccelY)
}
