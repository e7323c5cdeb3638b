package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func frame(b byte) []byte {
	return []byte{b}
}

func TestRingPushAndSnapshotOrder(t *testing.T) {
	r := NewRing(5)

	for i := byte(0); i < 3; i++ {
		r.Push(frame(i))
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, [][]byte{{0}, {1}, {2}}, r.Snapshot())
}

func TestRingDropOldest(t *testing.T) {
	r := NewRing(3)

	for i := byte(0); i < 5; i++ {
		r.Push(frame(i))
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, [][]byte{{2}, {3}, {4}}, r.Snapshot())
}

func TestRingSizeIsMinOfPushesAndCapacity(t *testing.T) {
	r := NewRing(10)

	for i := 0; i < 7; i++ {
		r.Push(frame(byte(i)))
	}
	assert.Equal(t, 7, r.Len())

	for i := 0; i < 100; i++ {
		r.Push(frame(byte(i)))
	}
	assert.Equal(t, 10, r.Len())
}

func TestRingSnapshotIsIndependent(t *testing.T) {
	r := NewRing(3)
	r.Push(frame(1))

	snap := r.Snapshot()
	r.Push(frame(2))
	r.Push(frame(3))
	r.Push(frame(4))

	assert.Equal(t, [][]byte{{1}}, snap)
}

func TestRingCapacities(t *testing.T) {
	// 30 minutes and 2 minutes of 20ms frames.
	assert.Equal(t, 90000, LookbackCapacity)
	assert.Equal(t, 6000, SpeakerCapacity)
}
