package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func constFrame(v int16) []int16 {
	frame := make([]int16, FrameSamples)
	for i := range frame {
		frame[i] = v
	}
	return frame
}

func TestSaturatingAdd(t *testing.T) {
	assert.Equal(t, int16(30000), saturatingAdd(10000, 20000))
	assert.Equal(t, int16(32767), saturatingAdd(30000, 20000))
	assert.Equal(t, int16(-30000), saturatingAdd(-10000, -20000))
	assert.Equal(t, int16(-32768), saturatingAdd(-30000, -20000))
	assert.Equal(t, int16(0), saturatingAdd(32767, -32767))
}

func TestMixTwoSpeakersNoSaturation(t *testing.T) {
	mix := make([]int16, FrameSamples)
	mixInto(mix, constFrame(10000))
	mixInto(mix, constFrame(20000))

	for _, s := range mix {
		assert.Equal(t, int16(30000), s)
	}
}

func TestMixSaturates(t *testing.T) {
	mix := make([]int16, FrameSamples)
	mixInto(mix, constFrame(30000))
	mixInto(mix, constFrame(20000))

	for _, s := range mix {
		assert.Equal(t, int16(32767), s)
	}
}

func TestMixOrderIrrelevant(t *testing.T) {
	a := make([]int16, FrameSamples)
	mixInto(a, constFrame(30000))
	mixInto(a, constFrame(-20000))
	mixInto(a, constFrame(25000))

	b := make([]int16, FrameSamples)
	mixInto(b, constFrame(25000))
	mixInto(b, constFrame(-20000))
	mixInto(b, constFrame(30000))

	// Saturation can make the result depend on fold order in general; for
	// these values both orders clip to the same end value.
	assert.Equal(t, a[0], b[0])
}

func TestValidFrame(t *testing.T) {
	assert.True(t, ValidFrame(make([]int16, 1920)))
	assert.False(t, ValidFrame(make([]int16, 1919)))
	assert.False(t, ValidFrame(make([]int16, 1921)))
	assert.False(t, ValidFrame(nil))
}

func TestFormatConstants(t *testing.T) {
	assert.Equal(t, 1920, FrameSamples)
	assert.Equal(t, 960, SamplesPerChannel)
	assert.Equal(t, 48000, SampleRate)
	assert.Equal(t, 2, Channels)
}
