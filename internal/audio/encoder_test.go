package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"layeh.com/gopus"
)

func TestEncoderSilentFramePrecomputed(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)

	silent := enc.Silence()
	require.NotEmpty(t, silent)
	assert.LessOrEqual(t, len(silent), MaxOpusPacket)

	// The cached frame is bit-identical on every access.
	assert.Equal(t, silent, enc.Silence())
}

func TestEncoderEncodeFrame(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)

	packet, err := enc.Encode(constFrame(10000))
	require.NoError(t, err)
	assert.NotEmpty(t, packet)
	assert.LessOrEqual(t, len(packet), MaxOpusPacket)
}

func TestEncoderRejectsWrongLength(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)

	_, err = enc.Encode(make([]int16, 1919))
	assert.Error(t, err)
	_, err = enc.Encode(make([]int16, 1921))
	assert.Error(t, err)
	_, err = enc.Encode(nil)
	assert.Error(t, err)
}

func TestEncodedFrameDecodesToOneWindow(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)

	packet, err := enc.Encode(constFrame(1000))
	require.NoError(t, err)

	dec, err := gopus.NewDecoder(SampleRate, Channels)
	require.NoError(t, err)

	pcm, err := dec.Decode(packet, SamplesPerChannel, false)
	require.NoError(t, err)
	assert.Len(t, pcm, FrameSamples, "one packet decodes to exactly 20ms of stereo audio")
}

func TestFreshEncodersProduceSameSilentFrame(t *testing.T) {
	a, err := NewEncoder()
	require.NoError(t, err)
	b, err := NewEncoder()
	require.NoError(t, err)

	// Fresh encoders in the same state produce the same silent frame.
	assert.Equal(t, a.Silence(), b.Silence())
}
