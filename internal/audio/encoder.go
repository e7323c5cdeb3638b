package audio

import (
	"fmt"

	"layeh.com/gopus"

	apperrors "discord-record/pkg/errors"
)

// Encoder wraps a single Opus encoder configured for the fixed capture
// format: 48kHz stereo, Audio application, 24kbit/s.
//
// Opus keeps lookahead state between frames, so an Encoder must be owned by
// exactly one stream. The lookback mix and the per-speaker buffers each
// construct their own; sharing one across streams corrupts the bitstream.
type Encoder struct {
	enc    *gopus.Encoder
	silent []byte
}

// NewEncoder creates an encoder and pre-encodes the canonical silent frame
// from all-zero PCM.
func NewEncoder() (*Encoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	enc.SetBitrate(Bitrate)

	e := &Encoder{enc: enc}

	silent, err := e.encode(make([]int16, FrameSamples))
	if err != nil {
		return nil, fmt.Errorf("encode silent frame: %w", err)
	}
	e.silent = silent

	return e, nil
}

// Encode encodes one 20ms stereo PCM frame into one Opus packet.
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	if !ValidFrame(pcm) {
		return nil, apperrors.NewWrongFrameLength(len(pcm))
	}
	return e.encode(pcm)
}

func (e *Encoder) encode(pcm []int16) ([]byte, error) {
	data, err := e.enc.Encode(pcm, SamplesPerChannel, MaxOpusPacket)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %w", err)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Silence returns the frame encoded from all-zero PCM at construction time.
// The returned slice is shared and must not be mutated.
func (e *Encoder) Silence() []byte {
	return e.silent
}
