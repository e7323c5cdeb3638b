// Package audio implements the recording core: a 20ms mixer over decoded
// voice frames, bounded rolling buffers of encoded Opus packets, and an
// Ogg-Opus packager for drains.
package audio

import "time"

const (
	// SampleRate is the fixed capture and output rate in Hz.
	SampleRate = 48000
	// Channels is the fixed channel count (interleaved stereo).
	Channels = 2
	// FrameDuration is the fixed tick and Opus frame duration.
	FrameDuration = 20 * time.Millisecond
	// SamplesPerChannel is the per-channel sample count of one frame.
	SamplesPerChannel = SampleRate / 1000 * 20
	// FrameSamples is the total interleaved sample count of one frame.
	FrameSamples = SamplesPerChannel * Channels
	// MaxOpusPacket is the upper bound on one encoded Opus packet.
	MaxOpusPacket = 4000
	// Bitrate is the target Opus bitrate in bits per second.
	Bitrate = 24000

	// LookbackCapacity holds 30 minutes of 20ms frames.
	LookbackCapacity = (1000 / 20) * 60 * 30
	// SpeakerCapacity holds 2 minutes of 20ms frames.
	SpeakerCapacity = (1000 / 20) * 60 * 2
)

// ValidFrame reports whether pcm is exactly one 20ms stereo frame.
func ValidFrame(pcm []int16) bool {
	return len(pcm) == FrameSamples
}

// mixInto folds frame into mix with per-sample saturating 16-bit addition.
// Both slices must be FrameSamples long.
func mixInto(mix, frame []int16) {
	for i := range mix {
		mix[i] = saturatingAdd(mix[i], frame[i])
	}
}

func saturatingAdd(a, b int16) int16 {
	sum := int32(a) + int32(b)
	if sum > 32767 {
		return 32767
	}
	if sum < -32768 {
		return -32768
	}
	return int16(sum)
}
