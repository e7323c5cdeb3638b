package audio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lookback is the process-wide rolling recording: one encoded Opus frame per
// 20ms tick, mixed from every speaker active in that tick, for the last 30
// minutes. A single mutex is plenty at the 50Hz push rate.
type Lookback struct {
	mu     sync.Mutex
	ring   *Ring
	enc    *Encoder
	logger *zap.Logger
}

// NewLookback creates the lookback buffer with its own encoder.
func NewLookback(logger *zap.Logger) (*Lookback, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Lookback{
		ring:   NewRing(LookbackCapacity),
		enc:    enc,
		logger: logger,
	}, nil
}

// Tick folds the decoded frames of one completed 20ms window into a single
// mixed frame, encodes it, and appends it to the ring. An empty tick appends
// the precomputed silent frame without touching the encoder, so the ring
// advances exactly one frame per tick. Frames that are not exactly 1920
// samples are skipped.
func (l *Lookback) Tick(frames [][]int16) {
	var packet []byte
	if len(frames) == 0 {
		packet = l.enc.Silence()
	} else {
		mix := make([]int16, FrameSamples)
		for _, frame := range frames {
			if !ValidFrame(frame) {
				continue
			}
			mixInto(mix, frame)
		}
		encoded, err := l.enc.Encode(mix)
		if err != nil {
			// The recording must keep running; substitute silence.
			l.logger.Warn("mixed frame encode failed, substituting silence", zap.Error(err))
			encoded = l.enc.Silence()
		}
		packet = encoded
	}

	l.mu.Lock()
	l.ring.Push(packet)
	l.mu.Unlock()
}

// Len returns the current frame count.
func (l *Lookback) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ring.Len()
}

// Drain snapshots the whole buffer as a complete Ogg-Opus stream.
func (l *Lookback) Drain() ([]byte, error) {
	return l.drain(l.snapshot())
}

// DrainWindow snapshots the buffer trimmed to the last window of audio.
// A window larger than the buffered audio keeps everything; a zero window
// keeps nothing and yields a headers-only stream.
func (l *Lookback) DrainWindow(window time.Duration) ([]byte, error) {
	return l.drain(TrimWindow(l.snapshot(), window))
}

func (l *Lookback) snapshot() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ring.Snapshot()
}

func (l *Lookback) drain(frames [][]byte) ([]byte, error) {
	l.logger.Info("draining lookback", zap.Int("frames", len(frames)))
	return MuxOgg(frames, SampleRate, Channels)
}

// TrimWindow keeps the final floor(window/20ms) frames of a snapshot.
func TrimWindow(frames [][]byte, window time.Duration) [][]byte {
	keep := int(window.Milliseconds() / FrameDuration.Milliseconds())
	if keep >= len(frames) {
		return frames
	}
	return frames[len(frames)-keep:]
}
