package audio

import (
	"sync"

	"go.uber.org/zap"

	apperrors "discord-record/pkg/errors"
)

// Speakers keeps a short rolling recording per user for voice cloning.
// Silence is recorded explicitly: the downstream TTS service expects
// continuous timing, so pauses must survive into the reference audio.
//
// All rings share one encoder, which is sound because pushes are serialized
// under the table lock; the encoder is still separate from the lookback's.
type Speakers struct {
	mu     sync.Mutex
	rings  map[uint64]*Ring
	enc    *Encoder
	logger *zap.Logger
}

// NewSpeakers creates the per-speaker buffer table with its own encoder.
func NewSpeakers(logger *zap.Logger) (*Speakers, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Speakers{
		rings:  make(map[uint64]*Ring),
		enc:    enc,
		logger: logger,
	}, nil
}

// Push appends one 20ms frame to user's ring, creating the ring on first
// sight. A missing or wrong-length frame records as silence so the stream
// keeps time.
func (s *Speakers) Push(user uint64, pcm []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var packet []byte
	if ValidFrame(pcm) {
		encoded, err := s.enc.Encode(pcm)
		if err != nil {
			s.logger.Warn("speaker frame encode failed, substituting silence",
				zap.Uint64("user_id", user), zap.Error(err))
			encoded = s.enc.Silence()
		}
		packet = encoded
	} else {
		packet = s.enc.Silence()
	}

	s.ring(user).Push(packet)
}

// PushSilence appends the precomputed silent frame to user's ring.
func (s *Speakers) PushSilence(user uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring(user).Push(s.enc.Silence())
}

func (s *Speakers) ring(user uint64) *Ring {
	r, ok := s.rings[user]
	if !ok {
		r = NewRing(SpeakerCapacity)
		s.rings[user] = r
	}
	return r
}

// Len returns the frame count of user's ring, or zero if none exists.
func (s *Speakers) Len(user uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rings[user]; ok {
		return r.Len()
	}
	return 0
}

// Drain snapshots user's ring as a complete Ogg-Opus stream.
func (s *Speakers) Drain(user uint64) ([]byte, error) {
	s.mu.Lock()
	r, ok := s.rings[user]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NewUnknownSpeaker(user)
	}
	frames := r.Snapshot()
	s.mu.Unlock()

	s.logger.Info("draining speaker", zap.Uint64("user_id", user), zap.Int("frames", len(frames)))
	return MuxOgg(frames, SampleRate, Channels)
}
