package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source is one speaker's contribution to a tick. Decoded is nil when the
// transport delivered a packet it could not decode.
type Source struct {
	Decoded []int16
}

// Tick is the per-window event the transport delivers: every SSRC that
// produced audio during the completed 20ms window, plus the known SSRCs
// that stayed silent.
type Tick struct {
	Speaking map[uint32]Source
	Silent   []uint32
}

// Resolver maps a transport SSRC to a stable user identity. The table
// itself is maintained by the transport from speaking-state events.
type Resolver func(ssrc uint32) (uint64, bool)

// Recorder owns the recording state: the mixed lookback buffer, the
// per-speaker buffers, the tick accumulator, and the background mixer task.
type Recorder struct {
	Lookback *Lookback
	Speakers *Speakers

	resolve Resolver
	logger  *zap.Logger

	accMu   sync.Mutex
	pending [][]int16

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRecorder builds the recorder. Both encoder paths pre-encode their
// silent frame here, so a failure surfaces at startup rather than mid-call.
func NewRecorder(resolve Resolver, logger *zap.Logger) (*Recorder, error) {
	lookback, err := NewLookback(logger)
	if err != nil {
		return nil, fmt.Errorf("create lookback: %w", err)
	}
	speakers, err := NewSpeakers(logger)
	if err != nil {
		return nil, fmt.Errorf("create speaker buffers: %w", err)
	}
	return &Recorder{
		Lookback: lookback,
		Speakers: speakers,
		resolve:  resolve,
		logger:   logger,
	}, nil
}

// Ingest routes one tick of transport events. Valid frames go to the mixer
// accumulator whether or not the SSRC is mapped yet; the lookback does not
// care about identity. Per-speaker buffers only record mapped SSRCs, and a
// missing or malformed frame records as silence there to keep time.
func (r *Recorder) Ingest(t *Tick) {
	for ssrc, src := range t.Speaking {
		if ValidFrame(src.Decoded) {
			r.accumulate(src.Decoded)
		} else if src.Decoded != nil {
			r.logger.Debug("dropping frame of unexpected length",
				zap.Uint32("ssrc", ssrc), zap.Int("samples", len(src.Decoded)))
		}

		user, ok := r.resolve(ssrc)
		if !ok {
			continue
		}
		if ValidFrame(src.Decoded) {
			r.Speakers.Push(user, src.Decoded)
		} else {
			r.Speakers.PushSilence(user)
		}
	}

	for _, ssrc := range t.Silent {
		if user, ok := r.resolve(ssrc); ok {
			r.Speakers.PushSilence(user)
		}
	}
}

func (r *Recorder) accumulate(frame []int16) {
	r.accMu.Lock()
	r.pending = append(r.pending, frame)
	r.accMu.Unlock()
}

// swap takes the accumulated frames for the tick that just completed.
func (r *Recorder) swap() [][]int16 {
	r.accMu.Lock()
	frames := r.pending
	r.pending = nil
	r.accMu.Unlock()
	return frames
}

// Start spawns the 20ms mixer task. It runs until Stop or ctx cancellation.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recorder already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)

	go r.run(ctx)

	r.logger.Info("recorder started",
		zap.Duration("tick", FrameDuration),
		zap.Int("lookback_capacity", LookbackCapacity),
		zap.Int("speaker_capacity", SpeakerCapacity))
	return nil
}

// Stop cancels the mixer task and waits for it to exit.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.cancel()
	r.wg.Wait()
	r.running = false

	r.logger.Info("recorder stopped")
}

func (r *Recorder) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Lookback.Tick(r.swap())
		}
	}
}
