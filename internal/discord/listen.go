package discord

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"layeh.com/gopus"

	"discord-record/internal/audio"
)

// Listener turns a Discord voice connection into the per-tick events the
// recorder consumes. Incoming Opus packets are decoded per SSRC as they
// arrive; every 20ms the latest decoded frames become one audio.Tick, with
// the mapped-but-quiet SSRCs reported as silent so the per-speaker buffers
// keep time.
type Listener struct {
	table    *SSRCTable
	recorder *audio.Recorder
	logger   *zap.Logger

	mu       sync.Mutex
	decoders map[uint32]*gopus.Decoder
	pending  map[uint32][]int16

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewListener creates a listener feeding recorder through table.
func NewListener(table *SSRCTable, recorder *audio.Recorder, logger *zap.Logger) *Listener {
	return &Listener{
		table:    table,
		recorder: recorder,
		logger:   logger,
		decoders: make(map[uint32]*gopus.Decoder),
		pending:  make(map[uint32][]int16),
	}
}

// Attach registers the speaking-update handler and starts the receive and
// tick loops for vc.
func (l *Listener) Attach(ctx context.Context, vc *discordgo.VoiceConnection) error {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.running {
		return nil
	}

	vc.AddHandler(l.onSpeakingUpdate)

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true

	l.wg.Add(2)
	go l.receiveLoop(ctx, vc)
	go l.tickLoop(ctx)

	l.logger.Info("voice listener attached")
	return nil
}

// Detach stops both loops.
func (l *Listener) Detach() {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if !l.running {
		return
	}

	l.cancel()
	l.wg.Wait()
	l.running = false

	l.logger.Info("voice listener detached")
}

func (l *Listener) onSpeakingUpdate(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
	user, err := strconv.ParseUint(vs.UserID, 10, 64)
	if err != nil {
		l.logger.Warn("speaking update with unparsable user id", zap.String("user_id", vs.UserID))
		return
	}
	l.logger.Info("recording ssrc mapping",
		zap.Uint64("user_id", user), zap.Int("ssrc", vs.SSRC))
	l.table.Map(uint32(vs.SSRC), user)
}

func (l *Listener) receiveLoop(ctx context.Context, vc *discordgo.VoiceConnection) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-vc.OpusRecv:
			if !ok {
				l.logger.Info("voice receive channel closed")
				return
			}
			l.decodePacket(p)
		}
	}
}

func (l *Listener) decodePacket(p *discordgo.Packet) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dec, ok := l.decoders[p.SSRC]
	if !ok {
		var err error
		dec, err = gopus.NewDecoder(audio.SampleRate, audio.Channels)
		if err != nil {
			l.logger.Error("failed to create opus decoder", zap.Uint32("ssrc", p.SSRC), zap.Error(err))
			return
		}
		l.decoders[p.SSRC] = dec
	}

	pcm, err := dec.Decode(p.Opus, audio.SamplesPerChannel, false)
	if err != nil {
		l.logger.Warn("opus decode failed", zap.Uint32("ssrc", p.SSRC), zap.Error(err))
		// The SSRC still spoke this tick; record it with no audio so the
		// speaker buffer keeps time.
		l.pending[p.SSRC] = nil
		return
	}
	l.pending[p.SSRC] = pcm
}

func (l *Listener) tickLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.recorder.Ingest(l.assembleTick())
		}
	}
}

// assembleTick moves the pending decoded frames into a Tick and marks every
// mapped SSRC without a frame as silent.
func (l *Listener) assembleTick() *audio.Tick {
	l.mu.Lock()
	speaking := l.pending
	l.pending = make(map[uint32][]int16)
	l.mu.Unlock()

	tick := &audio.Tick{Speaking: make(map[uint32]audio.Source, len(speaking))}
	for ssrc, pcm := range speaking {
		tick.Speaking[ssrc] = audio.Source{Decoded: pcm}
	}
	for _, ssrc := range l.table.SSRCs() {
		if _, ok := speaking[ssrc]; !ok {
			tick.Silent = append(tick.Silent, ssrc)
		}
	}
	return tick
}
