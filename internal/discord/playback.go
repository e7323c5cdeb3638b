package discord

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pion/webrtc/v3/pkg/media/oggreader"
	"go.uber.org/zap"

	"discord-record/internal/audio"
)

// playOgg demuxes an Ogg-Opus stream and plays it over the voice
// connection, pacing one packet per 20ms. The streams we play carry one
// Opus packet per page, so each page payload goes out as one frame.
func playOgg(vc *discordgo.VoiceConnection, ogg []byte, logger *zap.Logger) error {
	reader, _, err := oggreader.NewWith(bytes.NewReader(ogg))
	if err != nil {
		return fmt.Errorf("parse ogg stream: %w", err)
	}

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("set speaking: %w", err)
	}
	defer func() {
		if err := vc.Speaking(false); err != nil {
			logger.Warn("failed to clear speaking state", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()

	sent := 0
	for {
		payload, _, err := reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("parse ogg page: %w", err)
		}
		// The comment header page carries no audio.
		if bytes.HasPrefix(payload, []byte("OpusTags")) {
			continue
		}

		<-ticker.C
		vc.OpusSend <- payload
		sent++
	}

	logger.Info("playback finished", zap.Int("frames", sent))
	return nil
}
