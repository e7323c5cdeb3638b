// Package discord is the transport glue: session lifecycle, voice channel
// membership, operator commands, and the listener that feeds decoded voice
// into the recording core.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-record/internal/audio"
	"discord-record/internal/storage"
	"discord-record/internal/transcribe"
	"discord-record/internal/tts"
	"discord-record/pkg/config"
	apperrors "discord-record/pkg/errors"
)

// Bot owns the Discord session and the voice connection it records from.
type Bot struct {
	cfg         *config.Config
	session     *discordgo.Session
	recorder    *audio.Recorder
	table       *SSRCTable
	listener    *Listener
	store       *storage.Store
	tts         *tts.Client
	transcriber *transcribe.Client
	logger      *zap.Logger

	ctx context.Context

	vcMu sync.Mutex
	vc   *discordgo.VoiceConnection
}

// New creates the bot and registers its handlers.
func New(
	cfg *config.Config,
	recorder *audio.Recorder,
	table *SSRCTable,
	store *storage.Store,
	ttsClient *tts.Client,
	transcriber *transcribe.Client,
	logger *zap.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	b := &Bot{
		cfg:         cfg,
		session:     session,
		recorder:    recorder,
		table:       table,
		listener:    NewListener(table, recorder, logger),
		store:       store,
		tts:         ttsClient,
		transcriber: transcriber,
		logger:      logger,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessage)

	// Voice state tracking is required for voice connections; message
	// content is required for prefix commands.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent

	return b, nil
}

// Run opens the session and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	b.logger.Info("discord session open")

	<-ctx.Done()

	b.leaveVoice()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord connection: %w", err)
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("connected", zap.String("user", r.User.Username))

	if err := b.joinVoice(); err != nil {
		b.logger.Error("failed to join voice channel on startup", zap.Error(err))
	}
}

func (b *Bot) joinVoice() error {
	b.vcMu.Lock()
	defer b.vcMu.Unlock()

	if b.vc != nil {
		return nil
	}

	// Deafened bots receive no audio; never join deaf.
	vc, err := b.session.ChannelVoiceJoin(b.cfg.GuildID, b.cfg.VoiceChannelID, false, false)
	if err != nil {
		return fmt.Errorf("join voice channel %s: %w", b.cfg.VoiceChannelID, err)
	}
	b.vc = vc

	if err := b.listener.Attach(b.ctx, vc); err != nil {
		return fmt.Errorf("attach listener: %w", err)
	}

	b.logger.Info("joined voice channel", zap.String("channel_id", b.cfg.VoiceChannelID))
	b.announce(fmt.Sprintf("Joined <#%s>", b.cfg.VoiceChannelID))
	return nil
}

func (b *Bot) leaveVoice() {
	b.vcMu.Lock()
	defer b.vcMu.Unlock()

	if b.vc == nil {
		return
	}

	b.listener.Detach()
	if err := b.vc.Disconnect(); err != nil {
		b.logger.Warn("voice disconnect failed", zap.Error(err))
	}
	b.vc = nil
	b.logger.Info("left voice channel")
}

// voiceConnection returns the live voice connection for playback.
func (b *Bot) voiceConnection() (*discordgo.VoiceConnection, error) {
	b.vcMu.Lock()
	defer b.vcMu.Unlock()
	if b.vc == nil {
		return nil, apperrors.ErrVoiceNotConnected
	}
	return b.vc, nil
}

// announce posts to the configured text channel, if any.
func (b *Bot) announce(msg string) {
	if b.cfg.TextChannelID == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(b.cfg.TextChannelID, msg); err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
	}
}
