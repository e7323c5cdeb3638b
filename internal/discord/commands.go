package discord

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	apperrors "discord-record/pkg/errors"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}
	if b.cfg.TextChannelID != "" && m.ChannelID != b.cfg.TextChannelID {
		return
	}
	if !strings.HasPrefix(m.Content, b.cfg.CommandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, b.cfg.CommandPrefix))
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]

	b.logger.Info("command received",
		zap.String("command", cmd),
		zap.String("author", m.Author.ID),
		zap.Strings("args", args))

	switch cmd {
	case "ping":
		b.reply(m, "Pong!")
	case "join":
		if err := b.joinVoice(); err != nil {
			b.replyError(m, err)
		}
	case "leave":
		b.leaveVoice()
		b.reply(m, "Left voice channel")
	case "dump":
		b.handleDump(m, args)
	case "clone":
		b.handleClone(m)
	case "ctts":
		b.handleCTTS(m, args)
	case "transcribe":
		b.handleTranscribe(m, args)
	}
}

// handleDump drains the mixed lookback, optionally trimmed to a duration
// ("2m") and optionally persisted ("disk"), and replies with the file.
func (b *Bot) handleDump(m *discordgo.MessageCreate, args []string) {
	var window time.Duration
	var trimmed, toDisk bool
	for _, arg := range args {
		if arg == "disk" {
			toDisk = true
			continue
		}
		if d, err := time.ParseDuration(arg); err == nil {
			window, trimmed = d, true
		}
	}

	b.reply(m, "dumping")

	var ogg []byte
	var err error
	if trimmed {
		ogg, err = b.recorder.Lookback.DrainWindow(window)
	} else {
		ogg, err = b.recorder.Lookback.Drain()
	}
	if err != nil {
		b.replyError(m, err)
		return
	}

	if toDisk {
		path, err := b.store.WriteTimestamped(ogg)
		if err != nil {
			b.replyError(m, err)
			return
		}
		b.logger.Info("dump written to disk", zap.String("path", path))
	}

	if _, err := b.session.ChannelFileSend(m.ChannelID, "dump.ogg", bytes.NewReader(ogg)); err != nil {
		b.logger.Error("failed to attach dump", zap.Error(err))
	}
}

// handleClone drains the mentioned user's rolling recording and persists it
// as that user's cloning reference.
func (b *Bot) handleClone(m *discordgo.MessageCreate) {
	user, err := mentionedUser(m)
	if err != nil {
		b.replyError(m, err)
		return
	}

	b.reply(m, fmt.Sprintf("cloning last 2m of voice for <@%d>", user))

	ogg, err := b.recorder.Speakers.Drain(user)
	if err != nil {
		b.replyError(m, err)
		return
	}
	if _, err := b.store.WriteUser(user, ogg); err != nil {
		b.replyError(m, err)
		return
	}
	b.reply(m, "finished cloning")
}

// handleCTTS synthesizes text in the mentioned user's cloned voice and
// plays it into the channel. Requires a prior clone of that user.
func (b *Bot) handleCTTS(m *discordgo.MessageCreate, args []string) {
	user, err := mentionedUser(m)
	if err != nil {
		b.replyError(m, err)
		return
	}
	text := textAfterMention(args)
	if text == "" {
		b.reply(m, "usage: ctts @user <text>")
		return
	}

	b.reply(m, "working on tts")

	reference, err := b.store.ReadUser(user)
	if err != nil {
		b.replyError(m, err)
		return
	}

	synthesized, err := b.tts.Synthesize(b.ctx, reference, text)
	if err != nil {
		b.replyError(m, err)
		return
	}

	vc, err := b.voiceConnection()
	if err != nil {
		b.replyError(m, err)
		return
	}
	if err := playOgg(vc, synthesized, b.logger); err != nil {
		b.replyError(m, err)
		return
	}
	b.reply(m, "finished tts")
}

// handleTranscribe drains the lookback (optionally trimmed) and replies
// with the transcript.
func (b *Bot) handleTranscribe(m *discordgo.MessageCreate, args []string) {
	if !b.transcriber.Enabled() {
		b.reply(m, "transcription is not configured")
		return
	}

	var ogg []byte
	var err error
	if len(args) > 0 {
		if d, perr := time.ParseDuration(args[0]); perr == nil {
			ogg, err = b.recorder.Lookback.DrainWindow(d)
		} else {
			b.reply(m, fmt.Sprintf("bad duration %q", args[0]))
			return
		}
	} else {
		ogg, err = b.recorder.Lookback.Drain()
	}
	if err != nil {
		b.replyError(m, err)
		return
	}

	b.reply(m, "transcribing")

	text, err := b.transcriber.Transcribe(b.ctx, ogg)
	if err != nil {
		b.replyError(m, err)
		return
	}
	if text == "" {
		text = "(no speech detected)"
	}
	if len(text) > 1900 {
		text = text[:1900] + "…"
	}
	b.reply(m, text)
}

func (b *Bot) reply(m *discordgo.MessageCreate, msg string) {
	if _, err := b.session.ChannelMessageSend(m.ChannelID, msg); err != nil {
		b.logger.Warn("failed to send reply", zap.Error(err))
	}
}

func (b *Bot) replyError(m *discordgo.MessageCreate, err error) {
	b.logger.Error("command failed", zap.Error(err))

	var unknown *apperrors.ErrUnknownSpeaker
	if errors.As(err, &unknown) {
		b.reply(m, fmt.Sprintf("no recording for <@%d> yet", unknown.UserID))
		return
	}
	b.reply(m, "error: "+err.Error())
}

// mentionedUser returns the first mentioned user's ID.
func mentionedUser(m *discordgo.MessageCreate) (uint64, error) {
	if len(m.Mentions) == 0 {
		return 0, fmt.Errorf("mention the target user")
	}
	id, err := strconv.ParseUint(m.Mentions[0].ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable user id %q", m.Mentions[0].ID)
	}
	return id, nil
}

// textAfterMention drops the leading mention token and rejoins the rest.
func textAfterMention(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "<@") {
			return strings.Join(args[i+1:], " ")
		}
	}
	return strings.Join(args, " ")
}
