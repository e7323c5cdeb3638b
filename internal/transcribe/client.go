// Package transcribe turns drained recordings into text via the OpenAI
// audio transcription API. Whisper accepts Ogg-Opus directly, so drains go
// over the wire unmodified.
package transcribe

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client wraps the OpenAI audio API. A nil inner client means the feature
// is disabled (no OPENAI_API_KEY).
type Client struct {
	api    *openai.Client
	logger *zap.Logger
}

// NewClient creates a transcription client; apiKey may be empty.
func NewClient(apiKey string, logger *zap.Logger) *Client {
	c := &Client{logger: logger}
	if apiKey != "" {
		c.api = openai.NewClient(apiKey)
	}
	return c
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// Transcribe sends one Ogg-Opus recording and returns the transcript.
func (c *Client) Transcribe(ctx context.Context, ogg []byte) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("transcription is not configured (OPENAI_API_KEY missing)")
	}

	c.logger.Info("transcribing recording", zap.Int("bytes", len(ogg)))

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "recording.ogg",
		Reader:   bytes.NewReader(ogg),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return resp.Text, nil
}
