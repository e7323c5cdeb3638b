// Package tts calls the external voice-cloning text-to-speech service: a
// blocking HTTP request carrying reference audio plus text, answered with a
// synthesized Ogg-Opus stream.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	apperrors "discord-record/pkg/errors"
)

// Client talks to a single TTS host.
type Client struct {
	host   string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a client for host (empty disables the feature).
func NewClient(host string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		host:   host,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Enabled reports whether a TTS host is configured.
func (c *Client) Enabled() bool {
	return c.host != ""
}

// Synthesize submits the reference recording and text and returns the
// synthesized audio bytes.
func (c *Client) Synthesize(ctx context.Context, reference []byte, text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, apperrors.ErrTTSNotConfigured
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="speaker"; filename="speaker.ogg"`)
	header.Set("Content-Type", "audio/ogg")
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create speaker part: %w", err)
	}
	if _, err := part.Write(reference); err != nil {
		return nil, fmt.Errorf("write speaker part: %w", err)
	}
	if err := form.WriteField("text", text); err != nil {
		return nil, fmt.Errorf("write text field: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/tts", &body)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Info("requesting tts", zap.Int("reference_bytes", len(reference)), zap.Int("text_len", len(text)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeTTS, "tts request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeTTS,
			fmt.Sprintf("tts service returned %s", resp.Status), nil)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	return audio, nil
}
