package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "discord-record/pkg/errors"
)

func TestSynthesizeSubmitsMultipartForm(t *testing.T) {
	var gotText string
	var gotRef []byte
	var gotFilename, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tts", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotText = r.FormValue("text")

		file, header, err := r.FormFile("speaker")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		gotRef, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Write([]byte("synthesized-audio"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	out, err := c.Synthesize(context.Background(), []byte("reference-ogg"), "hello there")
	require.NoError(t, err)

	assert.Equal(t, []byte("synthesized-audio"), out)
	assert.Equal(t, "hello there", gotText)
	assert.Equal(t, []byte("reference-ogg"), gotRef)
	assert.Equal(t, "speaker.ogg", gotFilename)
	assert.Equal(t, "audio/ogg", gotContentType)
}

func TestSynthesizeNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	_, err := c.Synthesize(context.Background(), []byte("ref"), "text")
	require.Error(t, err)

	var base *apperrors.BaseError
	assert.True(t, errors.As(err, &base))
}

func TestSynthesizeWithoutHost(t *testing.T) {
	c := NewClient("", 5*time.Second, zaptest.NewLogger(t))
	assert.False(t, c.Enabled())

	_, err := c.Synthesize(context.Background(), []byte("ref"), "text")
	assert.ErrorIs(t, err, apperrors.ErrTTSNotConfigured)
}
