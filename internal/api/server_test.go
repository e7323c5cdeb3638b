package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"discord-record/internal/audio"
)

func testRouter(t *testing.T) (*audio.Recorder, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder, err := audio.NewRecorder(func(uint32) (uint64, bool) { return 0, false }, zaptest.NewLogger(t))
	require.NoError(t, err)

	return recorder, NewServer(recorder, zaptest.NewLogger(t)).Router()
}

func TestHealthEndpoint(t *testing.T) {
	recorder, router := testRouter(t)
	recorder.Lookback.Tick(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, float64(1), response["lookback_frames"])
}

func TestLookbackEndpoint(t *testing.T) {
	recorder, router := testRouter(t)
	recorder.Lookback.Tick(nil)
	recorder.Lookback.Tick(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/lookback", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/ogg", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Recording-ID"))
	assert.Equal(t, "OggS", w.Body.String()[:4])
}

func TestLookbackEndpointWindow(t *testing.T) {
	recorder, router := testRouter(t)
	for i := 0; i < 5; i++ {
		recorder.Lookback.Tick(nil)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/lookback?window=40ms", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/lookback?window=bogus", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpeakerEndpoint(t *testing.T) {
	recorder, router := testRouter(t)
	recorder.Speakers.Push(7, make([]int16, audio.FrameSamples))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/speakers/7", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/ogg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "7.ogg")
}

func TestSpeakerEndpointUnknown(t *testing.T) {
	_, router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/speakers/999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSpeakerEndpointBadID(t *testing.T) {
	_, router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/speakers/notanumber", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
