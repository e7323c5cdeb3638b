// Package api exposes the drain operations over HTTP, so recordings can be
// pulled without going through Discord.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"discord-record/internal/audio"
	apperrors "discord-record/pkg/errors"
)

// Server serves drain and health endpoints backed by the recorder.
type Server struct {
	recorder *audio.Recorder
	logger   *zap.Logger
}

// NewServer creates the HTTP facade over recorder.
func NewServer(recorder *audio.Recorder, logger *zap.Logger) *Server {
	return &Server{recorder: recorder, logger: logger}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	v1 := r.Group("/v1")
	{
		v1.GET("/lookback", s.lookback)
		v1.GET("/speakers/:id", s.speaker)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"lookback_frames": s.recorder.Lookback.Len(),
	})
}

// lookback streams the mixed recording, optionally trimmed with
// ?window=2m.
func (s *Server) lookback(c *gin.Context) {
	var ogg []byte
	var err error

	if windowStr := c.Query("window"); windowStr != "" {
		var window time.Duration
		window, err = time.ParseDuration(windowStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("bad window %q", windowStr)})
			return
		}
		ogg, err = s.recorder.Lookback.DrainWindow(window)
	} else {
		ogg, err = s.recorder.Lookback.Drain()
	}
	if err != nil {
		s.logger.Error("lookback drain failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.sendOgg(c, "lookback.ogg", ogg)
}

// speaker streams one user's rolling recording.
func (s *Server) speaker(c *gin.Context) {
	user, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "speaker id must be numeric"})
		return
	}

	ogg, err := s.recorder.Speakers.Drain(user)
	if err != nil {
		var unknown *apperrors.ErrUnknownSpeaker
		if errors.As(err, &unknown) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("speaker drain failed", zap.Uint64("user_id", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.sendOgg(c, fmt.Sprintf("%d.ogg", user), ogg)
}

func (s *Server) sendOgg(c *gin.Context, name string, ogg []byte) {
	id := uuid.NewString()
	s.logger.Info("serving recording",
		zap.String("recording_id", id),
		zap.String("name", name),
		zap.Int("bytes", len(ogg)))

	c.Header("X-Recording-ID", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "audio/ogg", ogg)
}
