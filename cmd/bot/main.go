package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"discord-record/internal/api"
	"discord-record/internal/audio"
	"discord-record/internal/discord"
	"discord-record/internal/storage"
	"discord-record/internal/transcribe"
	"discord-record/internal/tts"
	"discord-record/pkg/config"
	"discord-record/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting voice recorder bot...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table := discord.NewSSRCTable()

	// Both encoder paths pre-encode their silent frames here; a broken
	// libopus surfaces before anything connects.
	recorder, err := audio.NewRecorder(table.Resolve, log)
	if err != nil {
		log.Fatal("Failed to create recorder", zap.Error(err))
	}

	store, err := storage.NewStore(cfg.AudioDir, log)
	if err != nil {
		log.Fatal("Failed to create audio store", zap.Error(err))
	}

	ttsClient := tts.NewClient(cfg.TTSHost, cfg.TTSTimeout, log)
	transcriber := transcribe.NewClient(cfg.OpenAIAPIKey, log)

	bot, err := discord.New(cfg, recorder, table, store, ttsClient, transcriber, log)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := recorder.Start(ctx); err != nil {
		log.Fatal("Failed to start recorder", zap.Error(err))
	}
	defer recorder.Stop()

	httpServer := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewServer(recorder, log).Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(ctx)
	})

	g.Go(func() error {
		log.Info("API listening", zap.String("addr", cfg.APIAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return httpServer.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Shutdown with error", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
