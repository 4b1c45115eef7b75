package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"voicecheck-go/internal/audio"
	"voicecheck-go/internal/cache"
	"voicecheck-go/internal/classifier"
	"voicecheck-go/internal/config"
	"voicecheck-go/internal/handlers"
	"voicecheck-go/internal/logger"
	"voicecheck-go/internal/pipeline"
	"voicecheck-go/internal/store"
	"voicecheck-go/internal/thumbnail"
	"voicecheck-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "voicecheck-go").Info("starting service")

	cfg := config.Load()

	jobs := store.New()

	detector := classifier.NewClient(cfg.DetectorURL, cfg.DetectorAPIKey, cfg.ClassifyTimeout)
	scores, err := cache.New(detector, cfg.CacheSize, cfg.ClassifyMinChars)
	if err != nil {
		log.WithError(err).Fatal("failed to build classification cache")
	}

	orchestrator := pipeline.New(
		jobs,
		thumbnail.NewYouTube(pipeline.PlaceholderThumbnail),
		audio.NewExtractor(),
		transcription.NewClient(cfg.TranscribeURL, cfg.TranscribeTimeout),
		scores,
		cfg,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	handlers.NewAnalysisHandler(jobs, orchestrator, cfg.ResultWait).Register(e)

	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	// in-flight jobs still settle in the store before we exit
	orchestrator.Drain()
	log.Info("stopped")
}
