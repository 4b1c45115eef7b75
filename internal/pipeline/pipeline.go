package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"voicecheck-go/internal/aggregator"
	"voicecheck-go/internal/config"
	"voicecheck-go/internal/logger"
	"voicecheck-go/internal/store"
	"voicecheck-go/internal/types"
)

// ErrInvalidSource rejects a submission before any job is created.
var ErrInvalidSource = errors.New("not a recognizable video URL")

// PlaceholderThumbnail marks a job whose thumbnail could not be captured.
const PlaceholderThumbnail = "about:blank#thumbnail-unavailable"

// Orchestrator drives one job per submission through acquisition,
// transcription, classification and aggregation. Every run ends in exactly
// one terminal write to the store, whatever goes wrong on the way.
type Orchestrator struct {
	store       *store.Store
	thumbnailer Thumbnailer
	audio       AudioExtractor
	transcriber Transcriber
	scorer      Scorer
	cfg         config.Config

	running sync.WaitGroup
}

func New(s *store.Store, t Thumbnailer, a AudioExtractor, tr Transcriber, sc Scorer, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		store:       s,
		thumbnailer: t,
		audio:       a,
		transcriber: tr,
		scorer:      sc,
		cfg:         cfg,
	}
}

// Submit validates the source, creates the job and starts its background
// run. The returned identifier is usable for status queries immediately.
func (o *Orchestrator) Submit(sourceURL string) (string, error) {
	if err := ValidateSource(sourceURL); err != nil {
		return "", err
	}

	id := o.store.Create(sourceURL)
	o.running.Add(1)
	go func() {
		defer o.running.Done()
		o.run(id, sourceURL)
	}()
	return id, nil
}

// Drain blocks until every in-flight job has settled. Used on shutdown and
// by tests; new submissions during a drain are not prevented.
func (o *Orchestrator) Drain() {
	o.running.Wait()
}

// ValidateSource checks that the reference is a usable video URL.
func ValidateSource(sourceURL string) error {
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSource
	}
	return nil
}

func (o *Orchestrator) run(id, sourceURL string) {
	log := logger.Component("pipeline").WithField("job_id", id)
	start := time.Now()

	var (
		audioPath string
		failure   error
	)
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("pipeline panic: %v", r)
		}
		if audioPath != "" {
			if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
				log.WithField("path", audioPath).Warn("could not remove audio artifact")
			}
		}
		if failure != nil {
			log.WithField("error", failure.Error()).Warn("job failed")
			if err := o.store.MarkError(id, failure.Error()); err != nil {
				log.WithField("error", err.Error()).Error("could not record job failure")
			}
		}
	}()

	// Acquisition fan-out: thumbnail and audio start together, and both must
	// settle before the pipeline moves on. A join, not a race.
	var (
		acquisition sync.WaitGroup
		thumbRef    string
		thumbErr    error
		audioErr    error
	)
	acquisition.Add(2)
	go func() {
		defer acquisition.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.ThumbnailTimeout)
		defer cancel()
		thumbRef, thumbErr = o.thumbnailer.Capture(ctx, sourceURL)
	}()
	go func() {
		defer acquisition.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.AudioTimeout)
		defer cancel()
		audioPath, audioErr = o.audio.Extract(ctx, sourceURL, o.cfg.WorkDir)
	}()
	acquisition.Wait()

	// Thumbnail trouble never fails the job.
	if thumbErr != nil || thumbRef == "" {
		log.WithError(thumbErr).Warn("thumbnail capture failed, using placeholder")
		thumbRef = PlaceholderThumbnail
	}
	if err := o.store.SetThumbnail(id, thumbRef); err != nil {
		log.WithField("error", err.Error()).Warn("could not record thumbnail")
	}

	// Audio is a hard dependency for everything downstream.
	if audioErr != nil {
		failure = fmt.Errorf("audio extraction: %w", audioErr)
		return
	}

	tctx, tcancel := context.WithTimeout(context.Background(), o.cfg.TranscribeTimeout)
	defer tcancel()
	words, err := o.transcriber.Transcribe(tctx, audioPath)
	if err != nil {
		failure = fmt.Errorf("transcription: %w", err)
		return
	}
	if len(words) == 0 {
		failure = errors.New("transcription recognized no speech")
		return
	}

	// One classification over the whole body; the probability is applied
	// uniformly to every segment.
	cctx, ccancel := context.WithTimeout(context.Background(), o.cfg.ClassifyTimeout)
	defer ccancel()
	prob := o.scorer.Score(cctx, joinWords(words))

	segments := make([]types.Segment, len(words))
	for i, w := range words {
		segments[i] = types.Segment{
			Text:          w.Text,
			StartTime:     w.Start,
			EndTime:       w.End,
			Speaker:       w.Speaker,
			AIProbability: prob,
		}
	}

	summary := aggregator.Summarize(segments)
	if err := o.store.MarkCompleted(id, segments, summary); err != nil {
		log.WithField("error", err.Error()).Error("could not record job completion")
		return
	}

	log.WithField("segments", len(segments)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("job completed")
}

func joinWords(words []types.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}
