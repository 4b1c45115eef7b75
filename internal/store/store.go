package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicecheck-go/internal/logger"
	"voicecheck-go/internal/types"
)

var (
	// ErrNotFound means the job identifier is unknown.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal means a write was attempted against a job that already
	// reached completed or error.
	ErrTerminal = errors.New("job already terminal")
	// ErrWaitTimeout means AwaitTerminal gave up before the job settled.
	// The job itself is unaffected and may still finish later.
	ErrWaitTimeout = errors.New("timed out waiting for job to finish")
)

// awaitPollInterval is how often AwaitTerminal re-reads a processing job.
const awaitPollInterval = 100 * time.Millisecond

// Store is the in-memory source of truth for jobs. Status transitions are
// monotonic: processing is the only non-terminal state, and once a job is
// terminal no further mutation is accepted.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*types.Job
}

func New() *Store {
	return &Store{jobs: make(map[string]*types.Job)}
}

// Create inserts a new job in processing state and returns its identifier.
func (s *Store) Create(sourceURL string) string {
	job := &types.Job{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		Status:    types.StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	logger.Component("store").WithField("job_id", job.ID).Info("job created")
	return job.ID
}

// Get returns a snapshot of the job. Callers own the returned value and
// cannot affect the stored record through it.
func (s *Store) Get(id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return types.Job{}, ErrNotFound
	}
	return snapshot(job), nil
}

// Len reports how many jobs the store holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// MarkCompleted transitions processing -> completed with the job's results.
func (s *Store) MarkCompleted(id string, segments []types.Segment, summary types.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return ErrTerminal
	}

	job.Status = types.StatusCompleted
	job.Segments = append([]types.Segment(nil), segments...)
	job.Summary = &summary
	return nil
}

// MarkError transitions processing -> error, preserving the detail message.
func (s *Store) MarkError(id, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return ErrTerminal
	}

	job.Status = types.StatusError
	job.ErrorDetail = detail
	return nil
}

// SetThumbnail records the thumbnail reference without changing status.
// Only valid while the job is still processing.
func (s *Store) SetThumbnail(id, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return ErrTerminal
	}

	job.ThumbnailURL = ref
	return nil
}

// AwaitTerminal blocks until the job reaches a terminal state, the wait
// bound elapses (ErrWaitTimeout), or ctx is done. The underlying job keeps
// running either way.
func (s *Store) AwaitTerminal(ctx context.Context, id string, wait time.Duration) (types.Job, error) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(awaitPollInterval)
	defer tick.Stop()

	for {
		job, err := s.Get(id)
		if err != nil {
			return types.Job{}, err
		}
		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return types.Job{}, ctx.Err()
		case <-deadline.C:
			return types.Job{}, ErrWaitTimeout
		case <-tick.C:
		}
	}
}

func snapshot(job *types.Job) types.Job {
	out := *job
	if job.Segments != nil {
		out.Segments = append([]types.Segment(nil), job.Segments...)
	}
	if job.Summary != nil {
		sum := *job.Summary
		out.Summary = &sum
	}
	return out
}
