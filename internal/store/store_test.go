package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voicecheck-go/internal/types"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	id := s.Create("https://www.youtube.com/watch?v=abc123")

	job, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != types.StatusProcessing {
		t.Errorf("status = %q, want processing", job.Status)
	}
	if job.SourceURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("source = %q", job.SourceURL)
	}
	if job.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestGetUnknown(t *testing.T) {
	s := New()
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkCompletedIsTerminal(t *testing.T) {
	s := New()
	id := s.Create("https://youtu.be/x")

	segments := []types.Segment{{Text: "hello", AIProbability: 0.9}}
	summary := types.Summary{OverallProbability: 0.9, Prediction: "AI-generated"}
	if err := s.MarkCompleted(id, segments, summary); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	job, _ := s.Get(id)
	if job.Status != types.StatusCompleted {
		t.Fatalf("status = %q", job.Status)
	}
	if job.Summary == nil || job.Summary.Prediction != "AI-generated" {
		t.Fatalf("summary = %+v", job.Summary)
	}

	// terminal state rejects every further write
	if err := s.MarkError(id, "late failure"); !errors.Is(err, ErrTerminal) {
		t.Errorf("MarkError after completed = %v, want ErrTerminal", err)
	}
	if err := s.MarkCompleted(id, nil, types.Summary{}); !errors.Is(err, ErrTerminal) {
		t.Errorf("MarkCompleted twice = %v, want ErrTerminal", err)
	}
	if err := s.SetThumbnail(id, "late.jpg"); !errors.Is(err, ErrTerminal) {
		t.Errorf("SetThumbnail after completed = %v, want ErrTerminal", err)
	}

	// record unchanged by the rejected writes
	again, _ := s.Get(id)
	if again.Status != types.StatusCompleted || again.ErrorDetail != "" {
		t.Errorf("terminal record mutated: %+v", again)
	}
}

func TestMarkError(t *testing.T) {
	s := New()
	id := s.Create("https://youtu.be/x")

	if err := s.MarkError(id, "audio extraction failed"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	job, _ := s.Get(id)
	if job.Status != types.StatusError {
		t.Errorf("status = %q", job.Status)
	}
	if job.ErrorDetail != "audio extraction failed" {
		t.Errorf("detail = %q", job.ErrorDetail)
	}
	if len(job.Segments) != 0 {
		t.Errorf("segments = %v, want empty", job.Segments)
	}
}

func TestSetThumbnailWhileProcessing(t *testing.T) {
	s := New()
	id := s.Create("https://youtu.be/x")

	if err := s.SetThumbnail(id, "https://img.example/th.jpg"); err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}
	job, _ := s.Get(id)
	if job.ThumbnailURL != "https://img.example/th.jpg" {
		t.Errorf("thumbnail = %q", job.ThumbnailURL)
	}
	if job.Status != types.StatusProcessing {
		t.Errorf("status changed to %q", job.Status)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := New()
	id := s.Create("https://youtu.be/x")
	_ = s.MarkCompleted(id, []types.Segment{{Text: "a", AIProbability: 0.2}}, types.Summary{})

	job, _ := s.Get(id)
	job.Segments[0].AIProbability = 0.99
	job.Summary.Prediction = "tampered"

	again, _ := s.Get(id)
	if again.Segments[0].AIProbability != 0.2 {
		t.Error("segment mutated through snapshot")
	}
	if again.Summary.Prediction == "tampered" {
		t.Error("summary mutated through snapshot")
	}
}

func TestConcurrentCreates(t *testing.T) {
	s := New()
	const n = 100

	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = s.Create("https://youtu.be/x")
		}(i)
	}
	wg.Wait()

	if s.Len() != n {
		t.Fatalf("Len = %d, want %d", s.Len(), n)
	}
	seen := make(map[string]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestAwaitTerminal(t *testing.T) {
	s := New()
	id := s.Create("https://youtu.be/x")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = s.MarkError(id, "boom")
	}()

	job, err := s.AwaitTerminal(context.Background(), id, 2*time.Second)
	if err != nil {
		t.Fatalf("AwaitTerminal: %v", err)
	}
	if job.Status != types.StatusError {
		t.Errorf("status = %q", job.Status)
	}
}

func TestAwaitTerminalTimeout(t *testing.T) {
	s := New()
	id := s.Create("https://youtu.be/x")

	_, err := s.AwaitTerminal(context.Background(), id, 150*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("err = %v, want ErrWaitTimeout", err)
	}

	// the job itself is untouched by the caller's timeout
	job, _ := s.Get(id)
	if job.Status != types.StatusProcessing {
		t.Errorf("status = %q, want processing", job.Status)
	}
}

func TestAwaitTerminalUnknownJob(t *testing.T) {
	s := New()
	if _, err := s.AwaitTerminal(context.Background(), "nope", time.Second); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
