package cache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type countingClassifier struct {
	calls atomic.Int32
	prob  float64
	err   error
}

func (c *countingClassifier) Classify(ctx context.Context, text string) (float64, error) {
	c.calls.Add(1)
	return c.prob, c.err
}

const longText = "this transcript is comfortably longer than the minimum length the detector needs"

func TestScoreCachesByFingerprint(t *testing.T) {
	cl := &countingClassifier{prob: 0.87}
	c, err := New(cl, 16, 10)
	if err != nil {
		t.Fatal(err)
	}

	first := c.Score(context.Background(), longText)
	second := c.Score(context.Background(), longText)

	if first != 0.87 || second != 0.87 {
		t.Errorf("scores = %v, %v, want 0.87", first, second)
	}
	if n := cl.calls.Load(); n != 1 {
		t.Errorf("classifier called %d times, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}

func TestScoreDistinctTexts(t *testing.T) {
	cl := &countingClassifier{prob: 0.6}
	c, _ := New(cl, 16, 10)

	c.Score(context.Background(), longText)
	c.Score(context.Background(), longText+" with a different tail")

	if n := cl.calls.Load(); n != 2 {
		t.Errorf("classifier called %d times, want 2", n)
	}
}

func TestScoreShortTextBypasses(t *testing.T) {
	cl := &countingClassifier{prob: 0.9}
	c, _ := New(cl, 16, 40)

	p := c.Score(context.Background(), "too short")
	if p != 0.5 {
		t.Errorf("score = %v, want neutral 0.5", p)
	}
	if n := cl.calls.Load(); n != 0 {
		t.Errorf("classifier called %d times, want 0", n)
	}
	if c.Len() != 0 {
		t.Errorf("cache len = %d, want 0", c.Len())
	}
}

func TestScoreFailureIsNeutralAndUncached(t *testing.T) {
	cl := &countingClassifier{err: errors.New("detector down")}
	c, _ := New(cl, 16, 10)

	if p := c.Score(context.Background(), longText); p != 0.5 {
		t.Errorf("score = %v, want neutral 0.5", p)
	}
	if c.Len() != 0 {
		t.Error("failure was cached")
	}

	// detector recovers: the next call must reach it
	cl.err = nil
	cl.prob = 0.75
	if p := c.Score(context.Background(), longText); p != 0.75 {
		t.Errorf("score after recovery = %v, want 0.75", p)
	}
	if n := cl.calls.Load(); n != 2 {
		t.Errorf("classifier called %d times, want 2", n)
	}
}

func TestScoreEvicts(t *testing.T) {
	cl := &countingClassifier{prob: 0.5}
	c, _ := New(cl, 2, 1)

	for _, s := range []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"} {
		c.Score(context.Background(), strings.Repeat(s, 2))
	}
	if c.Len() != 2 {
		t.Errorf("cache len = %d, want bounded at 2", c.Len())
	}
}
