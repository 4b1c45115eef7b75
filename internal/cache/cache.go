package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"voicecheck-go/internal/aggregator"
	"voicecheck-go/internal/logger"
)

// Classifier is the expensive call the cache memoizes.
type Classifier interface {
	Classify(ctx context.Context, text string) (float64, error)
}

// Cache memoizes classification results by content fingerprint. Bounded LRU,
// safe for concurrent use. Two concurrent misses on the same fingerprint may
// both call the classifier; last write wins, which is fine because the
// classifier is idempotent for identical input.
type Cache struct {
	entries    *lru.Cache[string, float64]
	classifier Classifier
	minChars   int
}

// New builds a cache of at most size entries. Texts shorter than minChars
// are never classified and never cached.
func New(classifier Classifier, size, minChars int) (*Cache, error) {
	entries, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, classifier: classifier, minChars: minChars}, nil
}

// Score returns the AI probability for text. Cache hits skip the classifier.
// Short text and classifier failures both come back as the neutral
// probability; failures are not cached so a transient outage cannot pin a
// neutral score for a fingerprint.
func (c *Cache) Score(ctx context.Context, text string) float64 {
	log := logger.Component("cache")

	if len(strings.TrimSpace(text)) < c.minChars {
		log.WithField("chars", len(text)).Debug("text too short to classify, using neutral probability")
		return aggregator.NeutralProbability
	}

	key := fingerprint(text)
	if p, ok := c.entries.Get(key); ok {
		log.WithField("fingerprint", key[:12]).Debug("cache hit")
		return p
	}

	p, err := c.classifier.Classify(ctx, text)
	if err != nil {
		log.WithField("error", err.Error()).Warn("classification failed, using neutral probability")
		return aggregator.NeutralProbability
	}

	c.entries.Add(key, p)
	return p
}

// Len reports how many fingerprints are currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
