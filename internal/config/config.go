package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the service reads from the environment.
// Adapter timeouts are configuration inputs, not constants.
type Config struct {
	Port string

	ThumbnailTimeout  time.Duration
	AudioTimeout      time.Duration
	TranscribeTimeout time.Duration
	ClassifyTimeout   time.Duration

	// ResultWait bounds how long the result endpoint blocks for a job that
	// is still processing.
	ResultWait time.Duration

	// ClassifyMinChars is the shortest text body worth sending to the
	// detector; anything shorter gets the neutral probability.
	ClassifyMinChars int
	CacheSize        int

	TranscribeURL  string
	DetectorURL    string
	DetectorAPIKey string

	WorkDir string
}

// Load reads the config from the environment, applying defaults for
// anything unset.
func Load() Config {
	return Config{
		Port: envOr("PORT", "8080"),

		ThumbnailTimeout:  durationOr("THUMBNAIL_TIMEOUT", 15*time.Second),
		AudioTimeout:      durationOr("AUDIO_TIMEOUT", 2*time.Minute),
		TranscribeTimeout: durationOr("TRANSCRIBE_TIMEOUT", 3*time.Minute),
		ClassifyTimeout:   durationOr("CLASSIFY_TIMEOUT", 20*time.Second),

		ResultWait: durationOr("RESULT_WAIT_TIMEOUT", 2*time.Minute),

		ClassifyMinChars: intOr("CLASSIFY_MIN_CHARS", 40),
		CacheSize:        intOr("CACHE_SIZE", 1024),

		TranscribeURL:  os.Getenv("TRANSCRIBE_URL"),
		DetectorURL:    os.Getenv("DETECTOR_URL"),
		DetectorAPIKey: os.Getenv("DETECTOR_API_KEY"),

		WorkDir: envOr("WORK_DIR", os.TempDir()),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationOr(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func intOr(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
