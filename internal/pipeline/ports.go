package pipeline

import (
	"context"

	"voicecheck-go/internal/types"
)

// Capability contracts for the external collaborators the pipeline drives.
// Each implementation wraps one vendor behind a single method so tests can
// substitute fakes.

// Thumbnailer captures a preview image reference for the source video.
// Implementations should recover their own failures and return a placeholder;
// the orchestrator treats any error it does see as soft.
type Thumbnailer interface {
	Capture(ctx context.Context, sourceURL string) (string, error)
}

// AudioExtractor downloads the source's audio and normalizes it, returning
// the path of a mono 16 kHz artifact under destDir. The caller removes the
// artifact when the job settles.
type AudioExtractor interface {
	Extract(ctx context.Context, sourceURL, destDir string) (string, error)
}

// Transcriber turns an audio artifact into ordered, timestamped word units.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]types.Word, error)
}

// Scorer returns the AI-generation probability for a text body. It never
// fails: detector trouble degrades to a neutral score inside the scorer.
type Scorer interface {
	Score(ctx context.Context, text string) float64
}
