package types

import "time"

// Job status values. A job is created in StatusProcessing and moves exactly
// once to StatusCompleted or StatusError.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Job is one tracked analysis run for a submitted video URL.
type Job struct {
	ID           string    `json:"job_id"`
	SourceURL    string    `json:"source_url"`
	Status       string    `json:"status"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Segments     []Segment `json:"segments,omitempty"`
	Summary      *Summary  `json:"summary,omitempty"`
	ErrorDetail  string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}

// Segment is one timed unit of recognized speech with its AI-generation
// probability.
type Segment struct {
	Text          string  `json:"text"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	Speaker       string  `json:"speaker,omitempty"`
	AIProbability float64 `json:"ai_probability"`
}

// Summary is the aggregate verdict over a job's segments.
type Summary struct {
	OverallProbability float64       `json:"overall_probability"`
	Prediction         string        `json:"prediction"`
	Confidence         string        `json:"confidence"`
	Rationale          string        `json:"rationale"`
	SentenceStats      SentenceStats `json:"sentence_stats"`
}

// SentenceStats counts how the segments lean.
type SentenceStats struct {
	AILeaning       int     `json:"ai_leaning"`
	HumanLeaning    int     `json:"human_leaning"`
	Neutral         int     `json:"neutral"`
	MeanProbability float64 `json:"mean_probability"`
}

// Word is one raw transcription unit as returned by the vendor, before
// classification attaches a probability.
type Word struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}
