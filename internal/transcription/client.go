package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"voicecheck-go/internal/logger"
	"voicecheck-go/internal/types"
)

// pollInterval paces the status checks against the vendor.
const pollInterval = 1500 * time.Millisecond

// Client talks to the transcription vendor: publish the audio, poll until
// the job settles, download the word units. Set USE_MOCK_TRANSCRIBE=true for
// a deterministic offline transcript.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type publishResponse struct {
	Code    int    `json:"code"`
	MediaID string `json:"media_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

type statusResponse struct {
	Code   int          `json:"code"`
	Status string       `json:"status"` // queued, processing, completed, failed
	Words  []types.Word `json:"words,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// Transcribe uploads the audio artifact and returns its ordered word units.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]types.Word, error) {
	if os.Getenv("USE_MOCK_TRANSCRIBE") == "true" {
		return mockWords(), nil
	}
	if c.baseURL == "" {
		return nil, errors.New("TRANSCRIBE_URL not set")
	}

	log := logger.Component("transcription").WithField("audio", filepath.Base(audioPath))

	mediaID, err := c.publish(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	log.WithField("media_id", mediaID).Info("audio published, polling for transcript")

	return c.poll(ctx, mediaID)
}

func (c *Client) publish(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	_ = w.WriteField("timestamps", "word")
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &b)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp publishResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.Code != 200 || resp.MediaID == "" {
		return "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	return resp.MediaID, nil
}

func (c *Client) poll(ctx context.Context, mediaID string) ([]types.Word, error) {
	u, err := url.Parse(c.baseURL + "/status")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("media_id", mediaID)
	u.RawQuery = q.Encode()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transcription timed out: %w", ctx.Err())
		case <-time.After(pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		var s statusResponse
		if err := c.doJSON(req, &s); err != nil {
			continue
		}

		switch s.Status {
		case "completed":
			return s.Words, nil
		case "failed":
			return nil, fmt.Errorf("transcription failed: %s", s.Reason)
		default:
			// queued or still processing
		}
	}
}

// doJSON runs the request with exponential backoff against transient server
// errors and decodes the body into target.
func (c *Client) doJSON(req *http.Request, target interface{}) error {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = 12 * time.Second
	bo := backoff.WithContext(eb, req.Context())

	var lastErr error
	op := func() error {
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return lastErr
	}
	return nil
}

func mockWords() []types.Word {
	text := []string{"this", "voice", "sounds", "synthetic", "to", "the", "trained", "ear"}
	words := make([]types.Word, len(text))
	for i, t := range text {
		words[i] = types.Word{
			Text:    t,
			Start:   float64(i) * 0.4,
			End:     float64(i)*0.4 + 0.35,
			Speaker: "SPEAKER_00",
		}
	}
	return words
}
