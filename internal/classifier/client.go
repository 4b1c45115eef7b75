package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"voicecheck-go/internal/logger"
)

// Client calls the AI-speech detector endpoint. Set USE_MOCK_DETECTOR=true
// for a deterministic offline score.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Probability float64 `json:"probability"`
	Model       string  `json:"model,omitempty"`
}

// Classify returns the probability in [0,1] that text is AI-generated.
func (c *Client) Classify(ctx context.Context, text string) (float64, error) {
	if os.Getenv("USE_MOCK_DETECTOR") == "true" {
		return 0.85, nil
	}
	if c.baseURL == "" {
		return 0, errors.New("DETECTOR_URL not set")
	}

	payload, _ := json.Marshal(scoreRequest{Text: text})

	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = 12 * time.Second
	bo := backoff.WithContext(eb, ctx)

	var out scoreResponse
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("detector server error: %s", string(body))
			return lastErr
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("detector rejected request: %d %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return 0, lastErr
	}

	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("detector returned probability out of range: %v", out.Probability)
	}

	logger.Component("classifier").
		WithField("chars", len(text)).
		WithField("probability", out.Probability).
		Debug("text classified")
	return out.Probability, nil
}
