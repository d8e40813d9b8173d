package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PostHogTracker sends events to a PostHog-compatible capture endpoint.
type PostHogTracker struct {
	apiKey     string
	captureURL string
	httpClient *http.Client
}

func NewPostHogTracker(apiKey, host string) *PostHogTracker {
	return &PostHogTracker{
		apiKey:     apiKey,
		captureURL: host + "/capture/",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (t *PostHogTracker) Capture(ctx context.Context, userID, event string, properties map[string]interface{}) error {
	payload := map[string]interface{}{
		"api_key":     t.apiKey,
		"event":       event,
		"distinct_id": userID,
		"properties":  properties,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.captureURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("capture rejected with status %d", resp.StatusCode)
	}
	return nil
}
