package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.vapi.ai"

// Client is a thin wrapper over the Vapi call API: start a call with the
// configured assistant, stop a running one. All streaming and telephony
// lives on Vapi's side.
type Client struct {
	apiKey      string
	assistantID string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(apiKey, assistantID string) *Client {
	return &Client{
		apiKey:      apiKey,
		assistantID: assistantID,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type startCallRequest struct {
	AssistantID string            `json:"assistantId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type startCallResponse struct {
	ID string `json:"id"`
}

// StartCall asks Vapi to begin an assistant call and returns the call id.
func (c *Client) StartCall(ctx context.Context, metadata map[string]string) (string, error) {
	body, err := json.Marshal(startCallRequest{
		AssistantID: c.assistantID,
		Metadata:    metadata,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, "POST", "/call", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("start call failed with status %d: %s", resp.StatusCode, msg)
	}

	var call startCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return "", err
	}
	return call.ID, nil
}

// StopCall ends a running call.
func (c *Client) StopCall(ctx context.Context, callID string) error {
	resp, err := c.do(ctx, "POST", "/call/"+callID+"/stop", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stop call failed with status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
