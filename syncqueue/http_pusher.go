package syncqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// SyncPath is the API route that accepts change batches
const SyncPath = "/api/v1/inventory/sync"

// TokenSource returns the bearer token for the next request
type TokenSource func(ctx context.Context) (string, error)

// HTTPPusher pushes batches to the field-service API
type HTTPPusher struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
}

// NewHTTPPusher creates a pusher for the API at baseURL
func NewHTTPPusher(baseURL string, token TokenSource) *HTTPPusher {
	return &HTTPPusher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type syncEnvelope struct {
	Success bool        `json:"success"`
	Data    BatchResult `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Push posts changes and returns the per-item results
func (p *HTTPPusher) Push(ctx context.Context, changes []Change) ([]ItemResult, error) {
	body, err := json.Marshal(Batch{Changes: changes})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+SyncPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if p.token != nil {
		token, err := p.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sync endpoint: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close response body: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope syncEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("sync endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		if envelope.Error != nil {
			return nil, fmt.Errorf("sync endpoint returned status %d: %s: %s", resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
		}
		return nil, fmt.Errorf("sync endpoint returned status %d", resp.StatusCode)
	}

	return envelope.Data.Results, nil
}
