package testleaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	service "github.com/okian/dodgy/internal/app"
	"github.com/okian/dodgy/internal/domain/model"
)

// RemoteAnalyzer scores leaderboards through a running dodgy server.
type RemoteAnalyzer struct {
	client  *http.Client
	baseURL string
}

// NewRemoteAnalyzer creates a client for the server at baseURL.
func NewRemoteAnalyzer(baseURL string, timeout time.Duration) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// CheckHealth calls GET /healthz.
func (c *RemoteAnalyzer) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Analyze posts raws to POST /score. The server caps ?top=, so topN <= 0 is
// sent as the highest rank present.
func (c *RemoteAnalyzer) Analyze(ctx context.Context, raws []model.RawEffort, topN int) (*service.Report, error) {
	if topN <= 0 {
		for _, r := range raws {
			if r.Rank > topN {
				topN = r.Rank
			}
		}
	}
	payload, err := json.Marshal(model.Leaderboard{EffortCount: len(raws), EntryCount: len(raws), Entries: raws})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.baseURL + "/score"
	if topN > 0 {
		url += "?top=" + strconv.Itoa(topN)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score returned %d: %s", resp.StatusCode, body)
	}

	var report service.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
