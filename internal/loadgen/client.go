package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/internal/domain/report"
)

// Client talks to the riskpoll HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// Health calls /healthz and returns the reported backend.
func (c *Client) Health(ctx context.Context) (string, error) {
	var h healthResponse
	if err := c.getJSON(ctx, "/healthz", &h); err != nil {
		return "", err
	}
	if h.Status != "ok" {
		return "", fmt.Errorf("unexpected health status %q", h.Status)
	}
	return h.Backend, nil
}

// Report fetches /admin/report.json.
func (c *Client) Report(ctx context.Context) (report.Report, error) {
	var r report.Report
	err := c.getJSON(ctx, "/admin/report.json", &r)
	return r, err
}

// Submit POSTs one submission to /api/submit.
func (c *Client) Submit(ctx context.Context, s model.Submission) error {
	body, err := json.Marshal(toPayload(s))
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var msg struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&msg)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit: status %d: %s", resp.StatusCode, msg.Message)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
