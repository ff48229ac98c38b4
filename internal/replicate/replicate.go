package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eddogola/comic-gen/internal/providers"
)

// DefaultBaseURL is the Replicate HTTP API root
const DefaultBaseURL = "https://api.replicate.com"

// cancelTimeout bounds the best-effort cancel request sent after the caller gives up.
const cancelTimeout = 5 * time.Second

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
)

// Replicate is an image provider backed by Replicate model predictions
type Replicate struct {
	APIToken     string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
}

// New returns a new Replicate provider
func New(apiToken, baseURL string) *Replicate {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Replicate{
		APIToken:     apiToken,
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		HTTPClient:   &http.Client{},
		PollInterval: time.Second,
	}
}

// prediction is the subset of the Replicate prediction object we use
type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// GenerateImage creates a prediction for the configured model and waits until it settles.
// The returned locators keep the order of the prediction output.
func (r *Replicate) GenerateImage(ctx context.Context, config providers.ImageConfig) ([]string, error) {
	if r.APIToken == "" {
		return nil, fmt.Errorf("REPLICATE_API_TOKEN not set")
	}
	if !strings.Contains(config.Model, "/") {
		return nil, fmt.Errorf("invalid model %q, expected owner/name", config.Model)
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"input": map[string]interface{}{
			"prompt":      config.Prompt,
			"num_outputs": config.NumOutputs,
			"width":       config.Width,
			"height":      config.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", r.BaseURL, config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	pred, err := r.do(req)
	if err != nil {
		return nil, err
	}

	for !settled(pred.Status) {
		if pred.URLs.Get == "" {
			return nil, fmt.Errorf("prediction %s is %s and has no polling url", pred.ID, pred.Status)
		}
		slog.Debug("Waiting for prediction", "id", pred.ID, "status", pred.Status)

		select {
		case <-ctx.Done():
			r.cancel(ctx, pred)
			return nil, ctx.Err()
		case <-time.After(r.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pred.URLs.Get, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create poll request: %w", err)
		}
		next, err := r.do(req)
		if err != nil {
			if ctx.Err() != nil {
				r.cancel(ctx, pred)
			}
			return nil, err
		}
		pred = next
	}

	if pred.Status != statusSucceeded {
		return nil, fmt.Errorf("prediction %s %s: %s", pred.ID, pred.Status, strings.Trim(string(pred.Error), `"`))
	}

	return parseOutput(pred.Output)
}

// cancel asks Replicate to stop a prediction nobody is waiting for anymore.
// Failures are logged and otherwise ignored.
func (r *Replicate) cancel(ctx context.Context, pred *prediction) {
	if pred.URLs.Cancel == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pred.URLs.Cancel, nil)
	if err != nil {
		slog.Warn("Failed to build prediction cancel request", "id", pred.ID, "err", err)
		return
	}
	if _, err := r.do(req); err != nil {
		slog.Warn("Failed to cancel prediction", "id", pred.ID, "err", err)
		return
	}
	slog.Debug("Canceled prediction", "id", pred.ID)
}

func (r *Replicate) do(req *http.Request) (*prediction, error) {
	req.Header.Set("Authorization", "Bearer "+r.APIToken)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, providers.NewStatusError("replicate", resp.StatusCode, string(body))
	}

	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return &pred, nil
}

func settled(status string) bool {
	return status == statusSucceeded || status == statusFailed || status == statusCanceled
}

// parseOutput accepts a list of locators. Any other shape is an upstream error.
func parseOutput(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	return nil, fmt.Errorf("prediction output is not a list: %s", truncate(string(raw), 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
