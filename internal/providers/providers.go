package providers

import (
	"context"
	"fmt"
	"log/slog"
)

// Config represents the configuration for a text generation request
type Config struct {
	Model        string
	Temperature  float64
	SystemPrompt string
	Prompt       string
}

// Provider defines the interface for a text generation provider
type Provider interface {
	GenerateText(ctx context.Context, config Config) (string, error)
}

// ImageConfig represents the configuration for an image generation request
type ImageConfig struct {
	Model      string
	Prompt     string
	NumOutputs int
	Width      int
	Height     int
}

// ImageProvider defines the interface for an image generation provider.
// GenerateImage returns the locators of the generated images in output order.
type ImageProvider interface {
	GenerateImage(ctx context.Context, config ImageConfig) ([]string, error)
}

// StatusError is returned when an upstream service answers with a non-success status.
// Body is kept for logs and is not part of the error message.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

// NewStatusError logs the upstream response body and returns a StatusError carrying it.
func NewStatusError(service string, statusCode int, body string) *StatusError {
	if body != "" {
		slog.Warn("Upstream error response", "service", service, "status", statusCode, "body", body)
	}
	return &StatusError{Service: service, StatusCode: statusCode, Body: body}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}
