package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/eddogola/comic-gen/internal/providers"
)

// MediaType is the media type stamped on every encoded panel image
const MediaType = "image/png"

// DefaultMaxBytes caps how much of a single image is buffered
const DefaultMaxBytes = 20 << 20

// ErrTooLarge is returned when an image exceeds the fetcher's size cap
var ErrTooLarge = errors.New("image exceeds size limit")

// Fetcher retrieves generated images from their locators
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher. Downloads are bounded by the
// caller's context rather than a client timeout.
func NewFetcher(maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		HTTPClient: &http.Client{},
		MaxBytes:   maxBytes,
	}
}

// FetchDataURI downloads the image at url and returns it as a base64 data URI.
// The body is encoded while it streams, so only the encoded form is held in memory.
func (f *Fetcher) FetchDataURI(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", providers.NewStatusError("image host", resp.StatusCode, "")
	}
	if resp.ContentLength > f.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	prefix := "data:" + MediaType + ";base64,"
	var sb strings.Builder
	if resp.ContentLength > 0 {
		sb.Grow(len(prefix) + base64.StdEncoding.EncodedLen(int(resp.ContentLength)))
	}
	sb.WriteString(prefix)

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	n, err := io.Copy(enc, io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	if n > f.MaxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.MaxBytes)
	}
	if n == 0 {
		return "", fmt.Errorf("image at %s is empty", url)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode image data: %w", err)
	}

	return sb.String(), nil
}

// EncodeDataURI encodes raw image bytes the same way FetchDataURI does.
func EncodeDataURI(data []byte) string {
	return "data:" + MediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its media type and payload.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data uri has no payload")
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data uri is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data uri: %w", err)
	}
	return mediaType, data, nil
}
