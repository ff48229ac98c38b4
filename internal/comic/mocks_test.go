package comic

import (
	"context"
	"sync"
	"time"

	"github.com/eddogola/comic-gen/internal/config"
	"github.com/eddogola/comic-gen/internal/images"
	"github.com/eddogola/comic-gen/internal/providers"
)

// --- Mocks ---

type mockText struct {
	mu      sync.Mutex
	configs []providers.Config
	fn      func(ctx context.Context, cfg providers.Config) (string, error)
}

func (m *mockText) GenerateText(ctx context.Context, cfg providers.Config) (string, error) {
	m.mu.Lock()
	m.configs = append(m.configs, cfg)
	m.mu.Unlock()
	return m.fn(ctx, cfg)
}

func (m *mockText) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs)
}

type mockImages struct {
	mu      sync.Mutex
	configs []providers.ImageConfig
	fn      func(ctx context.Context, cfg providers.ImageConfig) ([]string, error)
}

func (m *mockImages) GenerateImage(ctx context.Context, cfg providers.ImageConfig) ([]string, error) {
	m.mu.Lock()
	m.configs = append(m.configs, cfg)
	m.mu.Unlock()
	return m.fn(ctx, cfg)
}

func (m *mockImages) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs)
}

type mockFetcher struct {
	mu   sync.Mutex
	urls []string
	fn   func(ctx context.Context, url string) (string, error)
}

func (m *mockFetcher) FetchDataURI(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()
	if m.fn == nil {
		return images.EncodeDataURI([]byte(url)), nil
	}
	return m.fn(ctx, url)
}

func (m *mockFetcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

// --- Helpers ---

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.ReplicateAPIToken = "r8-test"
	cfg.RetryInitialInterval = time.Millisecond
	return cfg
}

func textReturning(text string) *mockText {
	return &mockText{fn: func(context.Context, providers.Config) (string, error) {
		return text, nil
	}}
}

// imagesByPrompt answers every prompt with a locator derived from it.
func imagesByPrompt() *mockImages {
	return &mockImages{fn: func(_ context.Context, cfg providers.ImageConfig) ([]string, error) {
		return []string{"https://img.test/" + cfg.Prompt}, nil
	}}
}
