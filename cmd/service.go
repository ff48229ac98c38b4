package cmd

import (
	"github.com/eddogola/comic-gen/internal/comic"
	"github.com/eddogola/comic-gen/internal/config"
	"github.com/eddogola/comic-gen/internal/gemini"
	"github.com/eddogola/comic-gen/internal/images"
	"github.com/eddogola/comic-gen/internal/ollama"
	"github.com/eddogola/comic-gen/internal/openai"
	"github.com/eddogola/comic-gen/internal/providers"
	"github.com/eddogola/comic-gen/internal/replicate"
)

// newComicService builds the orchestrator with the providers selected by cfg.
func newComicService(cfg *config.Config) *comic.Service {
	return comic.NewService(
		cfg,
		newTextProvider(cfg),
		replicate.New(cfg.ReplicateAPIToken, cfg.ReplicateBaseURL),
		images.NewFetcher(cfg.MaxImageBytes),
	)
}

func newTextProvider(cfg *config.Config) providers.Provider {
	switch cfg.TextProvider {
	case config.ProviderGemini:
		return gemini.New(cfg.GeminiAPIKey)
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL)
	default:
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	}
}
