package comic

import (
	"context"
	"errors"

	"github.com/eddogola/comic-gen/internal/providers"
	"github.com/eddogola/comic-gen/internal/retry"
)

// Fetcher retrieves the image behind a locator as an embeddable data URI.
type Fetcher interface {
	FetchDataURI(ctx context.Context, url string) (string, error)
}

// Synthesizer renders one panel description into an encoded image.
type Synthesizer struct {
	images  providers.ImageProvider
	fetcher Fetcher
	model   string
	width   int
	height  int
	policy  retry.Policy
}

// NewSynthesizer returns a Synthesizer producing width x height images with model.
func NewSynthesizer(images providers.ImageProvider, fetcher Fetcher, model string, width, height int, policy retry.Policy) *Synthesizer {
	return &Synthesizer{
		images:  images,
		fetcher: fetcher,
		model:   model,
		width:   width,
		height:  height,
		policy:  policy,
	}
}

// Synthesize generates an image for description and returns it as a data URI.
func (s *Synthesizer) Synthesize(ctx context.Context, description string) (string, error) {
	locators, err := retry.Do(ctx, s.policy, "image", func(ctx context.Context) ([]string, error) {
		return s.images.GenerateImage(ctx, providers.ImageConfig{
			Model:      s.model,
			Prompt:     description,
			NumOutputs: 1,
			Width:      s.width,
			Height:     s.height,
		})
	})
	if err != nil {
		return "", newError(KindUpstreamImage, "image generation failed", err)
	}
	if len(locators) == 0 || locators[0] == "" {
		return "", newError(KindUpstreamImage, "image generation failed", errors.New("no image returned"))
	}

	image, err := retry.Do(ctx, s.policy, "fetch", func(ctx context.Context) (string, error) {
		return s.fetcher.FetchDataURI(ctx, locators[0])
	})
	if err != nil {
		return "", newError(KindRetrieval, "image retrieval failed", err)
	}
	return image, nil
}
