package comic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/eddogola/comic-gen/internal/providers"
	"github.com/eddogola/comic-gen/internal/retry"
)

// SystemPrompt instructs the text model how to split a story into panels.
const SystemPrompt = `You are a comic strip writer. Create 4 sequential panel descriptions that tell a coherent story based on the user's prompt. Each description should be brief but vivid.
Write each description on its own line. Give only the descriptions, no other text.`

// enumeration matches list markers models like to prepend: "1.", "2)", "- ", "**Panel 3:**".
var enumeration = regexp.MustCompile(`^(?i)[-*•#\s]*(?:panel\s*\d+\s*[:.)-]?|\d{1,2}[.):](?:\s|$))?[*\s]*`)

// Decomposer turns a story prompt into ordered panel descriptions.
type Decomposer struct {
	provider    providers.Provider
	model       string
	temperature float64
	maxPanels   int
	policy      retry.Policy
}

// NewDecomposer returns a Decomposer that keeps at most maxPanels descriptions.
func NewDecomposer(provider providers.Provider, model string, temperature float64, maxPanels int, policy retry.Policy) *Decomposer {
	return &Decomposer{
		provider:    provider,
		model:       model,
		temperature: temperature,
		maxPanels:   maxPanels,
		policy:      policy,
	}
}

// Decompose asks the text provider for panel descriptions continuing prompt.
// Fewer lines than maxPanels yields fewer descriptions; empty content yields none.
func (d *Decomposer) Decompose(ctx context.Context, prompt string) ([]string, error) {
	text, err := retry.Do(ctx, d.policy, "text", func(ctx context.Context) (string, error) {
		return d.provider.GenerateText(ctx, providers.Config{
			Model:        d.model,
			Temperature:  d.temperature,
			SystemPrompt: SystemPrompt,
			Prompt:       UserPrompt(prompt),
		})
	})
	if err != nil {
		return nil, newError(KindUpstreamText, "text generation failed", err)
	}

	return ParseDescriptions(text, d.maxPanels), nil
}

// UserPrompt wraps the story prompt in the request sent to the text model.
func UserPrompt(prompt string) string {
	return fmt.Sprintf("Create 4 sequential comic panel descriptions for this story: %s", prompt)
}

// ParseDescriptions splits text into lines, drops blank lines and list markers,
// and keeps the first max descriptions in their original order.
func ParseDescriptions(text string, max int) []string {
	descriptions := make([]string, 0, max)
	for _, line := range strings.Split(text, "\n") {
		if len(descriptions) == max {
			break
		}
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(enumeration.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		descriptions = append(descriptions, line)
	}
	return descriptions
}
