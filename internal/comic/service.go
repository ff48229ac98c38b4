package comic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eddogola/comic-gen/internal/config"
	"github.com/eddogola/comic-gen/internal/models"
	"github.com/eddogola/comic-gen/internal/providers"
	"github.com/eddogola/comic-gen/internal/retry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MaxPromptLength is the longest story prompt accepted, in characters.
const MaxPromptLength = 2000

// State names a stage of a generation request. Used in logs.
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateDecomposing  State = "decomposing"
	StateSynthesizing State = "synthesizing"
	StateAssembling   State = "assembling"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Hooks observe progress of a generation. PanelReady may be called concurrently.
type Hooks struct {
	Decomposed func(count int)
	PanelReady func(panelNumber int)
}

// Service orchestrates a comic generation: decompose the prompt, render every
// panel concurrently, and assemble the result. It holds no per-request state.
type Service struct {
	decomposer     *Decomposer
	synthesizer    *Synthesizer
	configErr      error
	requestTimeout time.Duration
	panelTimeout   time.Duration

	Hooks Hooks
}

// NewService wires a Service from cfg. The config is validated once here; an
// invalid config makes every Generate call fail before any network call.
func NewService(cfg *config.Config, text providers.Provider, images providers.ImageProvider, fetcher Fetcher) *Service {
	policy := retry.Policy{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		CallTimeout:     cfg.CallTimeout,
	}
	return &Service{
		decomposer:     NewDecomposer(text, cfg.TextModel(), cfg.Temperature, cfg.MaxPanels, policy),
		synthesizer:    NewSynthesizer(images, fetcher, cfg.ImageModel, cfg.ImageWidth, cfg.ImageHeight, policy),
		configErr:      cfg.Validate(),
		requestTimeout: cfg.RequestTimeout,
		panelTimeout:   cfg.PanelTimeout,
	}
}

// Generate turns prompt into a comic. Either every panel is rendered or an
// *Error is returned; partial comics are never produced.
func (s *Service) Generate(ctx context.Context, prompt string) (*models.Comic, error) {
	started := time.Now()
	logger := slog.With("request_id", RequestIDFromContext(ctx))

	state := StateIdle
	enter := func(next State) {
		logger.Debug("Comic generation state", "from", state, "to", next)
		state = next
	}
	fail := func(err error) (*models.Comic, error) {
		logger.Error("Comic generation failed", "state", state, "kind", KindOf(err), "err", err)
		enter(StateFailed)
		return nil, err
	}

	enter(StateValidating)
	if s.configErr != nil {
		return fail(newError(KindConfiguration, "API tokens not configured", s.configErr))
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fail(newError(KindInvalidInput, "prompt is required", nil))
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return fail(newError(KindInvalidInput, fmt.Sprintf("prompt exceeds %d characters", MaxPromptLength), nil))
	}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	enter(StateDecomposing)
	logger.Info("Received prompt", "prompt", prompt)
	descriptions, err := s.decomposer.Decompose(ctx, prompt)
	if err != nil {
		return fail(err)
	}
	logger.Info("Panel descriptions generated", "count", len(descriptions))
	if s.Hooks.Decomposed != nil {
		s.Hooks.Decomposed(len(descriptions))
	}

	enter(StateSynthesizing)
	images, err := s.synthesizeAll(ctx, logger, descriptions)
	if err != nil {
		return fail(err)
	}

	enter(StateAssembling)
	comic, err := Assemble(descriptions, images)
	if err != nil {
		return fail(err)
	}

	enter(StateSucceeded)
	logger.Info("Comic generated", "panels", len(comic.Panels), "duration", time.Since(started).Round(time.Millisecond))
	return comic, nil
}

// synthesizeAll renders one image per description concurrently. Each pipeline
// writes only its own slot. The first failure cancels the remaining pipelines.
func (s *Service) synthesizeAll(ctx context.Context, logger *slog.Logger, descriptions []string) ([]string, error) {
	images := make([]string, len(descriptions))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, description := range descriptions {
		eg.Go(func() error {
			panelCtx := egCtx
			if s.panelTimeout > 0 {
				var cancel context.CancelFunc
				panelCtx, cancel = context.WithTimeout(egCtx, s.panelTimeout)
				defer cancel()
			}

			start := time.Now()
			image, err := s.synthesizer.Synthesize(panelCtx, description)
			if err != nil {
				return &Error{Kind: KindOf(err), Msg: fmt.Sprintf("panel %d", i+1), Err: err}
			}

			logger.Info("Panel rendered", "panel", i+1, "duration", time.Since(start).Round(time.Millisecond))
			images[i] = image
			if s.Hooks.PanelReady != nil {
				s.Hooks.PanelReady(i + 1)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id used to correlate log lines.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id on ctx, or a fresh one.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
