package enhance

import (
	"context"
	"log"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/session"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// DefaultTimeout bounds one dispatch attempt.
const DefaultTimeout = 30 * time.Second

// DefaultPromptName names the built-in cleanup prompt.
const DefaultPromptName = "default"

// DefaultSystemPrompt is the built-in dictation cleanup prompt used
// when no prompt source is configured.
const DefaultSystemPrompt = "You clean up dictated text. Fix punctuation, capitalization, " +
	"and obvious transcription mistakes. Keep the speaker's wording and meaning. " +
	"Return only the corrected text."

// PromptSource supplies the system prompt for enhancement requests.
type PromptSource interface {
	ActivePrompt() (name, system string)
}

type staticPrompt struct {
	name   string
	system string
}

func (p staticPrompt) ActivePrompt() (string, string) { return p.name, p.system }

// StaticPrompt returns a PromptSource that always yields one prompt.
func StaticPrompt(name, system string) PromptSource {
	return staticPrompt{name: name, system: system}
}

// Result is one successful enhancement.
type Result struct {
	Text       string
	Elapsed    time.Duration
	PromptName string
}

// EnhancerConfig holds the dependencies and settings for an Enhancer.
type EnhancerConfig struct {
	// Coordinator owns the active session. Required.
	Coordinator *session.Coordinator
	// Registry maps provider types to dispatchers. Defaults to the
	// built-in registry.
	Registry *providers.Registry
	// Prompts supplies the system prompt. Defaults to the built-in
	// cleanup prompt.
	Prompts PromptSource
	// Controller overrides the pacing and retry policy.
	Controller *Controller
	// Timeout bounds each dispatch attempt. Defaults to 30s.
	Timeout time.Duration
	// Logger overrides the default logger.
	Logger *log.Logger
}

// Enhancer is the outbound surface: it takes raw transcribed text and
// returns the enhanced text produced by the current session's provider.
type Enhancer struct {
	coordinator *session.Coordinator
	registry    *providers.Registry
	prompts     PromptSource
	controller  *Controller
	timeout     time.Duration
	logger      *log.Logger
}

// NewEnhancer creates an enhancer bound to a session coordinator.
func NewEnhancer(cfg EnhancerConfig) *Enhancer {
	if cfg.Registry == nil {
		cfg.Registry = providers.NewDefaultRegistry()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = StaticPrompt(DefaultPromptName, DefaultSystemPrompt)
	}
	if cfg.Controller == nil {
		cfg.Controller = NewController(ControllerConfig{Logger: cfg.Logger})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Enhancer{
		coordinator: cfg.Coordinator,
		registry:    cfg.Registry,
		prompts:     cfg.Prompts,
		controller:  cfg.Controller,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// Enhance sends text through the current session's provider and
// returns the enhanced result. The coordinator reports the enhancing
// state for the duration of the request.
func (e *Enhancer) Enhance(ctx context.Context, text string) (Result, error) {
	active := e.coordinator.BeginEnhancing()
	if active == nil {
		return Result{}, types.NewEnhanceError("", types.ErrCodeNotConfigured, "no active session")
	}

	dispatcher, err := e.registry.For(active.Provider)
	if err != nil {
		e.coordinator.EndEnhancing(err)
		return Result{}, err
	}

	name, system := e.prompts.ActivePrompt()

	start := time.Now()
	enhanced, err := e.controller.Dispatch(ctx, dispatcher, system, text, active, e.timeout)
	e.coordinator.EndEnhancing(err)
	if err != nil {
		return Result{}, err
	}

	elapsed := time.Since(start)
	e.logger.Printf("[enhance] %s/%s finished in %v (prompt %q)", active.Provider, active.Model, elapsed, name)
	return Result{
		Text:       enhanced,
		Elapsed:    elapsed,
		PromptName: name,
	}, nil
}
