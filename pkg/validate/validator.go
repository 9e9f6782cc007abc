package validate

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/bedrock"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/session"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	// DefaultTimeout bounds one validation run.
	DefaultTimeout = 5 * time.Second
	// DefaultSuccessFor is how long the transient success indicator
	// stays visible.
	DefaultSuccessFor = 2 * time.Second
)

// Config is the configuration under validation.
type Config interface {
	session.Config
	ID() string
	Signature() string
}

// Outcome reports one finished validation run.
type Outcome struct {
	ConfigID string
	Err      *ValidationError // nil on success
}

// OutcomeListener receives validation outcomes for UI binding.
type OutcomeListener func(Outcome)

// ValidatorConfig holds the dependencies and settings for a Validator.
type ValidatorConfig struct {
	// Coordinator receives the session switch when validation passes.
	// Required.
	Coordinator *session.Coordinator
	// Builder constructs the session under validation. Defaults to a
	// builder with the default credential resolver.
	Builder *session.Builder
	// Timeout bounds one validation run. Defaults to 5s.
	Timeout time.Duration
	// SuccessFor is the lifetime of the transient success indicator.
	// Defaults to 2s.
	SuccessFor time.Duration
	// Listener receives validation outcomes.
	Listener OutcomeListener
	// HTTPClient overrides the default probe HTTP client.
	HTTPClient *http.Client
	// Logger overrides the default logger.
	Logger *log.Logger

	// ChatBaseURL overrides the OpenAI-compatible probe endpoint.
	ChatBaseURL string
	// AnthropicBaseURL overrides the Anthropic probe endpoint.
	AnthropicBaseURL string
	// BedrockBaseURL overrides the Bedrock control-plane endpoint.
	BedrockBaseURL string
}

// Validator races configuration probes against a timeout and commits
// passing configurations as the active session. Stale results, where a
// newer validation superseded the one that produced them, are dropped.
type Validator struct {
	coordinator *session.Coordinator
	builder     *session.Builder
	timeout     time.Duration
	successFor  time.Duration
	client      *http.Client
	signer      *bedrock.Signer
	logger      *log.Logger

	chatBase      string
	anthropicBase string
	bedrockBase   string

	mu           sync.Mutex
	listener     OutcomeListener
	current      types.ValidationContext
	cancel       context.CancelFunc
	successShown bool
	indicatorSeq int
}

// NewValidator creates a validator bound to a session coordinator.
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.Builder == nil {
		cfg.Builder = session.NewBuilder(session.BuilderConfig{})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SuccessFor <= 0 {
		cfg.SuccessFor = DefaultSuccessFor
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Validator{
		coordinator:   cfg.Coordinator,
		builder:       cfg.Builder,
		timeout:       cfg.Timeout,
		successFor:    cfg.SuccessFor,
		listener:      cfg.Listener,
		client:        cfg.HTTPClient,
		signer:        bedrock.NewSigner(),
		logger:        cfg.Logger,
		chatBase:      cfg.ChatBaseURL,
		anthropicBase: cfg.AnthropicBaseURL,
		bedrockBase:   cfg.BedrockBaseURL,
	}
}

// SetListener replaces the outcome listener.
func (v *Validator) SetListener(fn OutcomeListener) {
	v.mu.Lock()
	v.listener = fn
	v.mu.Unlock()
}

// SwitchToConfiguration validates cfg in the background and, when the
// probe passes and no newer validation has superseded it, commits cfg
// as the active session. Calling it again cancels the in-flight
// validation and starts fresh.
func (v *Validator) SwitchToConfiguration(cfg Config) {
	captured := types.ValidationContext{
		ConfigID:  cfg.ID(),
		Signature: cfg.Signature(),
		Token:     types.NewSwitchToken(),
	}
	ctx, cancel := context.WithCancel(context.Background())

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.current = captured
	v.cancel = cancel
	v.successShown = false
	v.indicatorSeq++
	v.mu.Unlock()

	v.logger.Printf("[validate] validating configuration %q", captured.ConfigID)
	go v.run(ctx, cancel, cfg, captured)
}

// CancelValidation cancels the in-flight validation, if any. The
// cancelled run stops contributing state even if its HTTP call has
// already started.
func (v *Validator) CancelValidation() {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.current = types.ValidationContext{}
	v.mu.Unlock()
}

// Validating reports whether a validation run is in flight.
func (v *Validator) Validating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil
}

// SuccessVisible reports whether the transient success indicator is
// showing. It self-clears after the configured duration unless a new
// validation supersedes it sooner.
func (v *Validator) SuccessVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.successShown
}

// ValidateOnce runs one blocking validation without committing the
// configuration. It returns nil when the probe passes, a
// *ValidationError when it fails, and ctx.Err() when cancelled.
func (v *Validator) ValidateOnce(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	_, verr, dropped := v.race(ctx, cfg)
	if dropped {
		return ctx.Err()
	}
	if verr != nil {
		return verr
	}
	return nil
}

type raceResult struct {
	active *types.ActiveSession
	verr   *ValidationError
}

// race runs build+probe against the timeout. dropped is true when ctx
// was cancelled before either finished.
func (v *Validator) race(ctx context.Context, cfg Config) (*types.ActiveSession, *ValidationError, bool) {
	resultCh := make(chan raceResult, 1)
	go func() {
		active, verr := v.buildAndProbe(ctx, cfg)
		resultCh <- raceResult{active: active, verr: verr}
	}()

	timer := time.NewTimer(v.timeout)
	defer timer.Stop()

	select {
	case r := <-resultCh:
		return r.active, r.verr, false
	case <-timer.C:
		return nil, newTimeoutError(cfg.Provider(), v.timeout), false
	case <-ctx.Done():
		return nil, nil, true
	}
}

func (v *Validator) buildAndProbe(ctx context.Context, cfg Config) (*types.ActiveSession, *ValidationError) {
	active, err := v.builder.Build(ctx, cfg)
	if err != nil {
		return nil, newInvalidCredentialsError(cfg.Provider(), err.Error())
	}
	if active == nil {
		return nil, newInvalidCredentialsError(cfg.Provider(), "configuration has no usable credentials")
	}
	if verr := v.probe(ctx, active); verr != nil {
		return nil, verr
	}
	return active, nil
}

func (v *Validator) run(ctx context.Context, cancel context.CancelFunc, cfg Config, captured types.ValidationContext) {
	defer cancel()

	active, verr, dropped := v.race(ctx, cfg)
	if dropped {
		return
	}

	v.mu.Lock()
	if !v.current.Matches(captured) {
		v.mu.Unlock()
		return // superseded while the probe ran
	}
	v.cancel = nil
	listener := v.listener
	var seq int
	if verr == nil {
		v.successShown = true
		v.indicatorSeq++
		seq = v.indicatorSeq
	}
	v.mu.Unlock()

	if verr == nil {
		v.logger.Printf("[validate] configuration %q passed", captured.ConfigID)
		time.AfterFunc(v.successFor, func() {
			v.mu.Lock()
			if v.indicatorSeq == seq {
				v.successShown = false
			}
			v.mu.Unlock()
		})

		token := v.coordinator.BeginSwitch(captured.ConfigID)
		v.coordinator.SetActiveSession(active, token)
	} else {
		v.logger.Printf("[validate] configuration %q failed: %v", captured.ConfigID, verr)
	}

	if listener != nil {
		listener(Outcome{ConfigID: captured.ConfigID, Err: verr})
	}
}
