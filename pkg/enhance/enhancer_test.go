package enhance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/internal/testutil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/session"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

func newReadyCoordinator(active *types.ActiveSession) *session.Coordinator {
	c := session.NewCoordinator(session.CoordinatorConfig{})
	token := c.BeginSwitch("test")
	c.SetActiveSession(active, token)
	return c
}

func registryWith(provider types.ProviderType, d providers.Dispatcher) *providers.Registry {
	r := providers.NewRegistry()
	r.Register(provider, d)
	return r
}

func TestEnhancer_Enhance_Success(t *testing.T) {
	active := testSession()
	dispatcher := testutil.NewScriptedDispatcher(testutil.DispatchOutcome{Text: "Hello"})

	e := NewEnhancer(EnhancerConfig{
		Coordinator: newReadyCoordinator(active),
		Registry:    registryWith(active.Provider, dispatcher),
		Prompts:     StaticPrompt("casual", "Rewrite casually."),
	})

	result, err := e.Enhance(context.Background(), "hi there")
	require.NoError(t, err)

	assert.Equal(t, "Hello", result.Text)
	assert.Equal(t, "casual", result.PromptName)
	assert.Greater(t, result.Elapsed, time.Duration(0))

	system, user, got := dispatcher.LastCall()
	assert.Equal(t, "Rewrite casually.", system)
	assert.Equal(t, "hi there", user)
	assert.Same(t, active, got)
}

func TestEnhancer_Enhance_NoActiveSession(t *testing.T) {
	dispatcher := testutil.NewScriptedDispatcher(testutil.DispatchOutcome{Text: "never"})

	e := NewEnhancer(EnhancerConfig{
		Coordinator: session.NewCoordinator(session.CoordinatorConfig{}),
		Registry:    registryWith(types.ProviderTypeOpenAI, dispatcher),
	})

	_, err := e.Enhance(context.Background(), "hi")

	var enhErr *types.EnhanceError
	require.ErrorAs(t, err, &enhErr)
	assert.Equal(t, types.ErrCodeNotConfigured, enhErr.Code)
	assert.Zero(t, dispatcher.Calls())
}

func TestEnhancer_Enhance_UnregisteredProvider(t *testing.T) {
	active := testSession()

	e := NewEnhancer(EnhancerConfig{
		Coordinator: newReadyCoordinator(active),
		Registry:    providers.NewRegistry(),
	})

	_, err := e.Enhance(context.Background(), "hi")

	var enhErr *types.EnhanceError
	require.ErrorAs(t, err, &enhErr)
	assert.Equal(t, types.ErrCodeNotConfigured, enhErr.Code)
}

func TestEnhancer_Enhance_DefaultPrompt(t *testing.T) {
	active := testSession()
	dispatcher := testutil.NewScriptedDispatcher(testutil.DispatchOutcome{Text: "ok"})

	e := NewEnhancer(EnhancerConfig{
		Coordinator: newReadyCoordinator(active),
		Registry:    registryWith(active.Provider, dispatcher),
	})

	result, err := e.Enhance(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, DefaultPromptName, result.PromptName)

	system, _, _ := dispatcher.LastCall()
	assert.Equal(t, DefaultSystemPrompt, system)
}

func TestEnhancer_Enhance_RetriesRateLimitsThenSucceeds(t *testing.T) {
	active := testSession()
	dispatcher := testutil.FailThenSucceed(3, types.NewRateLimitError(active.Provider), "made it")

	e := NewEnhancer(EnhancerConfig{
		Coordinator: newReadyCoordinator(active),
		Registry:    registryWith(active.Provider, dispatcher),
		Controller: NewController(ControllerConfig{
			Interval: time.Millisecond,
			Backoff: httputil.BackoffConfig{
				BaseDelay:  10 * time.Millisecond,
				MaxDelay:   time.Second,
				MaxRetries: 3,
			},
		}),
	})

	result, err := e.Enhance(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "made it", result.Text)
	assert.Equal(t, 4, dispatcher.Calls())
	// Backoff floor: 10ms + 20ms + 40ms between the four attempts.
	assert.GreaterOrEqual(t, result.Elapsed, 70*time.Millisecond)
}

func TestEnhancer_Enhance_InvalidKeyFailsWithoutRetry(t *testing.T) {
	active := testSession()
	keyErr := types.NewAPIKeyInvalidError(active.Provider, 401)
	dispatcher := testutil.NewScriptedDispatcher(testutil.DispatchOutcome{Err: keyErr})

	coordinator := newReadyCoordinator(active)
	e := NewEnhancer(EnhancerConfig{
		Coordinator: coordinator,
		Registry:    registryWith(active.Provider, dispatcher),
	})

	_, err := e.Enhance(context.Background(), "hi")

	assert.ErrorIs(t, err, keyErr)
	assert.Equal(t, 1, dispatcher.Calls())

	status := coordinator.Status()
	assert.Equal(t, session.StateError, status.State)
	assert.ErrorIs(t, status.Err, keyErr)
}

func TestEnhancer_Enhance_ReportsEnhancingState(t *testing.T) {
	active := testSession()
	dispatcher := testutil.NewScriptedDispatcher(testutil.DispatchOutcome{Text: "ok"})

	var mu sync.Mutex
	var states []session.State
	coordinator := session.NewCoordinator(session.CoordinatorConfig{
		Listener: func(s session.Status) {
			mu.Lock()
			states = append(states, s.State)
			mu.Unlock()
		},
	})
	token := coordinator.BeginSwitch("test")
	coordinator.SetActiveSession(active, token)

	e := NewEnhancer(EnhancerConfig{
		Coordinator: coordinator,
		Registry:    registryWith(active.Provider, dispatcher),
	})

	_, err := e.Enhance(context.Background(), "hi")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []session.State{
		session.StateSwitching,
		session.StateReady,
		session.StateEnhancing,
		session.StateReady,
	}, states)
}
