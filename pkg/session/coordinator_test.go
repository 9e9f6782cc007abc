package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

func readySession(model string) *types.ActiveSession {
	return &types.ActiveSession{
		Provider: types.ProviderTypeOpenAI,
		Model:    model,
		Auth:     types.BearerToken{Token: "sk"},
	}
}

func TestCoordinator_InitialState(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	assert.Equal(t, StateIdle, c.Status().State)
	assert.Nil(t, c.ActiveSession())
	assert.Empty(t, c.Token())
}

func TestCoordinator_SwitchCommit(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	token := c.BeginSwitch("cfg-1")
	assert.NotEmpty(t, token)
	status := c.Status()
	assert.Equal(t, StateSwitching, status.State)
	assert.Equal(t, "cfg-1", status.ConfigID)

	session := readySession("gpt-4o")
	assert.True(t, c.SetActiveSession(session, token))

	assert.Equal(t, StateReady, c.Status().State)
	assert.Same(t, session, c.ActiveSession())
}

func TestCoordinator_StaleCommitDropped(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	oldToken := c.BeginSwitch("cfg-1")
	newToken := c.BeginSwitch("cfg-2")

	stale := readySession("stale")
	fresh := readySession("fresh")

	assert.False(t, c.SetActiveSession(stale, oldToken))
	assert.Nil(t, c.ActiveSession())

	assert.True(t, c.SetActiveSession(fresh, newToken))
	assert.Same(t, fresh, c.ActiveSession())

	// A stale commit arriving after the fresh one must not clobber it.
	assert.False(t, c.SetActiveSession(stale, oldToken))
	assert.Same(t, fresh, c.ActiveSession())
}

func TestCoordinator_NilSessionClearsToIdle(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	token := c.BeginSwitch("cfg-1")
	require.True(t, c.SetActiveSession(readySession("m"), token))

	token = c.BeginSwitch("cfg-2")
	assert.True(t, c.SetActiveSession(nil, token))
	assert.Equal(t, StateIdle, c.Status().State)
	assert.Nil(t, c.ActiveSession())
}

func TestCoordinator_Fail(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	token := c.BeginSwitch("cfg-1")
	require.True(t, c.SetActiveSession(readySession("m"), token))

	token = c.BeginSwitch("cfg-2")
	switchErr := errors.New("profile not found")
	assert.True(t, c.Fail(switchErr, token))

	status := c.Status()
	assert.Equal(t, StateError, status.State)
	assert.ErrorIs(t, status.Err, switchErr)
	assert.Nil(t, c.ActiveSession(), "failed switch must not leave the previous session active")

	// Stale failure reports are dropped.
	fresh := c.BeginSwitch("cfg-3")
	assert.False(t, c.Fail(errors.New("late"), token))
	assert.Equal(t, StateSwitching, c.Status().State)
	require.True(t, c.SetActiveSession(readySession("m2"), fresh))
}

func TestCoordinator_LastSwitchWins(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	const switches = 25
	tokens := make([]types.SwitchToken, switches)
	sessions := make([]*types.ActiveSession, switches)
	for i := range tokens {
		sessions[i] = readySession(fmt.Sprintf("model-%d", i))
		tokens[i] = c.BeginSwitch(fmt.Sprintf("cfg-%d", i))
	}

	// Complete the switches concurrently in shuffled order.
	order := rand.Perm(switches)
	var wg sync.WaitGroup
	committed := make([]bool, switches)
	for _, i := range order {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			committed[i] = c.SetActiveSession(sessions[i], tokens[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < switches-1; i++ {
		assert.False(t, committed[i], "switch %d should have been invalidated", i)
	}
	assert.True(t, committed[switches-1])
	assert.Same(t, sessions[switches-1], c.ActiveSession())
}

func TestCoordinator_EnhancingTransitions(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	// No session yet: BeginEnhancing hands back nil and keeps idle.
	assert.Nil(t, c.BeginEnhancing())
	assert.Equal(t, StateIdle, c.Status().State)

	token := c.BeginSwitch("cfg-1")
	session := readySession("m")
	require.True(t, c.SetActiveSession(session, token))

	got := c.BeginEnhancing()
	assert.Same(t, session, got)
	assert.Equal(t, StateEnhancing, c.Status().State)

	c.EndEnhancing(nil)
	assert.Equal(t, StateReady, c.Status().State)

	c.BeginEnhancing()
	requestErr := errors.New("rate limit exceeded")
	c.EndEnhancing(requestErr)
	status := c.Status()
	assert.Equal(t, StateError, status.State)
	assert.ErrorIs(t, status.Err, requestErr)
	assert.Same(t, session, c.ActiveSession(), "a failed request keeps the session")
}

func TestCoordinator_SwitchDuringEnhancingTakesPrecedence(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{})

	token := c.BeginSwitch("cfg-1")
	require.True(t, c.SetActiveSession(readySession("m"), token))
	c.BeginEnhancing()

	c.BeginSwitch("cfg-2")
	c.EndEnhancing(nil)
	assert.Equal(t, StateSwitching, c.Status().State, "a finished request must not clobber an in-progress switch")
}

func TestCoordinator_ListenerNotifications(t *testing.T) {
	var mu sync.Mutex
	var states []State
	listener := func(s Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	}

	c := NewCoordinator(CoordinatorConfig{Listener: listener})

	token := c.BeginSwitch("cfg-1")
	c.SetActiveSession(readySession("m"), token)
	c.BeginEnhancing()
	c.EndEnhancing(nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateSwitching, StateReady, StateEnhancing, StateReady}, states)
}
