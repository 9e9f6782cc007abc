package session

import (
	"log"
	"sync"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// State names the coordinator's lifecycle phase, exposed for UI binding.
type State string

const (
	StateIdle      State = "idle"
	StateSwitching State = "switching"
	StateReady     State = "ready"
	StateEnhancing State = "enhancing"
	StateError     State = "error"
)

// Status is a point-in-time snapshot of the coordinator.
type Status struct {
	State    State
	ConfigID string // config under switch, while switching
	Err      error  // terminal error, in the error state
}

// Listener receives a status snapshot after every state change.
type Listener func(Status)

// Coordinator owns the current ActiveSession and the live switch token.
// A pending asynchronous session build commits its result only while
// the token it captured still equals the live token, so the most
// recently initiated switch always wins regardless of completion order.
type Coordinator struct {
	mu       sync.Mutex
	session  *types.ActiveSession
	token    types.SwitchToken
	state    State
	configID string
	err      error
	listener Listener
	logger   *log.Logger
}

// CoordinatorConfig holds the optional settings for a Coordinator.
type CoordinatorConfig struct {
	// Listener receives status snapshots. May also be set later with
	// SetListener.
	Listener Listener
	// Logger overrides the default logger.
	Logger *log.Logger
}

// NewCoordinator creates an idle coordinator with no active session.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Coordinator{
		state:    StateIdle,
		listener: cfg.Listener,
		logger:   cfg.Logger,
	}
}

// SetListener replaces the status listener.
func (c *Coordinator) SetListener(fn Listener) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// BeginSwitch mints a new switch token, invalidating every pending
// switch, and moves the coordinator to the switching state.
func (c *Coordinator) BeginSwitch(configID string) types.SwitchToken {
	c.mu.Lock()
	token := types.NewSwitchToken()
	c.token = token
	c.state = StateSwitching
	c.configID = configID
	c.err = nil
	c.logger.Printf("[session] switching to config %q", configID)
	notify, status := c.listener, c.statusLocked()
	c.mu.Unlock()

	if notify != nil {
		notify(status)
	}
	return token
}

// SetActiveSession commits a switch result. The commit is dropped
// unless token still equals the live token. A nil session clears the
// active session and returns the coordinator to idle. Reports whether
// the commit was applied.
func (c *Coordinator) SetActiveSession(session *types.ActiveSession, token types.SwitchToken) bool {
	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		return false
	}
	c.session = session
	c.configID = ""
	c.err = nil
	if session == nil {
		c.state = StateIdle
	} else {
		c.state = StateReady
		c.logger.Printf("[session] active session is now %s/%s", session.Provider, session.Model)
	}
	notify, status := c.listener, c.statusLocked()
	c.mu.Unlock()

	if notify != nil {
		notify(status)
	}
	return true
}

// Fail records a failed switch. The active session is cleared so a
// broken configuration cannot keep serving requests built for the
// previous one. Dropped unless token still equals the live token.
func (c *Coordinator) Fail(err error, token types.SwitchToken) bool {
	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		return false
	}
	c.session = nil
	c.configID = ""
	c.state = StateError
	c.err = err
	c.logger.Printf("[session] switch failed: %v", err)
	notify, status := c.listener, c.statusLocked()
	c.mu.Unlock()

	if notify != nil {
		notify(status)
	}
	return true
}

// ActiveSession returns the current session, or nil when none is set.
func (c *Coordinator) ActiveSession() *types.ActiveSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Token returns the live switch token.
func (c *Coordinator) Token() types.SwitchToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Status returns a snapshot of the coordinator state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// BeginEnhancing marks a request in flight on the current session and
// returns that session. The enhancing state is entered only from ready;
// a switch in progress leaves the state untouched.
func (c *Coordinator) BeginEnhancing() *types.ActiveSession {
	c.mu.Lock()
	session := c.session
	var notify Listener
	var status Status
	if c.state == StateReady {
		c.state = StateEnhancing
		notify, status = c.listener, c.statusLocked()
	}
	c.mu.Unlock()

	if notify != nil {
		notify(status)
	}
	return session
}

// EndEnhancing leaves the enhancing state, moving to error when the
// request failed and back to ready otherwise. A switch begun while the
// request was in flight takes precedence and is left untouched.
func (c *Coordinator) EndEnhancing(err error) {
	c.mu.Lock()
	var notify Listener
	var status Status
	if c.state == StateEnhancing {
		if err != nil {
			c.state = StateError
			c.err = err
		} else {
			c.state = StateReady
		}
		notify, status = c.listener, c.statusLocked()
	}
	c.mu.Unlock()

	if notify != nil {
		notify(status)
	}
}

func (c *Coordinator) statusLocked() Status {
	return Status{
		State:    c.state,
		ConfigID: c.configID,
		Err:      c.err,
	}
}
