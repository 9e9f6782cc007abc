// Package testutil provides shared testing utilities and mocks for the
// enhancement engine test suite.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// DispatchOutcome scripts the result of one PerformRequest call.
type DispatchOutcome struct {
	Text string
	Err  error
}

// ScriptedDispatcher replays a fixed sequence of outcomes and records
// every call. Once the script is exhausted the last outcome repeats.
type ScriptedDispatcher struct {
	mu       sync.Mutex
	outcomes []DispatchOutcome
	times    []time.Time
	sessions []*types.ActiveSession
	systems  []string
	users    []string
}

// NewScriptedDispatcher creates a dispatcher that replays outcomes in
// order.
func NewScriptedDispatcher(outcomes ...DispatchOutcome) *ScriptedDispatcher {
	return &ScriptedDispatcher{outcomes: outcomes}
}

// FailThenSucceed scripts n copies of err followed by a success with
// the given text.
func FailThenSucceed(n int, err error, text string) *ScriptedDispatcher {
	outcomes := make([]DispatchOutcome, 0, n+1)
	for i := 0; i < n; i++ {
		outcomes = append(outcomes, DispatchOutcome{Err: err})
	}
	outcomes = append(outcomes, DispatchOutcome{Text: text})
	return NewScriptedDispatcher(outcomes...)
}

// PerformRequest records the call and returns the next scripted
// outcome.
func (d *ScriptedDispatcher) PerformRequest(ctx context.Context, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := len(d.times)
	d.times = append(d.times, time.Now())
	d.systems = append(d.systems, system)
	d.users = append(d.users, user)
	d.sessions = append(d.sessions, session)

	if len(d.outcomes) == 0 {
		return "", nil
	}
	if idx >= len(d.outcomes) {
		idx = len(d.outcomes) - 1
	}
	out := d.outcomes[idx]
	return out.Text, out.Err
}

// Calls returns how many times PerformRequest was invoked.
func (d *ScriptedDispatcher) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.times)
}

// CallTimes returns the start time of every recorded call.
func (d *ScriptedDispatcher) CallTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	times := make([]time.Time, len(d.times))
	copy(times, d.times)
	return times
}

// LastCall returns the system, user, and session of the most recent
// call, or zero values when none was made.
func (d *ScriptedDispatcher) LastCall() (system, user string, session *types.ActiveSession) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.times) == 0 {
		return "", "", nil
	}
	last := len(d.times) - 1
	return d.systems[last], d.users[last], d.sessions[last]
}
