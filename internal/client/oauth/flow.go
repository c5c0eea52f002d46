package oauth

import (
	"fmt"
	"time"
)

// Transition records one state change of a Flow.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Flow is one run of the state machine. A Flow returned by the Controller
// is finished and safe to read from any goroutine.
type Flow struct {
	Provider string
	// AuthURL is set once Begin obtained the provider's authorization URL.
	AuthURL string

	state   State
	history []Transition
	err     error
	message string

	now func() time.Time
}

func newFlow(provider string, now func() time.Time) *Flow {
	return &Flow{Provider: provider, state: Idle, now: now}
}

func (f *Flow) State() State { return f.state }

// History returns every transition in order.
func (f *Flow) History() []Transition {
	out := make([]Transition, len(f.history))
	copy(out, f.history)
	return out
}

// Err is the classified failure of a Failed flow.
func (f *Flow) Err() error { return f.err }

// Message is the user-facing text for a Failed flow.
func (f *Flow) Message() string { return f.message }

func (f *Flow) to(next State) {
	if !canTransition(f.state, next) {
		panic(fmt.Sprintf("oauth: illegal transition %s -> %s", f.state, next))
	}
	f.history = append(f.history, Transition{From: f.state, To: next, At: f.now()})
	f.state = next
}

func (f *Flow) fail(err error, message string) {
	f.to(Failed)
	f.err = err
	f.message = message
}
