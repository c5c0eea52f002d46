package oauth

// State is a step of the OAuth flow state machine.
type State int

const (
	Idle State = iota
	Initiated
	AwaitingCallback
	Exchanging
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initiated:
		return "initiated"
	case AwaitingCallback:
		return "awaiting_callback"
	case Exchanging:
		return "exchanging"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Authenticated || s == Failed
}

// A callback landing enters at AwaitingCallback directly: the provider is
// carried by the redirect URL, not by a previous Flow.
var transitions = map[State][]State{
	Idle:             {Initiated, AwaitingCallback},
	Initiated:        {AwaitingCallback, Failed},
	AwaitingCallback: {Exchanging, Failed},
	Exchanging:       {Authenticated, Failed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
