package session

// State is the lifecycle position of the client session.
//
// Transitions: Uninitialized → Initializing → {Authenticated, Anonymous},
// then Authenticated ⇄ Anonymous via login/logout. A token swap keeps the
// session in Authenticated.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
