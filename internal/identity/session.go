package identity

// State describes where a session is in its authentication lifecycle.
type State int

const (
	// Unauthenticated is the initial state before sign-in.
	Unauthenticated State = iota

	// OtpRequested means the one-time code has been sent to the phone and
	// the flow is suspended until the code is supplied.
	OtpRequested

	// Authenticated means a session identifier is established and a bearer
	// credential is held.
	Authenticated

	// Renewing means a credential renewal is in flight.
	Renewing

	// Failed is terminal; the account is unusable for the rest of the run.
	Failed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case OtpRequested:
		return "otp_requested"
	case Authenticated:
		return "authenticated"
	case Renewing:
		return "renewing"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session holds one account's credential state. A Session is owned
// exclusively by its pool entry and must not be shared across accounts.
//
// The session identifier, once established, never changes for the lifetime
// of the process. The bearer credential is replaced on each renewal and is
// cleared on a failed renewal so it can never be used afterwards.
type Session struct {
	phone string

	state         State
	attemptID     string
	phoneNumberID string

	// authzToken is the short-lived authorization token returned in the
	// sign-in response headers. It is only valid for the first-factor
	// calls and is distinct from the bearer credential.
	authzToken string

	sessionID string
	bearer    string
}

// Phone returns the account identifier.
func (s *Session) Phone() string { return s.phone }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// SessionID returns the long-lived session identifier, or "" before the
// session is established.
func (s *Session) SessionID() string { return s.sessionID }

// Bearer returns the current short-lived bearer credential.
func (s *Session) Bearer() string { return s.bearer }

// Usable reports whether the session can still serve authorized calls.
func (s *Session) Usable() bool {
	return s.state == Authenticated
}
