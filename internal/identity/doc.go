// Package identity implements the phone sign-in state machine against the
// remote identity service.
//
// A session moves through:
//
//	Unauthenticated -> OtpRequested -> Authenticated -> (Renewing <-> Authenticated)
//
// with a terminal Failed state reachable from anywhere. The flow has a
// deliberate suspension point: SignIn sends the one-time code and returns a
// Challenge; the caller supplies the code through Challenge.Resume. The
// package owns no terminal I/O.
//
// Two credentials are involved and must not be confused:
//   - the authorization token returned in the sign-in response headers,
//     valid only for the first-factor calls, and
//   - the bearer credential issued against the long-lived session
//     identifier, replaced on every Renew and required on all
//     generation-service calls.
//
// Renewal is pulled, not pushed: callers renew immediately before any
// privileged operation instead of running a background timer.
package identity
