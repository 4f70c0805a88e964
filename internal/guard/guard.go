// Package guard decides whether a protected surface may render for the
// current session. The decision is a pure function of the session snapshot;
// the same semantics back the HTTP middleware protecting the API.
package guard

import (
	"github.com/aoinoikaz/TruthCapture/internal/session"
)

// Decision is the outcome of evaluating a session snapshot against a
// protected route.
type Decision int

const (
	// DecisionLoading means the initial session resolution is still in
	// flight. Render a placeholder; never redirect on loading.
	DecisionLoading Decision = iota
	// DecisionRedirect means no session exists; go to the auth entry point.
	DecisionRedirect
	// DecisionUnverified means a session exists but the email is not
	// verified; show the remediation view instead of the protected content.
	DecisionUnverified
	// DecisionAllow means the protected content may render.
	DecisionAllow
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionUnverified:
		return "unverified"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// RedirectPath is where DecisionRedirect points.
const RedirectPath = session.PathAuth

// Decide evaluates the session snapshot. Order matters: loading wins over
// everything so a slow resolution never bounces a signed-in user to the
// auth page.
func Decide(snap session.Snapshot) Decision {
	if snap.Loading {
		return DecisionLoading
	}
	if snap.Identity == nil {
		return DecisionRedirect
	}
	if !snap.Identity.EmailVerified {
		return DecisionUnverified
	}
	return DecisionAllow
}
