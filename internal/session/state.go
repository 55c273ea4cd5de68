package session

import (
	"net/http"

	"github.com/haikuowuya/jianshu/internal/cookies"
)

// TokenCookieName is the cookie whose presence marks a logged in user. Its
// value stays the same for a user across logins, unlike the session id.
const TokenCookieName = "remember_user_token"

// State is the authentication state of a Tracker.
type State int

const (
	StateLoggedOut State = iota
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Snapshot is the tracker state. Token and Cookies are only set when State is
// StateLoggedIn. Presence of the token cookie decides the state, so an empty
// token value is still LoggedIn.
type Snapshot struct {
	State   State
	Token   string
	Cookies []*http.Cookie
}

// LoggedIn reports whether the snapshot is StateLoggedIn.
func (s Snapshot) LoggedIn() bool {
	return s.State == StateLoggedIn
}

func loggedOut() Snapshot {
	return Snapshot{State: StateLoggedOut}
}

// Observation is one read of the cookie source.
type Observation struct {
	Raw     string
	Present bool
	Cookies []*http.Cookie
}

// Observe parses raw into an Observation. present false yields an empty one.
func Observe(p cookies.Parser, raw string, present bool, domain string) Observation {
	if !present {
		return Observation{}
	}
	return Observation{
		Raw:     raw,
		Present: true,
		Cookies: p.Parse(raw, domain),
	}
}

// Derive returns the state implied by obs alone.
func Derive(obs Observation) Snapshot {
	if !obs.Present {
		return loggedOut()
	}

	token, ok := cookies.Find(obs.Cookies, TokenCookieName)
	if !ok {
		return loggedOut()
	}

	return Snapshot{
		State:   StateLoggedIn,
		Token:   token,
		Cookies: obs.Cookies,
	}
}

// Decide computes the next state from the current one and a fresh observation.
// notify is false when the change must not reach listeners: LoggedOut to
// LoggedOut, and LoggedIn to LoggedIn from an unchanged cookie string. Any
// other outcome, including a LoggedIn with a new token, is a fresh transition.
func Decide(current Snapshot, lastRaw string, obs Observation) (next Snapshot, notify bool) {
	next = Derive(obs)

	switch {
	case !current.LoggedIn() && !next.LoggedIn():
		return current, false
	case current.LoggedIn() && next.LoggedIn() && obs.Raw == lastRaw:
		return next, false
	default:
		return next, true
	}
}

// DecideLogout handles an explicit logout hint.
func DecideLogout(current Snapshot) (next Snapshot, notify bool) {
	if !current.LoggedIn() {
		return current, false
	}
	return loggedOut(), true
}

// NeedsRevalidation reports whether a login hint must re-read the cookies.
// LoggedOut always revalidates. LoggedIn revalidates only when the cookie
// string changed, which covers another user logging in without a logout.
func NeedsRevalidation(current Snapshot, lastRaw, raw string, present bool) bool {
	if !current.LoggedIn() {
		return true
	}
	return !present || raw != lastRaw
}
