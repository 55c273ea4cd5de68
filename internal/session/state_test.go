package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haikuowuya/jianshu/internal/cookies"
)

func observe(raw string) Observation {
	return Observe(cookies.WebViewParser{}, raw, true, "jianshu.io")
}

func loggedInAs(token string) Snapshot {
	return Derive(observe(TokenCookieName + "=" + token))
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		obs      Observation
		loggedIn bool
		token    string
	}{
		{"absent", Observation{}, false, ""},
		{"empty string", observe(""), false, ""},
		{"other cookie", observe("other_cookie=xyz"), false, ""},
		{"token with attribute", observe("remember_user_token=abc123; path=/"), true, "abc123"},
		{"token among others", observe("_session_id=s1; remember_user_token=tok; read_mode=day"), true, "tok"},
		{"name is case sensitive", observe("REMEMBER_USER_TOKEN=abc"), false, ""},
		{"prefix does not match", observe("remember_user_token_v2=abc"), false, ""},
		{"empty token value", observe("remember_user_token="), true, ""},
		{"token without equals sign", observe("a=1; remember_user_token"), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Derive(tt.obs)
			assert.Equal(t, tt.loggedIn, s.LoggedIn())
			assert.Equal(t, tt.token, s.Token)
			if !tt.loggedIn {
				assert.Nil(t, s.Cookies)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	const rawA = "remember_user_token=A; _session_id=1"
	const rawA2 = "remember_user_token=A; _session_id=2"
	const rawB = "remember_user_token=B; _session_id=3"

	tests := []struct {
		name     string
		current  Snapshot
		lastRaw  string
		obs      Observation
		want     State
		token    string
		notifies bool
	}{
		{"out to out is suppressed", loggedOut(), "", Observation{}, StateLoggedOut, "", false},
		{"out to out without token is suppressed", loggedOut(), "", observe("a=1"), StateLoggedOut, "", false},
		{"out to in notifies", loggedOut(), "", observe(rawA), StateLoggedIn, "A", true},
		{"in to out notifies", loggedInAs("A"), rawA, Observation{}, StateLoggedOut, "", true},
		{"in to in unchanged is suppressed", loggedInAs("A"), rawA, observe(rawA), StateLoggedIn, "A", false},
		{"in to in with new token notifies", loggedInAs("A"), rawA, observe(rawB), StateLoggedIn, "B", true},
		{"in to in with new session id notifies", loggedInAs("A"), rawA, observe(rawA2), StateLoggedIn, "A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, notify := Decide(tt.current, tt.lastRaw, tt.obs)
			assert.Equal(t, tt.want, next.State)
			assert.Equal(t, tt.token, next.Token)
			assert.Equal(t, tt.notifies, notify)
		})
	}
}

func TestDecideLogout(t *testing.T) {
	next, notify := DecideLogout(loggedOut())
	assert.False(t, notify)
	assert.Equal(t, StateLoggedOut, next.State)

	next, notify = DecideLogout(loggedInAs("A"))
	assert.True(t, notify)
	assert.Equal(t, StateLoggedOut, next.State)
	assert.Empty(t, next.Token)
	assert.Nil(t, next.Cookies)
}

func TestNeedsRevalidation(t *testing.T) {
	assert.True(t, NeedsRevalidation(loggedOut(), "", "", false))
	assert.True(t, NeedsRevalidation(loggedOut(), "x=1", "x=1", true))

	in := loggedInAs("A")
	assert.False(t, NeedsRevalidation(in, "remember_user_token=A", "remember_user_token=A", true))
	assert.True(t, NeedsRevalidation(in, "remember_user_token=A", "remember_user_token=B", true))
	assert.True(t, NeedsRevalidation(in, "remember_user_token=A", "", false))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "logged_out", StateLoggedOut.String())
	assert.Equal(t, "logged_in", StateLoggedIn.String())
	assert.Equal(t, "unknown", State(7).String())
}
