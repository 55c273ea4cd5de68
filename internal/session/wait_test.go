package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForLogin_AlreadyLoggedIn(t *testing.T) {
	f := newFixture(t, "remember_user_token=abc")

	token, err := WaitForLogin(context.Background(), f.tracker, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestWaitForLogin_CookieArrivesLater(t *testing.T) {
	f := newFixture(t, "")

	go func() {
		time.Sleep(300 * time.Millisecond)
		f.source.Set(DefaultDomain, "remember_user_token=late")
	}()

	token, err := WaitForLogin(context.Background(), f.tracker, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late", token)
	assert.Equal(t, []string{"login"}, f.events.get())
}

func TestWaitForLogin_GivesUp(t *testing.T) {
	f := newFixture(t, "")

	_, err := WaitForLogin(context.Background(), f.tracker, 200*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestWaitForLogin_ContextCancelled(t *testing.T) {
	f := newFixture(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := WaitForLogin(ctx, f.tracker, time.Minute)
	require.Error(t, err)
}
