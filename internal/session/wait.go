package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// WaitForLogin polls the cookie source with exponential backoff until a token
// shows up or maxWait elapses. It is meant for flows where the login happens
// elsewhere, such as a browser writing the cookie store.
func WaitForLogin(ctx context.Context, t *Tracker, maxWait time.Duration) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	operation := func() (string, error) {
		if err := t.NotifyUserLogin(ctx); err != nil {
			return "", err
		}
		if token, ok := t.Session(); ok {
			return token, nil
		}
		return "", ErrNotLoggedIn
	}

	token, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(maxWait),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Dur("next_retry", next).Msg("waiting for login")
		}),
	)
	if err != nil {
		return "", fmt.Errorf("wait for login: %w", err)
	}

	return token, nil
}
