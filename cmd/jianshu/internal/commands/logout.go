package commands

import (
	"context"
	"fmt"
)

type LogoutCmd struct {
	KeepCookies bool `help:"Keep the stored cookie string"`
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	a.tracker.NotifyUserLogout(ctx)

	if !l.KeepCookies {
		if err := a.cookies.Remove(ctx, a.cfg.Domain); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete cookies: %w", err)
		}
	}

	fmt.Fprintf(globals.out(), "Logged out of %s\n", a.cfg.Domain)
	return nil
}
