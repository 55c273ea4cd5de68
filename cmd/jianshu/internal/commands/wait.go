package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/haikuowuya/jianshu/internal/session"
)

type WaitCmd struct {
	Timeout   time.Duration `help:"How long to wait for a login" default:"2m"`
	ShowToken bool          `help:"Print the full session token"`
}

func (w *WaitCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.tracker.IsUserLogin() {
		fmt.Fprintf(globals.out(), "Waiting up to %s for a login to %s...\n", w.Timeout, a.cfg.Domain)
	}

	token, err := session.WaitForLogin(ctx, a.tracker, w.Timeout)
	if err != nil {
		return err
	}

	if !w.ShowToken {
		token = mask(token)
	}
	fmt.Fprintf(globals.out(), "Logged in, token %s\n", token)
	return nil
}
