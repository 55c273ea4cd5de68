package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/haikuowuya/jianshu/internal/session"
)

type LoginCmd struct {
	Cookie    string `help:"Cookie string copied from the browser, - reads stdin" required:""`
	ShowToken bool   `help:"Print the full session token"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	raw, err := l.cookieString(os.Stdin)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cookies.Put(ctx, a.cfg.Domain, raw); err != nil {
		return fmt.Errorf("failed to store cookies: %w", err)
	}

	if err := a.tracker.NotifyUserLogin(ctx); err != nil {
		return err
	}

	if !a.tracker.IsUserLogin() {
		return fmt.Errorf("cookie string has no %s cookie", session.TokenCookieName)
	}

	fmt.Fprintf(globals.out(), "Logged in to %s\n\n", a.cfg.Domain)
	printStatus(globals.out(), a.tracker, l.ShowToken)
	return nil
}

func (l *LoginCmd) cookieString(stdin io.Reader) (string, error) {
	raw := l.Cookie
	if raw == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read cookies from stdin: %w", err)
		}
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("cookie string is empty")
	}
	return raw, nil
}
