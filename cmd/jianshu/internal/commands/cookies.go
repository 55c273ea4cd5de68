package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/haikuowuya/jianshu/internal/cookies"
)

type CookiesCmd struct {
	List   CookiesListCmd   `cmd:"" help:"List domains with stored cookies (file store only)"`
	Show   CookiesShowCmd   `cmd:"" help:"Show the cookies stored for a domain"`
	Set    CookiesSetCmd    `cmd:"" help:"Store a cookie string for a domain"`
	Delete CookiesDeleteCmd `cmd:"" help:"Delete the cookies stored for a domain"`
}

// openWriter opens the configured cookie source without starting a tracker.
func openWriter(ctx context.Context, globals *Globals) (cookieWriter, string, func(), error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, "", nil, err
	}

	w, closeFn, err := openCookies(ctx, cfg)
	if err != nil {
		return nil, "", nil, err
	}
	return w, cfg.Domain, closeFn, nil
}

type CookiesListCmd struct{}

func (c *CookiesListCmd) Run(ctx context.Context, globals *Globals) error {
	w, _, closeFn, err := openWriter(ctx, globals)
	if err != nil {
		return err
	}
	defer closeFn()

	store, ok := w.(fileWriter)
	if !ok {
		return errors.New("listing is only supported by the file cookie store")
	}

	entries, err := store.List()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(globals.out(), "No cookies stored.")
		return nil
	}

	tw := tabwriter.NewWriter(globals.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tCOOKIES\tUPDATED")
	for _, e := range entries {
		n := len(cookies.WebViewParser{}.Parse(e.Raw, e.Domain))
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Domain, n, e.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

type CookiesShowCmd struct {
	Domain string `arg:"" optional:"" help:"Cookie domain (default: configured domain)"`
	Raw    bool   `help:"Print the stored string as is"`
}

func (c *CookiesShowCmd) Run(ctx context.Context, globals *Globals) error {
	w, domain, closeFn, err := openWriter(ctx, globals)
	if err != nil {
		return err
	}
	defer closeFn()

	if c.Domain != "" {
		domain = c.Domain
	}

	raw, ok, err := w.Cookie(ctx, domain)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", domain, cookies.ErrCookieNotFound)
	}

	if c.Raw {
		fmt.Fprintln(globals.out(), raw)
		return nil
	}

	tw := tabwriter.NewWriter(globals.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE")
	for _, ck := range (cookies.WebViewParser{}).Parse(raw, domain) {
		fmt.Fprintf(tw, "%s\t%s\n", ck.Name, ck.Value)
	}
	return tw.Flush()
}

type CookiesSetCmd struct {
	Cookie string `arg:"" help:"Cookie string"`
	Domain string `help:"Cookie domain (default: configured domain)"`
}

func (c *CookiesSetCmd) Run(ctx context.Context, globals *Globals) error {
	w, domain, closeFn, err := openWriter(ctx, globals)
	if err != nil {
		return err
	}
	defer closeFn()

	if c.Domain != "" {
		domain = c.Domain
	}

	if err := w.Put(ctx, domain, c.Cookie); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Stored cookies for %s\n", domain)
	return nil
}

type CookiesDeleteCmd struct {
	Domain string `arg:"" optional:"" help:"Cookie domain (default: configured domain)"`
}

func (c *CookiesDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	w, domain, closeFn, err := openWriter(ctx, globals)
	if err != nil {
		return err
	}
	defer closeFn()

	if c.Domain != "" {
		domain = c.Domain
	}

	if err := w.Remove(ctx, domain); err != nil {
		return fmt.Errorf("%s: %w", domain, err)
	}

	fmt.Fprintf(globals.out(), "Deleted cookies for %s\n", domain)
	return nil
}
