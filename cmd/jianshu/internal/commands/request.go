package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"

	"github.com/haikuowuya/jianshu/internal/client"
)

type GetCmd struct {
	URL     string `arg:"" help:"URL to fetch"`
	Script  bool   `help:"Send script Accept headers instead of document ones"`
	Include bool   `short:"i" help:"Print the status line and response headers"`
}

func (g *GetCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.tracker.GetSync(ctx, g.URL, profile(g.Script))
	if err != nil {
		return err
	}

	return printResponse(globals.out(), resp, g.Include)
}

type PostCmd struct {
	URL     string            `arg:"" help:"URL to post to"`
	Form    map[string]string `help:"Form fields (key=value)"`
	Script  bool              `help:"Send script Accept headers instead of document ones"`
	Include bool              `short:"i" help:"Print the status line and response headers"`
}

func (p *PostCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	var form url.Values
	if len(p.Form) > 0 {
		form = url.Values{}
		for k, v := range p.Form {
			form.Set(k, v)
		}
	}

	resp, err := a.tracker.PostSync(ctx, p.URL, profile(p.Script), form)
	if err != nil {
		return err
	}

	return printResponse(globals.out(), resp, p.Include)
}

func profile(script bool) client.Profile {
	if script {
		return client.ProfileScript
	}
	return client.ProfileDocument
}

func printResponse(w io.Writer, resp *client.Response, include bool) error {
	if include {
		fmt.Fprintf(w, "HTTP %d\n", resp.StatusCode)

		keys := make([]string, 0, len(resp.Header))
		for k := range resp.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range resp.Header[k] {
				fmt.Fprintf(w, "%s: %s\n", k, v)
			}
		}
		fmt.Fprintln(w)
	}

	_, err := w.Write(resp.Body)
	return err
}
