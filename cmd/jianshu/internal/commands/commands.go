package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haikuowuya/jianshu/internal/client"
	"github.com/haikuowuya/jianshu/internal/config"
	"github.com/haikuowuya/jianshu/internal/cookies"
	"github.com/haikuowuya/jianshu/internal/session"
	"github.com/haikuowuya/jianshu/internal/telemetry"
)

type Globals struct {
	Debug     bool
	Version   string
	Config    string
	EnvFile   string
	CookieDir string
	Redis     string

	// Out receives command output, os.Stdout when nil.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// cookieWriter is the writable side of a cookie source.
type cookieWriter interface {
	cookies.Source
	Put(ctx context.Context, domain, raw string) error
	Remove(ctx context.Context, domain string) error
}

type fileWriter struct{ *cookies.Store }

func (f fileWriter) Put(ctx context.Context, domain, raw string) error {
	return f.Store.Set(domain, raw)
}

func (f fileWriter) Remove(ctx context.Context, domain string) error {
	return f.Store.Delete(domain)
}

type redisWriter struct{ *cookies.RedisSource }

func (r redisWriter) Put(ctx context.Context, domain, raw string) error {
	return r.RedisSource.Set(ctx, domain, raw, 0)
}

func (r redisWriter) Remove(ctx context.Context, domain string) error {
	return r.RedisSource.Delete(ctx, domain)
}

// app is everything a command needs, built from Globals.
type app struct {
	cfg     config.Config
	cookies cookieWriter
	tracker *session.Tracker
	close   func()
}

func loadConfig(g *Globals) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{File: g.Config, EnvFile: g.EnvFile})
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if g.CookieDir != "" {
		cfg.CookieDir = g.CookieDir
	}
	if g.Redis != "" {
		cfg.RedisAddr = g.Redis
	}

	return cfg, nil
}

func openCookies(ctx context.Context, cfg config.Config) (cookieWriter, func(), error) {
	if cfg.RedisAddr != "" {
		src, err := cookies.NewRedisSource(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return redisWriter{src}, func() { _ = src.Close() }, nil
	}

	store, err := cookies.NewStore(cfg.CookieDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize cookie store: %w", err)
	}
	return fileWriter{store}, func() {}, nil
}

func newApp(ctx context.Context, g *Globals) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	shutdown := telemetry.ShutdownFunc(func(context.Context) error { return nil })
	if cfg.Telemetry {
		shutdown, err = telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "jianshu-cli",
			Version:     g.Version,
			SampleRatio: cfg.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("telemetry disabled")
			shutdown = func(context.Context) error { return nil }
		}
	}

	src, closeSrc, err := openCookies(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	closeAll := func() {
		closeSrc()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}

	document, err := client.New(client.ProfileDocument, cfg.ClientConfig())
	if err != nil {
		closeAll()
		return nil, err
	}
	script, err := client.New(client.ProfileScript, cfg.ClientConfig())
	if err != nil {
		closeAll()
		return nil, err
	}

	tracker, err := session.New(ctx, session.Options{
		Domain:    cfg.Domain,
		CookieURL: cfg.CookieURL(),
		Source:    src,
		Document:  document,
		Script:    script,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	tracker.AddListener(&session.ListenerFuncs{
		Login:  func(ctx context.Context) { log.Debug().Str("domain", cfg.Domain).Msg("logged in") },
		Logout: func(ctx context.Context) { log.Debug().Str("domain", cfg.Domain).Msg("logged out") },
	})

	return &app{
		cfg:     cfg,
		cookies: src,
		tracker: tracker,
		close:   closeAll,
	}, nil
}

// printStatus writes the login state of t.
func printStatus(w io.Writer, t *session.Tracker, showToken bool) {
	s := t.Snapshot()

	fmt.Fprintf(w, "Domain:  %s\n", t.Domain())
	fmt.Fprintf(w, "State:   %s\n", s.State)

	if !s.LoggedIn() {
		return
	}

	token := s.Token
	if !showToken {
		token = mask(token)
	}
	fmt.Fprintf(w, "Token:   %s\n", token)
	fmt.Fprintf(w, "Cookies: %d\n", len(s.Cookies))
}

// mask keeps the first four characters of a token.
func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "..."
}

func isNotFound(err error) bool {
	return errors.Is(err, cookies.ErrCookieNotFound)
}
