package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/haikuowuya/jianshu/internal/client"
	"github.com/haikuowuya/jianshu/internal/cookies"
	"github.com/haikuowuya/jianshu/internal/telemetry"
)

// DefaultDomain is the domain whose cookies decide the login state.
const DefaultDomain = "jianshu.io"

var (
	// ErrNilSource is returned by New without a cookie source.
	ErrNilSource = errors.New("cookie source is required")

	// ErrNilClient is returned by New without both profile clients.
	ErrNilClient = errors.New("document and script clients are required")

	// ErrNotLoggedIn is returned by WaitForLogin while no token is present.
	ErrNotLoggedIn = errors.New("not logged in")
)

// HTTPClient is a blocking HTTP client with a replaceable cookie store.
// *client.Client implements it.
type HTTPClient interface {
	GetSync(ctx context.Context, rawURL string) (*client.Response, error)
	PostSync(ctx context.Context, rawURL string, form url.Values) (*client.Response, error)
	SetCookieStore(u *url.URL, cookies []*http.Cookie) error
	ClearCookieStore() error
	ResetCache() error
}

var _ HTTPClient = (*client.Client)(nil)

// Options configure a Tracker.
type Options struct {
	// Domain defaults to DefaultDomain.
	Domain string

	// CookieURL scopes the cookie store of the clients, https://<Domain>/ by default.
	CookieURL *url.URL

	Source cookies.Source

	// Parser defaults to cookies.WebViewParser.
	Parser cookies.Parser

	Document HTTPClient
	Script   HTTPClient

	Listeners []Listener
}

// Tracker follows the login state of a user through the cookies stored for a
// domain. It is safe for concurrent use.
type Tracker struct {
	domain    string
	cookieURL *url.URL
	source    cookies.Source
	parser    cookies.Parser
	document  HTTPClient
	script    HTTPClient
	metrics   *telemetry.Metrics

	listeners listeners

	// mu guards the fields below and the cookie stores of both clients.
	mu      sync.Mutex
	turn    *sync.Cond
	current Snapshot
	lastRaw string

	// nextTicket numbers notices; serving is the one allowed to be delivered.
	nextTicket uint64
	serving    uint64
	abandoned  map[uint64]struct{}
}

// New creates a tracker and validates the current cookies once.
func New(ctx context.Context, opts Options) (*Tracker, error) {
	if opts.Source == nil {
		return nil, ErrNilSource
	}
	if opts.Document == nil || opts.Script == nil {
		return nil, ErrNilClient
	}

	domain := opts.Domain
	if domain == "" {
		domain = DefaultDomain
	}

	cookieURL := opts.CookieURL
	if cookieURL == nil {
		cookieURL = &url.URL{Scheme: "https", Host: domain, Path: "/"}
	}

	parser := opts.Parser
	if parser == nil {
		parser = cookies.WebViewParser{}
	}

	t := &Tracker{
		domain:    domain,
		cookieURL: cookieURL,
		source:    opts.Source,
		parser:    parser,
		document:  opts.Document,
		script:    opts.Script,
		metrics:   telemetry.GetMetrics(),
		current:   loggedOut(),
		abandoned: make(map[uint64]struct{}),
	}
	t.turn = sync.NewCond(&t.mu)

	for _, l := range opts.Listeners {
		t.listeners.add(l)
	}

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	return t, nil
}

// Domain returns the tracked cookie domain.
func (t *Tracker) Domain() string {
	return t.domain
}

// Validate re-derives the state from the cookies currently stored for the
// domain. Missing cookies are LoggedOut, not an error; only a failing source
// returns one, leaving the state untouched.
func (t *Tracker) Validate(ctx context.Context) error {
	ctx, span := telemetry.Tracer().Start(ctx, "session.Validate")
	defer span.End()

	t.mu.Lock()

	raw, ok, err := t.read(ctx)
	if err != nil {
		t.mu.Unlock()
		span.RecordError(err)
		return err
	}

	n, notify := t.observeLocked(ctx, raw, ok)
	t.deliverLocked(ctx, n, notify)

	return nil
}

// NotifyUserLogin hints that a login just happened. When logged out it always
// validates. When logged in it validates only if the cookie string changed,
// which is how a different user logging in without a logout is detected.
func (t *Tracker) NotifyUserLogin(ctx context.Context) error {
	ctx, span := telemetry.Tracer().Start(ctx, "session.NotifyUserLogin")
	defer span.End()

	t.mu.Lock()

	raw, ok, err := t.read(ctx)
	if err != nil {
		t.mu.Unlock()
		span.RecordError(err)
		return err
	}

	if !NeedsRevalidation(t.current, t.lastRaw, raw, ok) {
		t.mu.Unlock()
		span.SetAttributes(attribute.Bool("session.revalidated", false))
		log.Debug().Str("domain", t.domain).Msg("login hint ignored, cookies unchanged")
		return nil
	}

	span.SetAttributes(attribute.Bool("session.revalidated", true))
	n, notify := t.observeLocked(ctx, raw, ok)
	t.deliverLocked(ctx, n, notify)

	return nil
}

// NotifyUserLogout hints that a logout happened. A logged in tracker moves to
// LoggedOut without reading cookies; a logged out one ignores it.
func (t *Tracker) NotifyUserLogout(ctx context.Context) {
	ctx, span := telemetry.Tracer().Start(ctx, "session.NotifyUserLogout")
	defer span.End()

	t.mu.Lock()

	next, notify := DecideLogout(t.current)
	n, notify := t.applyLocked(ctx, next, notify)
	t.deliverLocked(ctx, n, notify)
}

// IsUserLogin reports whether the user is logged in.
func (t *Tracker) IsUserLogin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.current.LoggedIn()
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.current.State
}

// Session returns the session token while logged in.
func (t *Tracker) Session() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.current.LoggedIn() {
		return "", false
	}
	return t.current.Token, true
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.current
	if s.Cookies != nil {
		s.Cookies = append([]*http.Cookie(nil), s.Cookies...)
	}
	return s
}

// GetSync issues a GET through the client for kind. It works in both states;
// the login state only decides whether session cookies are attached.
func (t *Tracker) GetSync(ctx context.Context, rawURL string, kind client.Profile) (*client.Response, error) {
	return t.clientFor(kind).GetSync(ctx, rawURL)
}

// PostSync issues a POST through the client for kind.
func (t *Tracker) PostSync(ctx context.Context, rawURL string, kind client.Profile, form url.Values) (*client.Response, error) {
	return t.clientFor(kind).PostSync(ctx, rawURL, form)
}

// AddListener registers l. Adding the same listener twice has no effect.
func (t *Tracker) AddListener(l Listener) {
	t.listeners.add(l)
}

// RemoveListener unregisters l.
func (t *Tracker) RemoveListener(l Listener) {
	t.listeners.remove(l)
}

func (t *Tracker) clientFor(kind client.Profile) HTTPClient {
	t.mu.Lock()
	defer t.mu.Unlock()

	if kind == client.ProfileScript {
		return t.script
	}
	return t.document
}

func (t *Tracker) read(ctx context.Context) (string, bool, error) {
	t.metrics.SessionValidationsTotal.Add(ctx, 1)

	raw, ok, err := t.source.Cookie(ctx, t.domain)
	if err != nil {
		log.Warn().Err(err).Str("domain", t.domain).Msg("failed to read cookies")
		return "", false, fmt.Errorf("failed to read cookies for %s: %w", t.domain, err)
	}
	return raw, ok, nil
}

// observeLocked applies one cookie observation. t.mu must be held.
func (t *Tracker) observeLocked(ctx context.Context, raw string, present bool) (notice, bool) {
	obs := Observe(t.parser, raw, present, t.domain)
	next, notify := Decide(t.current, t.lastRaw, obs)
	t.lastRaw = obs.Raw
	return t.applyLocked(ctx, next, notify)
}

// applyLocked installs next and, when listeners must hear about it, returns
// the notice to deliver. t.mu must be held.
func (t *Tracker) applyLocked(ctx context.Context, next Snapshot, notify bool) (notice, bool) {
	prev := t.current
	t.current = next

	if !notify {
		t.metrics.SessionSuppressedTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("state", next.State.String())))
		log.Debug().Str("state", next.State.String()).Msg("session unchanged")
		return notice{}, false
	}

	t.configureClientsLocked(next)

	t.metrics.SessionTransitionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", next.State.String())))
	trace.SpanFromContext(ctx).AddEvent("session.transition",
		trace.WithAttributes(
			attribute.String("from", prev.State.String()),
			attribute.String("to", next.State.String()),
		))

	log.Info().
		Str("domain", t.domain).
		Str("from", prev.State.String()).
		Str("to", next.State.String()).
		Int("cookies", len(next.Cookies)).
		Msg("session transition")

	n := notice{ticket: t.nextTicket, state: next.State}
	t.nextTicket++
	return n, true
}

// configureClientsLocked swaps the cookie stores and drops cached responses,
// which were fetched with the previous cookies.
func (t *Tracker) configureClientsLocked(s Snapshot) {
	for _, c := range []HTTPClient{t.document, t.script} {
		var err error
		if s.LoggedIn() {
			err = c.SetCookieStore(t.cookieURL, s.Cookies)
		} else {
			err = c.ClearCookieStore()
		}
		if err != nil {
			log.Error().Err(err).Str("domain", t.domain).Msg("failed to configure cookie store")
		}

		if err := c.ResetCache(); err != nil {
			log.Error().Err(err).Str("domain", t.domain).Msg("failed to reset response cache")
		}
	}
}

// deliverLocked releases t.mu after n, when notify is set, has reached every
// listener on the calling goroutine. Notices are delivered in ticket order,
// so a caller waits for earlier transitions to be delivered first. A call made
// from inside a callback, recognised by the ctx it carries, hands its notice
// to the goroutine running that callback instead of waiting on itself.
func (t *Tracker) deliverLocked(ctx context.Context, n notice, notify bool) {
	if !notify {
		t.mu.Unlock()
		return
	}

	if d, _ := ctx.Value(dispatchKey{t}).(*dispatch); d != nil && !d.done {
		d.owed = append(d.owed, n)
		t.mu.Unlock()
		return
	}

	d := &dispatch{}
	dctx := context.WithValue(ctx, dispatchKey{t}, d)
	queue := []notice{n}

	defer func() {
		if r := recover(); r != nil {
			t.mu.Lock()
			d.done = true
			for _, rest := range append(queue[1:], d.owed...) {
				t.abandoned[rest.ticket] = struct{}{}
			}
			t.advanceLocked()
			t.mu.Unlock()
			panic(r)
		}
	}()

	for len(queue) > 0 {
		for t.serving != queue[0].ticket {
			t.turn.Wait()
		}

		t.mu.Unlock()
		t.notify(dctx, queue[0].state)
		t.mu.Lock()

		queue = append(queue[1:], d.owed...)
		d.owed = nil
		t.advanceLocked()
	}

	d.done = true
	t.mu.Unlock()
}

// advanceLocked passes the turn to the next ticket, skipping tickets whose
// owner panicked. t.mu must be held.
func (t *Tracker) advanceLocked() {
	t.serving++
	for {
		if _, ok := t.abandoned[t.serving]; !ok {
			break
		}
		delete(t.abandoned, t.serving)
		t.serving++
	}
	t.turn.Broadcast()
}

func (t *Tracker) notify(ctx context.Context, s State) {
	ls := t.listeners.snapshot()
	if len(ls) == 0 {
		return
	}

	for _, l := range ls {
		if s == StateLoggedIn {
			l.OnLogin(ctx)
		} else {
			l.OnLogout(ctx)
		}
	}

	t.metrics.ListenerDispatchTotal.Add(ctx, int64(len(ls)),
		metric.WithAttributes(attribute.String("state", s.String())))
}
