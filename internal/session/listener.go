package session

import (
	"context"
	"sync"
)

// Listener is notified synchronously, in registration order, on every state
// transition that is not suppressed.
//
// Callbacks run on the goroutine whose call caused the transition, outside
// the tracker lock, and that call returns only after they did. They may read
// tracker state. A callback that triggers another transition must pass the
// ctx it was given, or the call blocks on its own delivery; that transition
// is delivered once the current callbacks return.
type Listener interface {
	OnLogin(ctx context.Context)
	OnLogout(ctx context.Context)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
// Register a pointer so the same value can be passed to RemoveListener.
type ListenerFuncs struct {
	Login  func(ctx context.Context)
	Logout func(ctx context.Context)
}

var _ Listener = (*ListenerFuncs)(nil)

func (l *ListenerFuncs) OnLogin(ctx context.Context) {
	if l.Login != nil {
		l.Login(ctx)
	}
}

func (l *ListenerFuncs) OnLogout(ctx context.Context) {
	if l.Logout != nil {
		l.Logout(ctx)
	}
}

// listeners is an ordered set of listeners safe for concurrent use.
type listeners struct {
	mu   sync.RWMutex
	list []Listener
}

func (ls *listeners) add(l Listener) {
	if l == nil {
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	for _, existing := range ls.list {
		if existing == l {
			return
		}
	}
	ls.list = append(ls.list, l)
}

func (ls *listeners) remove(l Listener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	for i, existing := range ls.list {
		if existing == l {
			ls.list = append(ls.list[:i:i], ls.list[i+1:]...)
			return
		}
	}
}

func (ls *listeners) snapshot() []Listener {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	out := make([]Listener, len(ls.list))
	copy(out, ls.list)
	return out
}

// notice is a transition waiting to reach listeners. Tickets are handed out
// in apply order and delivered in that order.
type notice struct {
	ticket uint64
	state  State
}

// dispatch records the notices owed by a goroutine running callbacks. It
// travels in the ctx handed to those callbacks.
type dispatch struct {
	owed []notice
	done bool
}

type dispatchKey struct{ t *Tracker }
