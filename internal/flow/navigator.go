package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/getmentor/authflow/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultSplashDelay is how long the splash screen stays up
const DefaultSplashDelay = 2 * time.Second

// Entry is one screen on the navigation stack
type Entry struct {
	Screen Screen
	Params Params
}

// Navigator keeps the navigation stack and applies the transition table to it.
// It is safe for concurrent use; the splash timer dispatches from its own goroutine.
type Navigator struct {
	mu        sync.Mutex
	stack     []Entry
	listeners []func(from, to Entry)
	after     func(time.Duration) <-chan time.Time

	splashOnce sync.Once
}

// Option configures a Navigator
type Option func(*Navigator)

// WithAfter replaces time.After for the splash timer
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(n *Navigator) {
		n.after = after
	}
}

// WithListener registers fn to be called after every transition
func WithListener(fn func(from, to Entry)) Option {
	return func(n *Navigator) {
		n.listeners = append(n.listeners, fn)
	}
}

// WithStart roots the stack at screen instead of the splash
func WithStart(screen Screen, params Params) Option {
	return func(n *Navigator) {
		n.stack = []Entry{{Screen: screen, Params: params}}
	}
}

// NewNavigator creates a navigator positioned on the initial screen
func NewNavigator(opts ...Option) *Navigator {
	n := &Navigator{
		stack: []Entry{{Screen: InitialScreen}},
		after: time.After,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Current returns the screen on top of the stack
func (n *Navigator) Current() Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the navigation stack, bottom first
func (n *Navigator) Stack() []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Entry, len(n.stack))
	copy(out, n.stack)
	return out
}

// Dispatch applies the edge leaving the current screen on event.
// params must carry every field the edge requires; it is ignored for Pop edges.
func (n *Navigator) Dispatch(event Event, params Params) (Entry, error) {
	n.mu.Lock()
	from := n.stack[len(n.stack)-1]

	t, ok := Lookup(from.Screen, event)
	if !ok {
		n.mu.Unlock()
		return from, fmt.Errorf("%w: %s has no edge for %s (expects one of %v)",
			apperrors.ErrNoTransition, from.Screen, event, EventsFrom(from.Screen))
	}

	for _, required := range t.Requires {
		if !params.has(required) {
			n.mu.Unlock()
			return from, fmt.Errorf("%w: %s requires %s", apperrors.ErrMissingParams, t.To, required)
		}
	}

	switch t.Kind {
	case Push:
		n.stack = append(n.stack, Entry{Screen: t.To, Params: params})
	case Replace:
		n.stack[len(n.stack)-1] = Entry{Screen: t.To, Params: params}
	case Pop:
		if len(n.stack) == 1 {
			n.mu.Unlock()
			return from, fmt.Errorf("%w: nothing below %s", apperrors.ErrNoTransition, from.Screen)
		}
		n.stack = n.stack[:len(n.stack)-1]
	}

	to := n.stack[len(n.stack)-1]
	listeners := n.listeners
	n.mu.Unlock()

	n.record(from, to, string(event))
	for _, fn := range listeners {
		fn(from, to)
	}
	return to, nil
}

// Back pops to the previous screen without consulting the table, like a
// hardware back button. It reports false when already at the bottom.
func (n *Navigator) Back() (Entry, bool) {
	n.mu.Lock()
	from := n.stack[len(n.stack)-1]
	if len(n.stack) == 1 {
		n.mu.Unlock()
		return from, false
	}
	n.stack = n.stack[:len(n.stack)-1]
	to := n.stack[len(n.stack)-1]
	listeners := n.listeners
	n.mu.Unlock()

	n.record(from, to, "back")
	for _, fn := range listeners {
		fn(from, to)
	}
	return to, true
}

// StartSplashTimer advances from Splash to Welcome once delay has passed.
// Only the first call starts a timer. The returned channel closes when the
// timer has fired or ctx was cancelled; nothing happens if the user already
// left the splash screen.
func (n *Navigator) StartSplashTimer(ctx context.Context, delay time.Duration) <-chan struct{} {
	done := make(chan struct{})
	started := false

	n.splashOnce.Do(func() {
		started = true
		timer := n.after(delay)
		go func() {
			defer close(done)
			select {
			case <-ctx.Done():
				logger.Debug("Splash timer cancelled")
				return
			case <-timer:
			}

			if n.Current().Screen != ScreenSplash {
				return
			}
			if _, err := n.Dispatch(EventSplashElapsed, Params{}); err != nil {
				logger.Warn("Splash auto-advance failed", zap.Error(err))
			}
		}()
	})

	if !started {
		close(done)
	}
	return done
}

func (n *Navigator) record(from, to Entry, trigger string) {
	metrics.NavigationTransitions.WithLabelValues(string(from.Screen), string(to.Screen)).Inc()
	logger.Info("Navigation transition",
		zap.String("from", string(from.Screen)),
		zap.String("to", string(to.Screen)),
		zap.String("trigger", trigger))
}
