package session

import (
	"context"
	"sync"

	"github.com/getmentor/authflow/internal/models"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/getmentor/authflow/pkg/metrics"
	"go.uber.org/zap"
)

// Messages stored when a failed operation's error carries no text
const (
	FallbackCheckEmailError = "Unknown error occurred"
	FallbackLoginError      = "Login failed"
	FallbackVerifyOtpError  = "OTP verification failed"
)

// Operation names used in logs and metrics
const (
	OpCheckEmail = "check_email"
	OpLogin      = "login"
	OpVerifyOtp  = "verify_otp"
)

// AuthAPI is the backend the container calls. *authapi.Client implements it.
type AuthAPI interface {
	CheckEmail(ctx context.Context, email string) (*models.CheckEmailResponse, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	VerifyOtp(ctx context.Context, email, otpCode string) (*models.OtpVerificationResponse, error)
}

// State is the session as seen by screens. Empty strings mean "none".
type State struct {
	IsLoading bool
	Error     string
	UserEmail string
}

// Container owns the session state for one running app. Operations are
// single-flight: while one is pending, every other call fails fast with
// errors.ErrOperationInProgress and leaves the state alone.
//
// Failures are delivered once as the returned error; State.Error holds only
// its message for display.
type Container struct {
	api AuthAPI

	mu         sync.Mutex
	state      State
	inFlight   bool
	generation uint64
	listeners  map[int]func(State)
	nextID     int
}

// NewContainer creates a container in the initial state
func NewContainer(api AuthAPI) *Container {
	return &Container{
		api:       api,
		listeners: make(map[int]func(State)),
	}
}

// State returns a snapshot of the current state
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription.
func (c *Container) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// CheckEmailAndGeneratePassword records email as the session's user and asks
// the backend to check it and send a one-time password
func (c *Container) CheckEmailAndGeneratePassword(ctx context.Context, email string) (*models.CheckEmailResponse, error) {
	return run(ctx, c, OpCheckEmail, FallbackCheckEmailError,
		func(s *State) { s.UserEmail = email },
		func(ctx context.Context) (*models.CheckEmailResponse, error) {
			return c.api.CheckEmail(ctx, email)
		})
}

// Login submits the password for email
func (c *Container) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	return run(ctx, c, OpLogin, FallbackLoginError, nil,
		func(ctx context.Context) (*models.LoginResponse, error) {
			return c.api.Login(ctx, email, password)
		})
}

// VerifyOtp submits the verification code for email
func (c *Container) VerifyOtp(ctx context.Context, email, otpCode string) (*models.OtpVerificationResponse, error) {
	return run(ctx, c, OpVerifyOtp, FallbackVerifyOtpError, nil,
		func(ctx context.Context) (*models.OtpVerificationResponse, error) {
			return c.api.VerifyOtp(ctx, email, otpCode)
		})
}

// ClearError drops the stored error and nothing else
func (c *Container) ClearError() {
	c.update(func(s *State) bool {
		if s.Error == "" {
			return false
		}
		s.Error = ""
		return true
	})
}

// ResetAuthState restores the initial state. A request still pending keeps
// the single-flight slot, but its outcome is no longer written to the state.
func (c *Container) ResetAuthState() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	c.update(func(s *State) bool {
		*s = State{}
		return true
	})
}

// run is the shared begin/call/settle sequence of every operation
func run[T any](
	ctx context.Context,
	c *Container,
	operation, fallback string,
	begin func(*State),
	call func(context.Context) (T, error),
) (T, error) {
	var zero T

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		metrics.SessionOperations.WithLabelValues(operation, "rejected_in_flight").Inc()
		logger.Warn("Session operation rejected: another is in flight", zap.String("operation", operation))
		return zero, apperrors.ErrOperationInProgress
	}
	c.inFlight = true
	generation := c.generation
	c.state.IsLoading = true
	c.state.Error = ""
	if begin != nil {
		begin(&c.state)
	}
	snapshot := c.state
	listeners := c.snapshotListeners()
	c.mu.Unlock()
	notify(listeners, snapshot)

	result, err := call(ctx)

	c.mu.Lock()
	c.inFlight = false
	stale := generation != c.generation
	if !stale {
		c.state.IsLoading = false
		if err != nil {
			c.state.Error = apperrors.Message(err, fallback)
		}
	}
	snapshot = c.state
	listeners = c.snapshotListeners()
	c.mu.Unlock()

	if !stale {
		notify(listeners, snapshot)
	}

	if err != nil {
		metrics.SessionOperations.WithLabelValues(operation, "failure").Inc()
		logger.Debug("Session operation failed",
			zap.String("operation", operation),
			zap.Bool("discarded", stale),
			zap.Error(err))
		return zero, err
	}

	metrics.SessionOperations.WithLabelValues(operation, "success").Inc()
	logger.Debug("Session operation succeeded",
		zap.String("operation", operation),
		zap.Bool("discarded", stale))
	return result, nil
}

// update applies fn under the lock and notifies listeners when fn reports a change
func (c *Container) update(fn func(*State) bool) {
	c.mu.Lock()
	changed := fn(&c.state)
	snapshot := c.state
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	if changed {
		notify(listeners, snapshot)
	}
}

// snapshotListeners must be called with mu held
func (c *Container) snapshotListeners() []func(State) {
	out := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
