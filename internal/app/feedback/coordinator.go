// Package feedback keeps the process-wide registries of user-facing errors
// and named loading flags.
package feedback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/heartdx/internal/observability"
)

const DefaultErrorTTL = 10 * time.Second

var (
	ErrNoRetry     = errors.New("error has no retryable operation")
	ErrRetryFailed = errors.New("retried operation failed")
)

type ErrorType string

const (
	TypeNetwork    ErrorType = "network"
	TypeValidation ErrorType = "validation"
	TypeAuth       ErrorType = "auth"
	TypeServer     ErrorType = "server"
	TypeUnknown    ErrorType = "unknown"
)

// persistent types stay until dismissed.
func (t ErrorType) persistent() bool {
	return t == TypeServer || t == TypeAuth
}

// Action is the follow-up offered with an error. Redirect names a route the
// presentation layer should open; Retry means Coordinator.Retry can re-run
// the failed operation.
type Action struct {
	Label    string
	Redirect string
	Retry    bool
}

type AppError struct {
	ID        string
	Type      ErrorType
	Message   string
	Details   string
	Timestamp time.Time
	Action    *Action
}

// Descriptor is what callers supply to AddError.
type Descriptor struct {
	Type    ErrorType
	Message string
	Details string
	Action  *Action
}

type RetryFunc func(ctx context.Context) error

type loadingState struct {
	message string
}

type Option func(*Coordinator)

// WithErrorTTL sets how long non-persistent errors are kept.
func WithErrorTTL(d time.Duration) Option {
	return func(c *Coordinator) { c.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

type Coordinator struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	errs    []AppError
	timers  map[string]*time.Timer
	retries map[string]RetryFunc
	loading map[string]loadingState
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		ttl:     DefaultErrorTTL,
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
		retries: make(map[string]RetryFunc),
		loading: make(map[string]loadingState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddError queues an error and returns its id. Errors other than server and
// auth expire after the configured TTL.
func (c *Coordinator) AddError(d Descriptor) string {
	return c.addError(d, nil)
}

func (c *Coordinator) addError(d Descriptor, retry RetryFunc) string {
	e := AppError{
		ID:        uuid.NewString(),
		Type:      d.Type,
		Message:   d.Message,
		Details:   d.Details,
		Timestamp: c.now(),
		Action:    d.Action,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs = append(c.errs, e)
	if retry != nil && e.Action != nil && e.Action.Retry {
		c.retries[e.ID] = retry
	}
	if !e.Type.persistent() {
		id := e.ID
		c.timers[id] = time.AfterFunc(c.ttl, func() { c.RemoveError(id) })
	}
	return e.ID
}

func (c *Coordinator) RemoveError(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *Coordinator) removeLocked(id string) {
	for i, e := range c.errs {
		if e.ID == id {
			c.errs = append(c.errs[:i], c.errs[i+1:]...)
			break
		}
	}
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	delete(c.retries, id)
}

func (c *Coordinator) ClearAllErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.timers {
		t.Stop()
	}
	c.errs = nil
	c.timers = make(map[string]*time.Timer)
	c.retries = make(map[string]RetryFunc)
}

// Errors returns the queued errors, oldest first.
func (c *Coordinator) Errors() []AppError {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]AppError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Retry dismisses the error and re-runs the operation that produced it.
// A new error is queued if the operation fails again.
func (c *Coordinator) Retry(ctx context.Context, id string) error {
	c.mu.Lock()
	retry, ok := c.retries[id]
	if ok {
		c.removeLocked(id)
	}
	c.mu.Unlock()

	if !ok {
		return ErrNoRetry
	}
	return retry(ctx)
}

// SetLoading sets or clears the flag named key.
func (c *Coordinator) SetLoading(key string, loading bool, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if loading {
		c.loading[key] = loadingState{message: message}
	} else {
		delete(c.loading, key)
	}
}

// IsLoading reports whether key is set, or with an empty key whether any
// flag is set.
func (c *Coordinator) IsLoading(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key == "" {
		return len(c.loading) > 0
	}
	_, ok := c.loading[key]
	return ok
}

func (c *Coordinator) LoadingMessage(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[key].message
}

func (c *Coordinator) HandleValidationError(field, message string) string {
	return c.AddError(Descriptor{
		Type:    TypeValidation,
		Message: field + ": " + message,
		Details: "Please correct the highlighted field and try again",
	})
}

func (c *Coordinator) HandleNetworkError(contextLabel string) string {
	details := contextLabel
	if details == "" {
		details = msgCheckConnection
	}
	return c.AddError(Descriptor{
		Type:    TypeNetwork,
		Message: msgNetworkFailed,
		Details: details,
		Action:  &Action{Label: "Retry", Retry: true},
	})
}

// HandleAPIError classifies err and queues exactly one error for it.
func (c *Coordinator) HandleAPIError(ctx context.Context, err error, contextLabel string) string {
	return c.handleAPIError(ctx, err, contextLabel, nil)
}

func (c *Coordinator) handleAPIError(ctx context.Context, err error, contextLabel string, retry RetryFunc) string {
	d := Classify(err, contextLabel)
	observability.LoggerFromContext(ctx).Error("api error",
		"error", err,
		"context", contextLabel,
		"type", d.Type,
	)
	return c.addError(d, retry)
}
