package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/heartdx/internal/app/feedback"
	"github.com/PabloGalante/heartdx/internal/app/navigation"
	"github.com/PabloGalante/heartdx/internal/observability"
)

// do runs op through the feedback coordinator, retrying retryable
// failures up to a.retries times, and turns any queued errors into one
// returned error.
func do[T any](ctx context.Context, a *app, label, loadingKey, loadingMsg string, op func(context.Context) (T, error)) (T, error) {
	var out T
	capture := func(ctx context.Context) (T, error) {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return v, err
	}

	if _, ok := feedback.WithErrorHandling(ctx, a.feedback, capture,
		feedback.WithLoading(loadingKey, loadingMsg),
		feedback.WithContext(label),
	); ok {
		return out, nil
	}

	for attempt := 1; attempt <= a.retries; attempt++ {
		id, ok := a.retryable()
		if !ok {
			break
		}
		observability.LoggerFromContext(ctx).Info("retrying", "operation", label, "attempt", attempt)
		if err := a.feedback.Retry(ctx, id); err == nil {
			a.feedback.ClearAllErrors()
			return out, nil
		}
	}
	return out, a.drainErrors()
}

func (a *app) retryable() (string, bool) {
	errs := a.feedback.Errors()
	for i := len(errs) - 1; i >= 0; i-- {
		if errs[i].Action != nil && errs[i].Action.Retry {
			return errs[i].ID, true
		}
	}
	return "", false
}

// drainErrors clears the coordinator and folds its errors into one.
func (a *app) drainErrors() error {
	errs := a.feedback.Errors()
	a.feedback.ClearAllErrors()
	if len(errs) == 0 {
		return errors.New("operation failed")
	}

	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
		if e.Details != "" {
			msg += " (" + e.Details + ")"
		}
		if e.Action != nil && e.Action.Redirect == navigation.LoginPath {
			msg += ": run `heartdx login`"
		}
		parts = append(parts, msg)
	}
	return errors.New(strings.Join(parts, "; "))
}

// invalid queues a validation error and returns it.
func (a *app) invalid(field, msg string) error {
	a.feedback.HandleValidationError(field, msg)
	return a.drainErrors()
}
