package feedback_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/PabloGalante/heartdx/internal/app/feedback"
	"github.com/PabloGalante/heartdx/internal/app/navigation"
	"github.com/PabloGalante/heartdx/internal/domain"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func has(c *feedback.Coordinator, id string) bool {
	for _, e := range c.Errors() {
		if e.ID == id {
			return true
		}
	}
	return false
}

func TestWithErrorHandling_ClearsLoadingAndSwallowsFailure(t *testing.T) {
	c := feedback.NewCoordinator()

	var loadingDuring bool
	res, ok := feedback.WithErrorHandling(context.Background(), c,
		func(context.Context) (*domain.DiagnosisResult, error) {
			loadingDuring = c.IsLoading("k")
			return nil, errors.New("boom")
		},
		feedback.WithLoading("k", "Scoring..."),
	)

	if !loadingDuring {
		t.Fatalf("expected loading flag set during the operation")
	}
	if c.IsLoading("k") || c.IsLoading("") {
		t.Fatalf("expected loading flag cleared after failure")
	}
	if ok || res != nil {
		t.Fatalf("expected absent result, got %v ok=%v", res, ok)
	}
	if errs := c.Errors(); len(errs) != 1 {
		t.Fatalf("expected exactly one queued error, got %d", len(errs))
	}
}

func TestWithErrorHandling_ClearsLoadingOnPanic(t *testing.T) {
	c := feedback.NewCoordinator()

	func() {
		defer func() { _ = recover() }()
		feedback.WithErrorHandling(context.Background(), c,
			func(context.Context) (int, error) { panic("unexpected") },
			feedback.WithLoading("k", ""),
		)
	}()

	if c.IsLoading("k") {
		t.Fatalf("expected loading flag cleared after panic")
	}
}

func TestWithErrorHandling_ReturnsResultOnSuccess(t *testing.T) {
	c := feedback.NewCoordinator()

	n, ok := feedback.WithErrorHandling(context.Background(), c,
		func(context.Context) (int, error) { return 42, nil },
		feedback.WithLoading("k", ""),
	)
	if !ok || n != 42 {
		t.Fatalf("expected 42, got %d ok=%v", n, ok)
	}
	if len(c.Errors()) != 0 {
		t.Fatalf("expected no errors")
	}
}

func TestHandleAPIError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType feedback.ErrorType
		wantMsg  string
		action   bool
	}{
		{"400 uses body", &domain.ScoringServiceError{Status: 400, Message: "Invalid age", Details: "Age must be between 1 and 120"}, feedback.TypeValidation, "Invalid age", false},
		{"401", &domain.ScoringServiceError{Status: 401}, feedback.TypeAuth, "Authentication required", true},
		{"403", &domain.ScoringServiceError{Status: 403}, feedback.TypeAuth, "Access denied", false},
		{"404", &domain.ScoringServiceError{Status: 404}, feedback.TypeServer, "Resource not found", false},
		{"422", &domain.ScoringServiceError{Status: 422}, feedback.TypeValidation, "Validation failed", false},
		{"429", &domain.ScoringServiceError{Status: 429}, feedback.TypeServer, "Too many requests", true},
		{"500", &domain.ScoringServiceError{Status: 500}, feedback.TypeServer, "Server error", true},
		{"503", &domain.ScoringServiceError{Status: 503}, feedback.TypeServer, "Service unavailable", false},
		{"418", &domain.ScoringServiceError{Status: 418}, feedback.TypeServer, "Server error (418)", false},
		{"wrapped status", fmt.Errorf("submit: %w", &domain.ScoringServiceError{Status: 401}), feedback.TypeAuth, "Authentication required", true},
		{"network sentinel", fmt.Errorf("%w: dial tcp", domain.ErrNetwork), feedback.TypeNetwork, "Network connection failed", true},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, feedback.TypeNetwork, "Network connection failed", true},
		{"plain error", errors.New("parse failure"), feedback.TypeUnknown, "parse failure", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := feedback.NewCoordinator()
			id := c.HandleAPIError(context.Background(), tt.err, "")

			errs := c.Errors()
			if len(errs) != 1 || errs[0].ID != id {
				t.Fatalf("expected exactly one queued error with id %s, got %+v", id, errs)
			}
			got := errs[0]
			if got.Type != tt.wantType || got.Message != tt.wantMsg {
				t.Fatalf("expected %s %q, got %s %q", tt.wantType, tt.wantMsg, got.Type, got.Message)
			}
			if (got.Action != nil) != tt.action {
				t.Fatalf("expected action present=%v, got %+v", tt.action, got.Action)
			}
		})
	}
}

func TestHandleAPIError_UnauthorizedRedirectsToLogin(t *testing.T) {
	c := feedback.NewCoordinator()
	c.HandleAPIError(context.Background(), &domain.ScoringServiceError{Status: 401}, "")

	a := c.Errors()[0].Action
	if a == nil || a.Label != "Login" || a.Redirect != navigation.LoginPath {
		t.Fatalf("expected login redirect action, got %+v", a)
	}
}

func TestHandleAPIError_UnknownCarriesContext(t *testing.T) {
	c := feedback.NewCoordinator()
	c.HandleAPIError(context.Background(), errors.New("weird"), "fetching history")

	if got := c.Errors()[0].Details; got != "Context: fetching history" {
		t.Fatalf("unexpected details %q", got)
	}
}

func TestAddError_AutoExpiry(t *testing.T) {
	c := feedback.NewCoordinator(feedback.WithErrorTTL(20 * time.Millisecond))

	validation := c.HandleValidationError("age", "must be positive")
	server := c.AddError(feedback.Descriptor{Type: feedback.TypeServer, Message: "down"})
	auth := c.AddError(feedback.Descriptor{Type: feedback.TypeAuth, Message: "denied"})

	eventually(t, "validation error expiry", func() bool { return !has(c, validation) })

	time.Sleep(40 * time.Millisecond)
	if !has(c, server) || !has(c, auth) {
		t.Fatalf("expected server and auth errors to persist, got %+v", c.Errors())
	}

	c.RemoveError(server)
	if has(c, server) {
		t.Fatalf("expected explicit removal to work")
	}
	c.ClearAllErrors()
	if len(c.Errors()) != 0 {
		t.Fatalf("expected all errors cleared")
	}
}

func TestLoadingRegistry(t *testing.T) {
	c := feedback.NewCoordinator()

	if c.IsLoading("") {
		t.Fatalf("expected nothing loading")
	}
	c.SetLoading("diagnose", true, "Analyzing symptoms")
	c.SetLoading("history", true, "")

	if !c.IsLoading("") || !c.IsLoading("diagnose") || c.IsLoading("patients") {
		t.Fatalf("unexpected loading flags")
	}
	if got := c.LoadingMessage("diagnose"); got != "Analyzing symptoms" {
		t.Fatalf("unexpected message %q", got)
	}

	c.SetLoading("diagnose", false, "")
	c.SetLoading("history", false, "")
	if c.IsLoading("") {
		t.Fatalf("expected all flags cleared")
	}
}

func TestRetry_RerunsRetainedOperation(t *testing.T) {
	ctx := context.Background()
	c := feedback.NewCoordinator()

	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &domain.ScoringServiceError{Status: 500}
		}
		return "ok", nil
	}

	if _, ok := feedback.WithErrorHandling(ctx, c, op); ok {
		t.Fatalf("expected first attempt to fail")
	}
	id := c.Errors()[0].ID

	if err := c.Retry(ctx, id); err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected operation re-run, got %d calls", calls)
	}
	if len(c.Errors()) != 0 {
		t.Fatalf("expected retried error to be dismissed")
	}
	if err := c.Retry(ctx, id); !errors.Is(err, feedback.ErrNoRetry) {
		t.Fatalf("expected ErrNoRetry for a dismissed error, got %v", err)
	}
}

func TestRetry_UnavailableWithoutRetryAction(t *testing.T) {
	ctx := context.Background()
	c := feedback.NewCoordinator()

	feedback.WithErrorHandling(ctx, c, func(context.Context) (int, error) {
		return 0, &domain.ScoringServiceError{Status: 400}
	})
	if err := c.Retry(ctx, c.Errors()[0].ID); !errors.Is(err, feedback.ErrNoRetry) {
		t.Fatalf("expected ErrNoRetry, got %v", err)
	}
}
