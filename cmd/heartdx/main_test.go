package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PabloGalante/heartdx/internal/adapters/scoring/mockserver"
)

// cliEnv points every backend at test-local resources.
func cliEnv(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(mockserver.NewServer())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("HEARTDX_SCORING_URL", srv.URL)
	t.Setenv("HEARTDX_SCORING_RPS", "0")
	t.Setenv("HEARTDX_STORE_BACKEND", "memory")
	t.Setenv("HEARTDX_EXPLAINER", "none")
	t.Setenv("HEARTDX_IDENTITY_DSN", filepath.Join(dir, "identity.db"))
	t.Setenv("HEARTDX_TOKEN_FILE", filepath.Join(dir, "session"))
	t.Setenv("HEARTDX_TOKEN_SECRET", "test-secret")
	t.Setenv("HEARTDX_LOGIN_TIMEOUT", "5s")
	t.Setenv("HEARTDX_LOG_LEVEL", "error")
	t.Setenv("HEARTDX_KAFKA_BROKERS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newRootCommand(&out).Run(context.Background(), append([]string{"heartdx"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("heartdx %s: %v", strings.Join(args, " "), err)
	}
	return out
}

var diagnoseArgs = []string{
	"diagnose",
	"--age", "45", "--sex", "male", "--bp", "120", "--cholesterol", "180",
	"--max-hr", "150", "--height", "1.75", "--weight", "70",
}

func TestCLI_SessionLifecycle(t *testing.T) {
	cliEnv(t)

	if out := mustRun(t, "whoami"); !strings.Contains(out, "Not signed in") {
		t.Fatalf("expected anonymous session, got %q", out)
	}

	out := mustRun(t, "register", "--email", "doc@example.com", "--password", "s3cret!", "--name", "Doc", "--role", "doctor")
	if !strings.Contains(out, "Registered doc@example.com as doctor") {
		t.Fatalf("unexpected register output %q", out)
	}

	// the session token outlives the process
	if out := mustRun(t, "whoami"); !strings.Contains(out, "doc@example.com") {
		t.Fatalf("expected restored session, got %q", out)
	}

	if _, err := run(t, "login", "--email", "doc@example.com", "--password", "s3cret!"); !errors.Is(err, errAlreadySignedIn) {
		t.Fatalf("expected guest-only route to refuse, got %v", err)
	}

	if out := mustRun(t, "logout"); !strings.Contains(out, "Signed out") {
		t.Fatalf("unexpected logout output %q", out)
	}
	if _, err := run(t, "history"); !errors.Is(err, errSignInRequired) {
		t.Fatalf("expected sign-in redirect, got %v", err)
	}

	if out := mustRun(t, "login", "--email", "doc@example.com", "--password", "s3cret!"); !strings.Contains(out, "Signed in as doc@example.com") {
		t.Fatalf("unexpected login output %q", out)
	}
}

func TestCLI_LoginWithWrongPasswordFails(t *testing.T) {
	cliEnv(t)
	mustRun(t, "register", "--email", "p@example.com", "--password", "right")
	mustRun(t, "logout")

	_, err := run(t, "login", "--email", "p@example.com", "--password", "wrong")
	if err == nil || !strings.Contains(err.Error(), "authentication failed") {
		t.Fatalf("expected authentication failure, got %v", err)
	}
}

func TestCLI_AnonymousDiagnosisIsNotSaved(t *testing.T) {
	cliEnv(t)

	out := mustRun(t, diagnoseArgs...)
	if !strings.Contains(out, "Result: Healthy") {
		t.Fatalf("unexpected diagnose output %q", out)
	}
	if !strings.Contains(out, "result was not saved") {
		t.Fatalf("expected anonymous notice, got %q", out)
	}
}

func TestCLI_DiagnoseRejectedByScoringService(t *testing.T) {
	cliEnv(t)

	args := append([]string{}, diagnoseArgs...)
	args[2] = "0" // --age
	_, err := run(t, args...)
	if err == nil || !strings.Contains(err.Error(), "[validation]") {
		t.Fatalf("expected validation error from the service, got %v", err)
	}
}

func TestCLI_PatientsRequireSession(t *testing.T) {
	cliEnv(t)

	_, err := run(t, "patients", "add", "--name", "Ana", "--age", "30", "--gender", "female", "--height", "1.6", "--weight", "55")
	if !errors.Is(err, errSignInRequired) {
		t.Fatalf("expected sign-in redirect, got %v", err)
	}

	mustRun(t, "register", "--email", "d@example.com", "--password", "pw", "--role", "doctor")
	out := mustRun(t, "patients", "add", "--name", "Ana", "--age", "30", "--gender", "female", "--height", "1.6", "--weight", "55")
	if !strings.Contains(out, "Added Ana (BMI 21.5, Normal)") {
		t.Fatalf("unexpected patients add output %q", out)
	}
}

func TestCLI_Health(t *testing.T) {
	cliEnv(t)

	out := mustRun(t, "health")
	if !strings.Contains(out, "status: UP") || !strings.Contains(out, "v1.0") {
		t.Fatalf("unexpected health output %q", out)
	}
}
