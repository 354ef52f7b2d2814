package navigation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PabloGalante/heartdx/internal/app/auth"
	"github.com/PabloGalante/heartdx/internal/app/navigation"
	"github.com/PabloGalante/heartdx/internal/domain"
)

type fakeSource struct {
	mu         sync.Mutex
	st         auth.State
	subs       map[int]func(auth.State)
	next       int
	subscribed chan struct{}
}

func newFakeSource(st auth.State) *fakeSource {
	return &fakeSource{st: st, subs: make(map[int]func(auth.State)), subscribed: make(chan struct{}, 1)}
}

func (f *fakeSource) State() auth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeSource) Subscribe(fn func(auth.State)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()
	select {
	case f.subscribed <- struct{}{}:
	default:
	}
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeSource) publish(st auth.State) {
	f.mu.Lock()
	f.st = st
	subs := make([]func(auth.State), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

var (
	signedIn  = auth.State{User: &domain.User{ID: "u1"}, Phase: auth.PhaseAuthenticated}
	anonymous = auth.State{Phase: auth.PhaseAnonymous}
	loading   = auth.State{Loading: true, Phase: auth.PhaseLoading}

	history = navigation.Route{Name: "History", Path: "/history", RequiresAuth: true}
	login   = navigation.Route{Name: "Login", Path: "/login", RequiresGuest: true}
	home    = navigation.Route{Name: "Home", Path: "/"}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		route navigation.Route
		state auth.State
		want  navigation.Decision
	}{
		{"auth route without session", history, anonymous, navigation.RedirectTo(navigation.LoginPath)},
		{"auth route with session", history, signedIn, navigation.Allow()},
		{"guest route with session", login, signedIn, navigation.RedirectTo(navigation.HomePath)},
		{"guest route without session", login, anonymous, navigation.Allow()},
		{"open route", home, anonymous, navigation.Allow()},
		{"open route with session", home, signedIn, navigation.Allow()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := navigation.Decide(tt.route, tt.state); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestGuard_DecidesImmediatelyWhenSettled(t *testing.T) {
	g := navigation.NewGuard(newFakeSource(anonymous))

	d, err := g.Check(context.Background(), history)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if d.RedirectTo != navigation.LoginPath {
		t.Fatalf("expected redirect to login, got %+v", d)
	}
}

func TestGuard_WaitsForNextSettledState(t *testing.T) {
	src := newFakeSource(loading)
	g := navigation.NewGuard(src)

	done := make(chan navigation.Decision, 1)
	go func() {
		d, err := g.Check(context.Background(), login)
		if err != nil {
			t.Errorf("Check returned error: %v", err)
		}
		done <- d
	}()

	<-src.subscribed
	src.publish(loading)
	select {
	case d := <-done:
		t.Fatalf("guard decided while still loading: %+v", d)
	case <-time.After(20 * time.Millisecond):
	}

	src.publish(signedIn)
	select {
	case d := <-done:
		if d.RedirectTo != navigation.HomePath {
			t.Fatalf("expected redirect home, got %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("guard never released")
	}

	if n := src.subscribers(); n != 0 {
		t.Fatalf("expected guard to unsubscribe, %d subscribers left", n)
	}
}

func TestGuard_ReturnsContextErrorWhileSuspended(t *testing.T) {
	src := newFakeSource(loading)
	g := navigation.NewGuard(src)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Check(ctx, history)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
