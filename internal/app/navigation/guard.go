// Package navigation decides whether a route may be entered given the
// current auth state.
package navigation

import (
	"context"

	"github.com/PabloGalante/heartdx/internal/app/auth"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type Route struct {
	Name          string
	Path          string
	RequiresAuth  bool
	RequiresGuest bool
}

// Decision is either an allow (empty RedirectTo) or a redirect.
type Decision struct {
	RedirectTo string
}

func (d Decision) Allowed() bool { return d.RedirectTo == "" }

func Allow() Decision { return Decision{} }

func RedirectTo(path string) Decision { return Decision{RedirectTo: path} }

// Decide applies the route requirements to a settled state.
func Decide(route Route, st auth.State) Decision {
	switch {
	case route.RequiresAuth && !st.IsAuthenticated():
		return RedirectTo(LoginPath)
	case route.RequiresGuest && st.IsAuthenticated():
		return RedirectTo(HomePath)
	default:
		return Allow()
	}
}

// StateSource is the part of auth.Manager the guard reads.
type StateSource interface {
	State() auth.State
	Subscribe(fn func(auth.State)) (unsubscribe func())
}

type Guard struct {
	src StateSource
}

func NewGuard(src StateSource) *Guard {
	return &Guard{src: src}
}

// Check decides immediately when the state is settled. Otherwise it waits
// for the next settled publication and decides on that one. It returns
// ctx.Err() if ctx ends first.
func (g *Guard) Check(ctx context.Context, route Route) (Decision, error) {
	settled := make(chan auth.State, 1)
	unsubscribe := g.src.Subscribe(func(st auth.State) {
		if !isSettled(st) {
			return
		}
		select {
		case settled <- st:
		default:
		}
	})
	defer unsubscribe()

	if st := g.src.State(); isSettled(st) {
		return Decide(route, st), nil
	}

	select {
	case st := <-settled:
		return Decide(route, st), nil
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

func isSettled(st auth.State) bool {
	return !st.Loading && st.Phase != auth.PhaseUnresolved
}
