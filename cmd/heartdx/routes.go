package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/heartdx/internal/app/navigation"
)

var (
	routeLogin    = navigation.Route{Name: "login", Path: navigation.LoginPath, RequiresGuest: true}
	routeRegister = navigation.Route{Name: "register", Path: "/register", RequiresGuest: true}
	routeHome     = navigation.Route{Name: "home", Path: navigation.HomePath}
	routeLogout   = navigation.Route{Name: "logout", Path: "/logout", RequiresAuth: true}
	routeProfile  = navigation.Route{Name: "profile", Path: "/profile", RequiresAuth: true}
	routeHistory  = navigation.Route{Name: "history", Path: "/history", RequiresAuth: true}
	routePatients = navigation.Route{Name: "patients", Path: "/patients", RequiresAuth: true}
	// anonymous users may score symptoms; nothing is saved for them
	routeDiagnose = navigation.Route{Name: "diagnose", Path: "/diagnose"}
)

var (
	errSignInRequired  = errors.New("you need to sign in first: run `heartdx login`")
	errAlreadySignedIn = errors.New("already signed in: run `heartdx logout` first")
)

// enter waits for the session to settle and applies the route guard.
func (a *app) enter(ctx context.Context, r navigation.Route) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.LoginTimeout)
	defer cancel()

	d, err := a.guard.Check(ctx, r)
	if err != nil {
		return fmt.Errorf("resolving session for %s: %w", r.Name, err)
	}
	switch d.RedirectTo {
	case "":
		return nil
	case navigation.LoginPath:
		return errSignInRequired
	case navigation.HomePath:
		return errAlreadySignedIn
	default:
		return fmt.Errorf("%s is not available here, go to %s", r.Name, d.RedirectTo)
	}
}
