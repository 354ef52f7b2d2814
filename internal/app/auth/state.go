package auth

import "github.com/PabloGalante/heartdx/internal/domain"

type Phase string

const (
	PhaseUnresolved    Phase = "unresolved"
	PhaseLoading       Phase = "loading"
	PhaseAuthenticated Phase = "authenticated"
	PhaseAnonymous     Phase = "anonymous"
	PhaseError         Phase = "error"
)

// State is an immutable snapshot of the session manager.
type State struct {
	User    *domain.User
	Loading bool
	Error   string
	Phase   Phase
}

func (s State) IsAuthenticated() bool { return s.User != nil }

func (s State) IsAdmin() bool { return s.User != nil && s.User.Role == domain.RoleAdmin }

func (s State) IsDoctor() bool { return s.User != nil && s.User.Role == domain.RoleDoctor }

func phaseOf(started, loading bool, user *domain.User, errMsg string) Phase {
	switch {
	case !started:
		return PhaseUnresolved
	case loading:
		return PhaseLoading
	case user != nil:
		return PhaseAuthenticated
	case errMsg != "":
		return PhaseError
	default:
		return PhaseAnonymous
	}
}
