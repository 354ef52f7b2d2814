package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

const msgLoadUserFailed = "failed to load user data"

// onSessionChange is the identity provider listener. The provider calls it
// one notification at a time.
func (m *Manager) onSessionChange(ctx context.Context, cred *domain.Credential) {
	ctx = observability.WithOperation(ctx, "auth.session_change")
	log := observability.LoggerFromContext(ctx)

	m.mu.Lock()
	startGen := m.generation
	m.mu.Unlock()

	var (
		user *domain.User
		err  error
	)
	if cred != nil {
		log = log.With("user_id", cred.UID)
		user, err = m.resolveSession(ctx, cred)
	}

	m.mu.Lock()
	stale := m.generation != startGen
	if !stale {
		switch {
		case err != nil:
			m.user = nil
			m.errMsg = msgLoadUserFailed
		default:
			m.user = user
			m.errMsg = ""
		}
	}
	m.loading = false

	rec := reconciliation{cred: cred, user: user, err: err, stale: stale, generation: m.generation}
	for _, ch := range m.waiters {
		// a waiter only needs the latest reconciliation
		select {
		case <-ch:
		default:
		}
		ch <- rec
	}
	m.commitLocked()

	switch {
	case stale:
		log.Debug("discarded stale session notification")
	case err != nil:
		log.Error("failed to resolve session profile", "error", err)
	case cred == nil:
		log.Debug("session cleared")
	default:
		log.Debug("session resolved", "role", user.Role)
	}
}

// resolveSession loads the profile for cred, creating a default patient
// profile when none exists. A denied read degrades to a minimal session.
func (m *Manager) resolveSession(ctx context.Context, cred *domain.Credential) (*domain.User, error) {
	p, err := m.profiles.GetProfile(ctx, cred.UID)
	if errors.Is(err, domain.ErrNotFound) {
		p, err = m.createDefaultProfile(ctx, cred)
	}

	switch {
	case err == nil:
		return sessionFromProfile(cred, p, m.now()), nil
	case errors.Is(err, domain.ErrPermissionDenied):
		observability.LoggerFromContext(ctx).Warn("profile access denied, using minimal session",
			"user_id", cred.UID, "error", err)
		return minimalSession(cred, m.now()), nil
	default:
		return nil, err
	}
}

func (m *Manager) createDefaultProfile(ctx context.Context, cred *domain.Credential) (*domain.Profile, error) {
	p := &domain.Profile{
		ID:          cred.UID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		Role:        domain.RolePatient,
	}

	err := m.profiles.CreateProfile(ctx, p)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// written concurrently, e.g. by Register
		return m.profiles.GetProfile(ctx, cred.UID)
	}
	if err != nil {
		return nil, fmt.Errorf("create user profile: %w", err)
	}
	return p, nil
}

func sessionFromProfile(cred *domain.Credential, p *domain.Profile, now time.Time) *domain.User {
	u := &domain.User{
		ID:          cred.UID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		Role:        p.Role,
		CreatedAt:   p.CreatedAt,
		Persisted:   true,
	}
	if u.DisplayName == "" {
		u.DisplayName = p.DisplayName
	}
	if u.Email == "" {
		u.Email = p.Email
	}
	if u.Role == "" {
		u.Role = domain.RolePatient
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	return u
}

func minimalSession(cred *domain.Credential, now time.Time) *domain.User {
	return &domain.User{
		ID:          cred.UID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		Role:        domain.RolePatient,
		CreatedAt:   now,
	}
}
