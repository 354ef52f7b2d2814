// Package auth owns the process session. A Manager reconciles its state
// against identity provider notifications and exposes the login, register,
// logout and profile operations that drive it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

const DefaultLoginTimeout = 10 * time.Second

type Option func(*Manager)

// WithLoginTimeout bounds how long Login waits for the session to resolve.
func WithLoginTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.loginTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// reconciliation is handed to Login calls waiting on the listener.
type reconciliation struct {
	cred       *domain.Credential
	user       *domain.User
	err        error
	stale      bool
	generation uint64
}

type Manager struct {
	idp          domain.IdentityProvider
	profiles     domain.ProfileStore
	now          func() time.Time
	loginTimeout time.Duration

	startOnce sync.Once

	// pubMu serializes subscriber callbacks; delivered is guarded by it.
	pubMu     sync.Mutex
	delivered uint64

	mu          sync.Mutex
	started     bool
	unsubscribe func()
	user        *domain.User
	loading     bool
	errMsg      string
	generation  uint64
	seq         uint64
	nextID      int
	subs        map[int]func(State)
	waiters     map[int]chan reconciliation
}

func NewManager(idp domain.IdentityProvider, profiles domain.ProfileStore, opts ...Option) *Manager {
	m := &Manager{
		idp:          idp,
		profiles:     profiles,
		now:          time.Now,
		loginTimeout: DefaultLoginTimeout,
		subs:         make(map[int]func(State)),
		waiters:      make(map[int]chan reconciliation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start subscribes to the identity provider. Calls after the first are no-ops.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.mu.Lock()
		m.started = true
		m.loading = true
		m.commitLocked()

		unsubscribe := m.idp.OnSessionChange(m.onSessionChange)

		m.mu.Lock()
		m.unsubscribe = unsubscribe
		m.mu.Unlock()
	})
}

// Close stops listening to the identity provider.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// CurrentUser returns a copy of the live session, or nil.
func (m *Manager) CurrentUser() *domain.User {
	return m.State().User
}

func (m *Manager) IsAuthenticated() bool { return m.State().IsAuthenticated() }
func (m *Manager) IsAdmin() bool         { return m.State().IsAdmin() }
func (m *Manager) IsDoctor() bool        { return m.State().IsDoctor() }

func (m *Manager) ClearError() {
	m.mu.Lock()
	m.errMsg = ""
	m.commitLocked()
}

// Subscribe registers fn for committed states. Callbacks run in commit order
// on the goroutine that changed the state. They may read State but must not
// call Login, Register, Logout, UpdateProfile or ClearError.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Login verifies credentials and waits until the session listener has
// resolved the profile for the signed-in identity.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	ctx = observability.WithOperation(ctx, "auth.login")
	log := observability.LoggerFromContext(ctx)

	m.mu.Lock()
	m.generation++
	token := m.generation
	m.loading = true
	m.errMsg = ""
	waitID, ch := m.addWaiterLocked()
	m.commitLocked()
	defer m.removeWaiter(waitID)

	user, err := m.signInAndWait(ctx, token, ch, email, password)

	m.mu.Lock()
	if m.generation == token {
		m.loading = false
		if err != nil {
			m.errMsg = err.Error()
		}
	}
	m.commitLocked()

	if err != nil {
		log.Warn("login failed", "error", err)
		return nil, err
	}
	log.Info("login succeeded", "user_id", user.ID)
	return user, nil
}

func (m *Manager) signInAndWait(
	ctx context.Context,
	token uint64,
	ch <-chan reconciliation,
	email, password string,
) (*domain.User, error) {
	cred, err := m.idp.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, err)
	}

	timer := time.NewTimer(m.loginTimeout)
	defer timer.Stop()

	for {
		select {
		case rec := <-ch:
			if rec.generation != token {
				return nil, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, domain.ErrSuperseded)
			}
			// notifications queued before this sign-in carry other identities
			if rec.stale || rec.cred == nil || rec.cred.UID != cred.UID {
				continue
			}
			if rec.err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, rec.err)
			}
			return rec.user, nil
		case <-timer.C:
			return nil, domain.ErrAuthTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Register creates an account and its profile record. Self-service
// registration only grants the patient and doctor roles.
func (m *Manager) Register(ctx context.Context, email, password, displayName string, role domain.Role) (domain.UserID, error) {
	ctx = observability.WithOperation(ctx, "auth.register")
	log := observability.LoggerFromContext(ctx)

	if role != domain.RoleDoctor {
		role = domain.RolePatient
	}

	m.mu.Lock()
	m.generation++
	token := m.generation
	m.loading = true
	m.errMsg = ""
	m.commitLocked()

	cred, profile, err := m.register(ctx, email, password, displayName, role)

	m.mu.Lock()
	if m.generation == token {
		m.loading = false
		if err != nil {
			m.errMsg = err.Error()
		} else {
			// the provider signed the new account in; in-flight reconciliations
			// may have seen it before its profile existed
			m.generation++
			m.user = sessionFromProfile(cred, profile, m.now())
		}
	}
	m.commitLocked()

	if err != nil {
		log.Warn("registration failed", "error", err)
		return "", err
	}
	log.Info("registered account", "user_id", cred.UID, "role", role)
	return cred.UID, nil
}

func (m *Manager) register(
	ctx context.Context,
	email, password, displayName string,
	role domain.Role,
) (*domain.Credential, *domain.Profile, error) {
	cred, err := m.idp.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrRegistration, err)
	}

	if displayName != "" {
		if err := m.idp.UpdateDisplayName(ctx, cred.UID, displayName); err != nil {
			m.rollbackAccount(ctx, cred.UID)
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrRegistration, err)
		}
		cred.DisplayName = displayName
	}

	profile := &domain.Profile{
		ID:          cred.UID,
		Email:       cred.Email,
		DisplayName: displayName,
		Role:        role,
	}
	if err := m.profiles.SaveProfile(ctx, profile); err != nil {
		m.rollbackAccount(ctx, cred.UID)
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrRegistration, err)
	}

	return cred, profile, nil
}

// rollbackAccount deletes an account whose registration could not finish.
// Failures are logged; the account is then orphaned.
func (m *Manager) rollbackAccount(ctx context.Context, uid domain.UserID) {
	ctx = context.WithoutCancel(ctx)
	if err := m.idp.DeleteAccount(ctx, uid); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to roll back account",
			"user_id", uid, "error", err)
	}
}

// Logout signs out and clears the session without waiting for the listener.
func (m *Manager) Logout(ctx context.Context) error {
	ctx = observability.WithOperation(ctx, "auth.logout")
	log := observability.LoggerFromContext(ctx)

	m.mu.Lock()
	m.generation++
	token := m.generation
	m.loading = true
	m.commitLocked()

	err := m.idp.SignOut(ctx)

	m.mu.Lock()
	if m.generation == token {
		m.loading = false
		if err != nil {
			m.errMsg = err.Error()
		} else {
			m.user = nil
		}
	}
	m.commitLocked()

	if err != nil {
		log.Error("logout failed", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	log.Info("logged out")
	return nil
}

// UpdateProfile changes the display name on the provider and on the profile
// record, then merges it into the session. An empty name changes nothing.
func (m *Manager) UpdateProfile(ctx context.Context, displayName string) error {
	ctx = observability.WithOperation(ctx, "auth.update_profile")
	log := observability.LoggerFromContext(ctx)

	m.mu.Lock()
	if m.user == nil {
		m.errMsg = domain.ErrNotAuthenticated.Error()
		m.commitLocked()
		return domain.ErrNotAuthenticated
	}
	user := *m.user
	gen := m.generation
	m.loading = true
	m.errMsg = ""
	m.commitLocked()

	var err error
	if displayName != "" {
		err = m.updateDisplayName(ctx, &user, displayName)
	}

	m.mu.Lock()
	if err != nil {
		m.errMsg = err.Error()
	} else if displayName != "" && m.user != nil && m.user.ID == user.ID {
		merged := *m.user
		merged.DisplayName = displayName
		m.user = &merged
	}
	if m.generation == gen {
		m.loading = false
	}
	m.commitLocked()

	if err != nil {
		log.Error("profile update failed", "user_id", user.ID, "error", err)
		return err
	}
	return nil
}

func (m *Manager) updateDisplayName(ctx context.Context, user *domain.User, displayName string) error {
	if err := m.idp.UpdateDisplayName(ctx, user.ID, displayName); err != nil {
		return fmt.Errorf("update identity display name: %w", err)
	}

	err := m.profiles.UpdateDisplayName(ctx, user.ID, displayName)
	if errors.Is(err, domain.ErrNotFound) {
		err = m.profiles.SaveProfile(ctx, &domain.Profile{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: displayName,
			Role:        user.Role,
		})
	}
	if err != nil {
		return fmt.Errorf("update profile record: %w", err)
	}
	return nil
}

func (m *Manager) snapshotLocked() State {
	var user *domain.User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return State{
		User:    user,
		Loading: m.loading,
		Error:   m.errMsg,
		Phase:   phaseOf(m.started, m.loading, m.user, m.errMsg),
	}
}

// commitLocked publishes the current state to subscribers. It must be
// called with m.mu held and releases it. A snapshot older than one already
// delivered is dropped.
func (m *Manager) commitLocked() {
	st := m.snapshotLocked()
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	if seq <= m.delivered {
		return
	}
	m.delivered = seq

	for _, fn := range subs {
		fn(st)
	}
}

func (m *Manager) addWaiterLocked() (int, <-chan reconciliation) {
	id := m.nextID
	m.nextID++
	ch := make(chan reconciliation, 1)
	m.waiters[id] = ch
	return id, ch
}

func (m *Manager) removeWaiter(id int) {
	m.mu.Lock()
	delete(m.waiters, id)
	m.mu.Unlock()
}
