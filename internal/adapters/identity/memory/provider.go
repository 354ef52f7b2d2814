package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/heartdx/internal/adapters/identity/notify"
	"github.com/PabloGalante/heartdx/internal/domain"
)

type account struct {
	uid          domain.UserID
	email        string
	displayName  string
	passwordHash []byte
}

// Provider is an in-process identity provider. Accounts live only as long
// as the process; it is meant for local runs and tests.
type Provider struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	byID     map[domain.UserID]*account
	current  *domain.Credential
	dispatch *notify.Dispatcher
	cost     int
}

func NewProvider() *Provider {
	return &Provider{
		byEmail:  make(map[string]*account),
		byID:     make(map[domain.UserID]*account),
		dispatch: notify.NewDispatcher(),
		cost:     bcrypt.MinCost,
	}
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*domain.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	p.signInLocked(acc)
	cred := *p.current
	return &cred, nil
}

// CreateAccount registers a new account and signs it in.
func (p *Provider) CreateAccount(_ context.Context, email, password string) (*domain.Credential, error) {
	email = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return nil, domain.ErrEmailInUse
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, err
	}

	acc := &account{
		uid:          domain.UserID(uuid.NewString()),
		email:        email,
		passwordHash: hash,
	}
	p.byEmail[email] = acc
	p.byID[acc.uid] = acc

	p.signInLocked(acc)
	cred := *p.current
	return &cred, nil
}

func (p *Provider) DeleteAccount(_ context.Context, uid domain.UserID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.byID[uid]
	if !ok {
		return domain.ErrNotFound
	}
	delete(p.byID, uid)
	delete(p.byEmail, acc.email)

	if p.current != nil && p.current.UID == uid {
		p.current = nil
		p.dispatch.Broadcast(nil)
	}
	return nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = nil
	p.dispatch.Broadcast(nil)
	return nil
}

// UpdateDisplayName changes the account's display name. Like a hosted
// provider it does not emit a session notification.
func (p *Provider) UpdateDisplayName(_ context.Context, uid domain.UserID, displayName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.byID[uid]
	if !ok {
		return domain.ErrNotFound
	}
	acc.displayName = displayName
	if p.current != nil && p.current.UID == uid {
		p.current.DisplayName = displayName
	}
	return nil
}

func (p *Provider) OnSessionChange(listener domain.SessionListener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatch.Subscribe(listener, p.current)
}

// Close stops notification delivery.
func (p *Provider) Close() {
	p.dispatch.Close()
}

func (p *Provider) signInLocked(acc *account) {
	p.current = &domain.Credential{
		UID:         acc.uid,
		Email:       acc.email,
		DisplayName: acc.displayName,
	}
	p.dispatch.Broadcast(p.current)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
