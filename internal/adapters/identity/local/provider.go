// Package local is an identity provider backed by a SQL account table and
// a signed session token on disk, so a CLI session survives restarts.
package local

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/heartdx/internal/adapters/identity/notify"
	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

type Provider struct {
	accounts *AccountRepository
	tokens   *TokenStore
	dispatch *notify.Dispatcher

	mu      sync.Mutex
	current *domain.Credential
}

// NewProvider restores the session saved in tokens, if it is still valid.
func NewProvider(ctx context.Context, accounts *AccountRepository, tokens *TokenStore) *Provider {
	p := &Provider{
		accounts: accounts,
		tokens:   tokens,
		dispatch: notify.NewDispatcher(),
	}

	log := observability.LoggerFromContext(ctx)
	uid, err := tokens.Load()
	if err != nil {
		log.Warn("discarding saved session", "error", err)
		_ = tokens.Clear()
		return p
	}
	if uid == "" {
		return p
	}

	acc, err := accounts.GetByID(ctx, uid)
	if err != nil {
		log.Warn("saved session refers to an unknown account", "user_id", uid, "error", err)
		_ = tokens.Clear()
		return p
	}
	p.current = credentialOf(acc)
	return p
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Credential, error) {
	acc, err := p.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return p.signIn(acc)
}

// CreateAccount stores a new account and signs it in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*domain.Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acc := &AccountModel{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
	}
	if err := p.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	return p.signIn(acc)
}

func (p *Provider) DeleteAccount(ctx context.Context, uid domain.UserID) error {
	if err := p.accounts.Delete(ctx, uid); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.UID == uid {
		_ = p.tokens.Clear()
		p.current = nil
		p.dispatch.Broadcast(nil)
	}
	return nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.tokens.Clear(); err != nil {
		return err
	}
	p.current = nil
	p.dispatch.Broadcast(nil)
	return nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, uid domain.UserID, displayName string) error {
	if err := p.accounts.UpdateDisplayName(ctx, uid, displayName); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
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

func (p *Provider) Close() {
	p.dispatch.Close()
}

func (p *Provider) signIn(acc *AccountModel) (*domain.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.tokens.Save(domain.UserID(acc.ID)); err != nil {
		return nil, err
	}
	p.current = credentialOf(acc)
	p.dispatch.Broadcast(p.current)

	cred := *p.current
	return &cred, nil
}

func credentialOf(acc *AccountModel) *domain.Credential {
	return &domain.Credential{
		UID:         domain.UserID(acc.ID),
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
