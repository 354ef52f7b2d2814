package memory

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/heartdx/internal/domain"
)

// ProfileStore keeps profile records in memory. A zero CreatedAt is assigned
// by the store on the first write of a record and kept by later saves.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]domain.Profile
	clock    *serverClock
}

func NewProfileStore() *ProfileStore {
	return NewProfileStoreWithClock(time.Now)
}

func NewProfileStoreWithClock(now func() time.Time) *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.UserID]domain.Profile),
		clock:    newServerClock(now),
	}
}

func (s *ProfileStore) GetProfile(_ context.Context, id domain.UserID) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *ProfileStore) CreateProfile(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return domain.ErrAlreadyExists
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock.stamp()
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *ProfileStore) SaveProfile(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		if prev, ok := s.profiles[p.ID]; ok {
			p.CreatedAt = prev.CreatedAt
		} else {
			p.CreatedAt = s.clock.stamp()
		}
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *ProfileStore) UpdateDisplayName(_ context.Context, id domain.UserID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.DisplayName = displayName
	s.profiles[id] = p
	return nil
}
