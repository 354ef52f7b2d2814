package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type PatientStore struct {
	mu      sync.RWMutex
	clock   *serverClock
	byOwner map[domain.UserID][]domain.Patient
}

func NewPatientStore() *PatientStore {
	return &PatientStore{
		clock:   newServerClock(time.Now),
		byOwner: make(map[domain.UserID][]domain.Patient),
	}
}

func (s *PatientStore) CreatePatient(_ context.Context, p *domain.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = domain.PatientID(uuid.NewString())
	p.CreatedAt = s.clock.stamp()
	s.byOwner[p.OwnerUID] = append(s.byOwner[p.OwnerUID], *p)
	return nil
}

// ListPatientsByOwner returns newest first.
func (s *PatientStore) ListPatientsByOwner(_ context.Context, uid domain.UserID) ([]*domain.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps := s.byOwner[uid]
	out := make([]*domain.Patient, 0, len(ps))
	for i := len(ps) - 1; i >= 0; i-- {
		p := ps[i]
		out = append(out, &p)
	}
	return out, nil
}
