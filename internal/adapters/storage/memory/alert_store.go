package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type AlertStore struct {
	mu     sync.RWMutex
	clock  *serverClock
	alerts []domain.EmergencyAlert
}

func NewAlertStore() *AlertStore {
	return &AlertStore{clock: newServerClock(time.Now)}
}

func (s *AlertStore) CreateAlert(_ context.Context, a *domain.EmergencyAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = domain.AlertID(uuid.NewString())
	a.CreatedAt = s.clock.stamp()
	s.alerts = append(s.alerts, *a)
	return nil
}

// Alerts returns a copy of every stored alert, oldest first.
func (s *AlertStore) Alerts() []domain.EmergencyAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EmergencyAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}
