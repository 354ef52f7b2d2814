package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/heartdx/internal/domain"
)

// DiagnosisStore is an in-memory domain.DiagnosisStore. It is not
// persistent and is only suitable for local mode and tests.
type DiagnosisStore struct {
	mu          sync.RWMutex
	clock       *serverClock
	records     map[domain.DiagnosisID]domain.DiagnosisRecord
	byPerformer map[domain.UserID][]domain.DiagnosisID
}

func NewDiagnosisStore() *DiagnosisStore {
	return NewDiagnosisStoreWithClock(time.Now)
}

func NewDiagnosisStoreWithClock(now func() time.Time) *DiagnosisStore {
	return &DiagnosisStore{
		clock:       newServerClock(now),
		records:     make(map[domain.DiagnosisID]domain.DiagnosisRecord),
		byPerformer: make(map[domain.UserID][]domain.DiagnosisID),
	}
}

// CreateDiagnosis assigns the record's ID and CreatedAt.
func (s *DiagnosisStore) CreateDiagnosis(_ context.Context, rec *domain.DiagnosisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = domain.DiagnosisID(uuid.NewString())
	rec.CreatedAt = s.clock.stamp()

	s.records[rec.ID] = *rec
	s.byPerformer[rec.PerformedBy] = append(s.byPerformer[rec.PerformedBy], rec.ID)
	return nil
}

// ListDiagnosesByPerformer returns newest first.
func (s *DiagnosisStore) ListDiagnosesByPerformer(_ context.Context, uid domain.UserID) ([]*domain.DiagnosisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byPerformer[uid]
	out := make([]*domain.DiagnosisRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if r, ok := s.records[ids[i]]; ok {
			out = append(out, &r)
		}
	}
	return out, nil
}
