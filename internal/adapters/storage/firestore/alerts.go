package firestore

import (
	"context"
	"time"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type alertDoc struct {
	DiagnosisID  string    `firestore:"diagnosisId"`
	UserID       string    `firestore:"patientId"`
	Severity     string    `firestore:"severity"`
	Acknowledged bool      `firestore:"acknowledged"`
	CreatedAt    time.Time `firestore:"timestamp,serverTimestamp"`
}

func (s *Store) CreateAlert(ctx context.Context, a *domain.EmergencyAlert) error {
	ref := s.col(colEmergencies).NewDoc()
	wr, err := ref.Create(ctx, alertDoc{
		DiagnosisID:  string(a.DiagnosisID),
		UserID:       string(a.UserID),
		Severity:     a.Severity,
		Acknowledged: a.Acknowledged,
	})
	if err != nil {
		return mapError("CreateAlert", err)
	}
	a.ID = domain.AlertID(ref.ID)
	a.CreatedAt = wr.UpdateTime
	return nil
}
