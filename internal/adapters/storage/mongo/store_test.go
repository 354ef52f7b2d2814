package mongo_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/heartdx/internal/adapters/storage/mongo"
	"github.com/PabloGalante/heartdx/internal/domain"
)

func newTestStore(t *testing.T) *mongo.Store {
	t.Helper()
	uri := os.Getenv("HEARTDX_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HEARTDX_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := mongo.NewStore(ctx, uri, "heartdx_test")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(ctx) })
	return s
}

func TestNewStore_RequiresURI(t *testing.T) {
	if _, err := mongo.NewStore(context.Background(), "", "heartdx"); err == nil {
		t.Fatalf("expected error for empty uri")
	}
}

func TestStore_ProfileLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := domain.UserID(uuid.NewString())

	if _, err := s.GetProfile(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &domain.Profile{ID: id, Email: "m@example.com", Role: domain.RoleDoctor}
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if err := s.CreateProfile(ctx, p); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if p.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned CreatedAt after create")
	}
	created := p.CreatedAt

	p.DisplayName = "Dr M"
	p.CreatedAt = time.Time{}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if !p.CreatedAt.Equal(created) {
		t.Fatalf("expected SaveProfile to keep CreatedAt %v, got %v", created, p.CreatedAt)
	}
	if err := s.UpdateDisplayName(ctx, id, "Dr Mara"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}

	got, err := s.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.DisplayName != "Dr Mara" || got.Role != domain.RoleDoctor {
		t.Fatalf("unexpected profile %+v", got)
	}

	if err := s.UpdateDisplayName(ctx, domain.UserID(uuid.NewString()), "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DiagnosesAndPatients(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := domain.UserID(uuid.NewString())

	first := &domain.DiagnosisRecord{PerformedBy: uid, Result: domain.DiagnosisResult{Label: domain.LabelHealthy}}
	second := &domain.DiagnosisRecord{PerformedBy: uid, Result: domain.DiagnosisResult{Label: domain.LabelModerate}}
	for _, rec := range []*domain.DiagnosisRecord{first, second} {
		if err := s.CreateDiagnosis(ctx, rec); err != nil {
			t.Fatalf("CreateDiagnosis: %v", err)
		}
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Fatalf("expected server-assigned id and timestamp, got %+v", rec)
		}
	}

	list, err := s.ListDiagnosesByPerformer(ctx, uid)
	if err != nil {
		t.Fatalf("ListDiagnosesByPerformer: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}

	p := &domain.Patient{OwnerUID: uid, Name: "Lia", HeightM: 1.7, WeightKg: 60, BMI: 20.8}
	if err := s.CreatePatient(ctx, p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	patients, err := s.ListPatientsByOwner(ctx, uid)
	if err != nil {
		t.Fatalf("ListPatientsByOwner: %v", err)
	}
	if len(patients) != 1 || patients[0].Name != "Lia" || patients[0].OwnerUID != uid {
		t.Fatalf("unexpected patients %+v", patients)
	}

	a := &domain.EmergencyAlert{DiagnosisID: second.ID, UserID: uid, Severity: domain.SeveritySevere}
	if err := s.CreateAlert(ctx, a); err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
}
