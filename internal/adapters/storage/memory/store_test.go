package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PabloGalante/heartdx/internal/adapters/storage/memory"
	"github.com/PabloGalante/heartdx/internal/domain"
)

func TestProfileStore_CreateRefusesExisting(t *testing.T) {
	ctx := context.Background()
	s := memory.NewProfileStore()

	p := &domain.Profile{ID: "u1", Email: "a@example.com", Role: domain.RolePatient}
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("CreateProfile returned error: %v", err)
	}
	if err := s.CreateProfile(ctx, p); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if err := s.SaveProfile(ctx, &domain.Profile{ID: "u1", Role: domain.RoleDoctor}); err != nil {
		t.Fatalf("SaveProfile returned error: %v", err)
	}
	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if got.Role != domain.RoleDoctor {
		t.Fatalf("expected SaveProfile to overwrite role, got %q", got.Role)
	}

	if _, err := s.GetProfile(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateDisplayName(ctx, "missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestProfileStore_StampsCreationTimeOnFirstWrite(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := memory.NewProfileStoreWithClock(func() time.Time { return at })

	p := &domain.Profile{ID: "u1", Role: domain.RolePatient}
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("CreateProfile returned error: %v", err)
	}
	if !p.CreatedAt.Equal(at) {
		t.Fatalf("expected store-assigned CreatedAt %v, got %v", at, p.CreatedAt)
	}

	saved := &domain.Profile{ID: "u1", Role: domain.RoleDoctor}
	if err := s.SaveProfile(ctx, saved); err != nil {
		t.Fatalf("SaveProfile returned error: %v", err)
	}
	if !saved.CreatedAt.Equal(at) {
		t.Fatalf("expected SaveProfile to keep the first CreatedAt, got %v", saved.CreatedAt)
	}

	fresh := &domain.Profile{ID: "u2", Role: domain.RolePatient}
	if err := s.SaveProfile(ctx, fresh); err != nil {
		t.Fatalf("SaveProfile returned error: %v", err)
	}
	if fresh.CreatedAt.IsZero() {
		t.Fatalf("expected SaveProfile to stamp a new record")
	}
}

func TestDiagnosisStore_AssignsMonotonicTimestampsAndListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := memory.NewDiagnosisStoreWithClock(func() time.Time { return frozen })

	var ids []domain.DiagnosisID
	for i := 0; i < 3; i++ {
		rec := &domain.DiagnosisRecord{PerformedBy: "doc"}
		if err := s.CreateDiagnosis(ctx, rec); err != nil {
			t.Fatalf("CreateDiagnosis returned error: %v", err)
		}
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Fatalf("expected ID and CreatedAt to be assigned, got %+v", rec)
		}
		ids = append(ids, rec.ID)
	}
	_ = s.CreateDiagnosis(ctx, &domain.DiagnosisRecord{PerformedBy: "other"})

	got, err := s.ListDiagnosesByPerformer(ctx, "doc")
	if err != nil {
		t.Fatalf("ListDiagnosesByPerformer returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, want := range []domain.DiagnosisID{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].ID)
		}
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Fatalf("expected strictly increasing server timestamps even with a frozen clock")
	}
}

func TestPatientStore_ScopesByOwner(t *testing.T) {
	ctx := context.Background()
	s := memory.NewPatientStore()

	_ = s.CreatePatient(ctx, &domain.Patient{OwnerUID: "a", Name: "first"})
	_ = s.CreatePatient(ctx, &domain.Patient{OwnerUID: "a", Name: "second"})
	_ = s.CreatePatient(ctx, &domain.Patient{OwnerUID: "b", Name: "other"})

	got, err := s.ListPatientsByOwner(ctx, "a")
	if err != nil {
		t.Fatalf("ListPatientsByOwner returned error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "second" || got[1].Name != "first" {
		t.Fatalf("unexpected patients: %+v", got)
	}
}
