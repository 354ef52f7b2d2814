package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type profileDoc struct {
	Email       string    `firestore:"email"`
	DisplayName string    `firestore:"displayName"`
	Role        string    `firestore:"role"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
}

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.col(colUsers).Doc(string(id))
}

func toProfileDoc(p *domain.Profile) profileDoc {
	return profileDoc{
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		CreatedAt:   p.CreatedAt,
	}
}

func (s *Store) GetProfile(ctx context.Context, id domain.UserID) (*domain.Profile, error) {
	snap, err := s.userDoc(id).Get(ctx)
	if err != nil {
		return nil, mapError("GetProfile", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return &domain.Profile{
		ID:          id,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		Role:        domain.ParseRole(doc.Role),
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// CreateProfile fails with domain.ErrAlreadyExists when the document is
// already there. A zero CreatedAt is filled with the server time.
func (s *Store) CreateProfile(ctx context.Context, p *domain.Profile) error {
	wr, err := s.userDoc(p.ID).Create(ctx, toProfileDoc(p))
	if err != nil {
		return mapError("CreateProfile", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = wr.UpdateTime
	}
	return nil
}

func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	wr, err := s.userDoc(p.ID).Set(ctx, toProfileDoc(p))
	if err != nil {
		return mapError("SaveProfile", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = wr.UpdateTime
	}
	return nil
}

func (s *Store) UpdateDisplayName(ctx context.Context, id domain.UserID, displayName string) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "displayName", Value: displayName},
	})
	if err != nil {
		return mapError("UpdateDisplayName", err)
	}
	return nil
}
