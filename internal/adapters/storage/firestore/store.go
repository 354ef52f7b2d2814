// Package firestore implements the document store ports on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/heartdx/internal/domain"
)

const (
	colUsers       = "users"
	colPatients    = "patients"
	colDiagnoses   = "diagnoses"
	colEmergencies = "emergencies"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for projectID. When
// FIRESTORE_EMULATOR_HOST is set the client talks to the emulator.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

// mapError translates gRPC status codes into domain sentinels, keeping the
// driver error in the chain.
func mapError(op string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: firestore %s: %w", domain.ErrNotFound, op, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: firestore %s: %w", domain.ErrAlreadyExists, op, err)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: firestore %s: %w", domain.ErrPermissionDenied, op, err)
	default:
		return fmt.Errorf("firestore %s: %w", op, err)
	}
}

// collect drains a query iterator, decoding each document with decode.
func collect[T any](it *firestore.DocumentIterator, op string, decode func(*firestore.DocumentSnapshot) (*T, error)) ([]*T, error) {
	defer it.Stop()

	out := []*T{}
	for {
		snap, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, mapError(op, err)
		}

		v, err := decode(snap)
		if err != nil {
			return nil, fmt.Errorf("firestore %s decode %s: %w", op, snap.Ref.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
