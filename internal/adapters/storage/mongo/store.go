// Package mongo implements the document store ports on MongoDB, as an
// alternative to Firestore for self-hosted deployments.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PabloGalante/heartdx/internal/domain"
)

const (
	colUsers       = "users"
	colPatients    = "patients"
	colDiagnoses   = "diagnoses"
	colEmergencies = "emergencies"

	codeUnauthorized = 13
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to uri and ensures the query indexes exist.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	byOwner := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}, {Key: "createdAt", Value: -1}}}
	}
	if _, err := s.db.Collection(colDiagnoses).Indexes().CreateOne(ctx, byOwner("performedBy")); err != nil {
		return mapError("ensureIndexes", err)
	}
	if _, err := s.db.Collection(colPatients).Indexes().CreateOne(ctx, byOwner("ownerUid")); err != nil {
		return mapError("ensureIndexes", err)
	}
	return nil
}

// mapError translates driver errors into domain sentinels, keeping the
// driver error in the chain.
func mapError(op string, err error) error {
	var se mongo.ServerError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: mongo %s: %w", domain.ErrNotFound, op, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: mongo %s: %w", domain.ErrAlreadyExists, op, err)
	case errors.As(err, &se) && se.HasErrorCode(codeUnauthorized):
		return fmt.Errorf("%w: mongo %s: %w", domain.ErrPermissionDenied, op, err)
	default:
		return fmt.Errorf("mongo %s: %w", op, err)
	}
}

// insertStamped inserts doc under a fresh ObjectID with a server-assigned
// createdAt, and returns the stored id and timestamp.
func (s *Store) insertStamped(ctx context.Context, col string, doc any) (string, time.Time, error) {
	id := primitive.NewObjectID()
	res := s.db.Collection(col).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$setOnInsert": doc,
			"$currentDate": bson.M{"createdAt": true},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var stamped struct {
		CreatedAt time.Time `bson:"createdAt"`
	}
	if err := res.Decode(&stamped); err != nil {
		return "", time.Time{}, err
	}
	return id.Hex(), stamped.CreatedAt, nil
}

// upsertStamped sets fields on the document with the given id, creating it
// when missing. createdAt is set to the server time only if it is absent.
func (s *Store) upsertStamped(ctx context.Context, col, id string, fields bson.D) (time.Time, error) {
	set := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Key, Value: bson.M{"$literal": f.Value}})
	}
	set = append(set, bson.E{Key: "createdAt", Value: bson.M{"$ifNull": bson.A{"$createdAt", "$$NOW"}}})

	res := s.db.Collection(col).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var stamped struct {
		CreatedAt time.Time `bson:"createdAt"`
	}
	if err := res.Decode(&stamped); err != nil {
		return time.Time{}, err
	}
	return stamped.CreatedAt, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M) ([]T, error) {
	cur, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
