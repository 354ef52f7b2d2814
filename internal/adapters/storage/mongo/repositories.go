package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/PabloGalante/heartdx/internal/domain"
)

// Profiles

func (s *Store) GetProfile(ctx context.Context, id domain.UserID) (*domain.Profile, error) {
	var doc profileDoc
	if err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapError("GetProfile", err)
	}
	return &domain.Profile{
		ID:          id,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		Role:        domain.ParseRole(doc.Role),
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func toProfileDoc(p *domain.Profile) profileDoc {
	return profileDoc{
		ID:          string(p.ID),
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		CreatedAt:   p.CreatedAt,
	}
}

// CreateProfile relies on the unique _id: a second insert is a duplicate
// key error, reported as domain.ErrAlreadyExists. A zero CreatedAt is then
// stamped by the server.
func (s *Store) CreateProfile(ctx context.Context, p *domain.Profile) error {
	doc := toProfileDoc(p)
	if _, err := s.db.Collection(colUsers).InsertOne(ctx, doc); err != nil {
		return mapError("CreateProfile", err)
	}
	createdAt, err := s.upsertStamped(ctx, colUsers, doc.ID, nil)
	if err != nil {
		return mapError("CreateProfile", err)
	}
	p.CreatedAt = createdAt
	return nil
}

// SaveProfile upserts the record. createdAt is assigned by the server when
// the record is first written and left alone afterwards.
func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	createdAt, err := s.upsertStamped(ctx, colUsers, string(p.ID), bson.D{
		{Key: "email", Value: p.Email},
		{Key: "displayName", Value: p.DisplayName},
		{Key: "role", Value: string(p.Role)},
	})
	if err != nil {
		return mapError("SaveProfile", err)
	}
	p.CreatedAt = createdAt
	return nil
}

func (s *Store) UpdateDisplayName(ctx context.Context, id domain.UserID, displayName string) error {
	res, err := s.db.Collection(colUsers).UpdateOne(ctx,
		bson.M{"_id": string(id)},
		bson.M{"$set": bson.M{"displayName": displayName}},
	)
	if err != nil {
		return mapError("UpdateDisplayName", err)
	}
	if res.MatchedCount == 0 {
		return mapError("UpdateDisplayName", mongo.ErrNoDocuments)
	}
	return nil
}

// Diagnoses

func (s *Store) CreateDiagnosis(ctx context.Context, rec *domain.DiagnosisRecord) error {
	id, createdAt, err := s.insertStamped(ctx, colDiagnoses, toDiagnosisDoc(rec))
	if err != nil {
		return mapError("CreateDiagnosis", err)
	}
	rec.ID = domain.DiagnosisID(id)
	rec.CreatedAt = createdAt
	return nil
}

func (s *Store) ListDiagnosesByPerformer(ctx context.Context, uid domain.UserID) ([]*domain.DiagnosisRecord, error) {
	docs, err := findAll[storedDiagnosis](ctx, s.db.Collection(colDiagnoses), bson.M{"performedBy": string(uid)})
	if err != nil {
		return nil, mapError("ListDiagnosesByPerformer", err)
	}
	out := make([]*domain.DiagnosisRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Patients

func (s *Store) CreatePatient(ctx context.Context, p *domain.Patient) error {
	id, createdAt, err := s.insertStamped(ctx, colPatients, patientDoc{
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Email:     p.Email,
		HeightM:   p.HeightM,
		WeightKg:  p.WeightKg,
		BMI:       p.BMI,
		OwnerUID:  string(p.OwnerUID),
	})
	if err != nil {
		return mapError("CreatePatient", err)
	}
	p.ID = domain.PatientID(id)
	p.CreatedAt = createdAt
	return nil
}

func (s *Store) ListPatientsByOwner(ctx context.Context, uid domain.UserID) ([]*domain.Patient, error) {
	docs, err := findAll[storedPatient](ctx, s.db.Collection(colPatients), bson.M{"ownerUid": string(uid)})
	if err != nil {
		return nil, mapError("ListPatientsByOwner", err)
	}
	out := make([]*domain.Patient, 0, len(docs))
	for _, p := range docs {
		out = append(out, p.toDomain())
	}
	return out, nil
}

// Alerts

func (s *Store) CreateAlert(ctx context.Context, a *domain.EmergencyAlert) error {
	id, createdAt, err := s.insertStamped(ctx, colEmergencies, alertDoc{
		DiagnosisID:  string(a.DiagnosisID),
		UserID:       string(a.UserID),
		Severity:     a.Severity,
		Acknowledged: a.Acknowledged,
	})
	if err != nil {
		return mapError("CreateAlert", err)
	}
	a.ID = domain.AlertID(id)
	a.CreatedAt = createdAt
	return nil
}
