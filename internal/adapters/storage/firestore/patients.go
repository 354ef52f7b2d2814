package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type patientDoc struct {
	Name      string    `firestore:"name"`
	Age       int       `firestore:"age"`
	Gender    string    `firestore:"gender"`
	Phone     string    `firestore:"phone"`
	Email     string    `firestore:"email"`
	HeightM   float64   `firestore:"height"`
	WeightKg  float64   `firestore:"weight"`
	BMI       float64   `firestore:"bmi"`
	OwnerUID string    `firestore:"ownerUid"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
}

func (s *Store) CreatePatient(ctx context.Context, p *domain.Patient) error {
	ref := s.col(colPatients).NewDoc()
	wr, err := ref.Create(ctx, patientDoc{
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Email:     p.Email,
		HeightM:   p.HeightM,
		WeightKg:  p.WeightKg,
		BMI:       p.BMI,
		OwnerUID: string(p.OwnerUID),
	})
	if err != nil {
		return mapError("CreatePatient", err)
	}
	p.ID = domain.PatientID(ref.ID)
	p.CreatedAt = wr.UpdateTime
	return nil
}

func (s *Store) ListPatientsByOwner(ctx context.Context, uid domain.UserID) ([]*domain.Patient, error) {
	it := s.col(colPatients).
		Where("ownerUid", "==", string(uid)).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	return collect(it, "ListPatientsByOwner", func(snap *firestore.DocumentSnapshot) (*domain.Patient, error) {
		var doc patientDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		return &domain.Patient{
			ID:        domain.PatientID(snap.Ref.ID),
			OwnerUID:  domain.UserID(doc.OwnerUID),
			Name:      doc.Name,
			Age:       doc.Age,
			Gender:    doc.Gender,
			Phone:     doc.Phone,
			Email:     doc.Email,
			HeightM:   doc.HeightM,
			WeightKg:  doc.WeightKg,
			BMI:       doc.BMI,
			CreatedAt: doc.CreatedAt,
		}, nil
	})
}
