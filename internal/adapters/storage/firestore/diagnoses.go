package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/PabloGalante/heartdx/internal/domain"
)

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type symptomDoc struct {
	Age            int     `firestore:"age"`
	Sex            string  `firestore:"sex"`
	ChestPain      string  `firestore:"chestPain"`
	BloodPressure  int     `firestore:"bloodPressure"`
	Cholesterol    int     `firestore:"cholesterol"`
	FastingBS      int     `firestore:"fastingBS"`
	RestECG        string  `firestore:"restECG"`
	MaxHeartRate   int     `firestore:"maxHeartRate"`
	ExerciseAngina string  `firestore:"exerciseAngina"`
	Oldpeak        float64 `firestore:"oldpeak"`
	Thallium       string  `firestore:"thallium"`
	HeightM        float64 `firestore:"height_m"`
	WeightKg       float64 `firestore:"weight_kg"`
}

type scoresDoc struct {
	Healthy  float64 `firestore:"Healthy"`
	Moderate float64 `firestore:"Moderate Risk"`
	Severe   float64 `firestore:"Severe Risk"`
}

type resultDoc struct {
	Label        string    `firestore:"label"`
	Scores       scoresDoc `firestore:"scores"`
	Explanation  string    `firestore:"explanation"`
	ModelVersion string    `firestore:"modelVersion"`
	Timestamp    time.Time `firestore:"timestamp"`
}

type diagnosisDoc struct {
	PatientID   string     `firestore:"patientId"`
	Input       symptomDoc `firestore:"inputPayload"`
	Result      resultDoc  `firestore:"modelResult"`
	PerformedBy string     `firestore:"performedBy"`
	CreatedAt   time.Time  `firestore:"createdAt,serverTimestamp"`
}

func toDiagnosisDoc(rec *domain.DiagnosisRecord) diagnosisDoc {
	in, res := rec.Input, rec.Result
	return diagnosisDoc{
		PatientID: string(rec.PatientID),
		Input: symptomDoc{
			Age:            in.Age,
			Sex:            in.Sex,
			ChestPain:      in.ChestPain,
			BloodPressure:  in.BloodPressure,
			Cholesterol:    in.Cholesterol,
			FastingBS:      in.FastingBS,
			RestECG:        in.RestECG,
			MaxHeartRate:   in.MaxHeartRate,
			ExerciseAngina: in.ExerciseAngina,
			Oldpeak:        in.Oldpeak,
			Thallium:       in.Thallium,
			HeightM:        in.HeightM,
			WeightKg:       in.WeightKg,
		},
		Result: resultDoc{
			Label:        string(res.Label),
			Scores:       scoresDoc(res.Scores),
			Explanation:  res.Explanation,
			ModelVersion: res.ModelVersion,
			Timestamp:    res.Timestamp,
		},
		PerformedBy: string(rec.PerformedBy),
	}
}

func (d diagnosisDoc) toDomain(id string) *domain.DiagnosisRecord {
	return &domain.DiagnosisRecord{
		ID:        domain.DiagnosisID(id),
		PatientID: domain.PatientID(d.PatientID),
		Input: domain.SymptomInput{
			Age:            d.Input.Age,
			Sex:            d.Input.Sex,
			ChestPain:      d.Input.ChestPain,
			BloodPressure:  d.Input.BloodPressure,
			Cholesterol:    d.Input.Cholesterol,
			FastingBS:      d.Input.FastingBS,
			RestECG:        d.Input.RestECG,
			MaxHeartRate:   d.Input.MaxHeartRate,
			ExerciseAngina: d.Input.ExerciseAngina,
			Oldpeak:        d.Input.Oldpeak,
			Thallium:       d.Input.Thallium,
			HeightM:        d.Input.HeightM,
			WeightKg:       d.Input.WeightKg,
		},
		Result: domain.DiagnosisResult{
			Label:        domain.RiskLabel(d.Result.Label),
			Scores:       domain.Scores(d.Result.Scores),
			Explanation:  d.Result.Explanation,
			ModelVersion: d.Result.ModelVersion,
			Timestamp:    d.Result.Timestamp,
		},
		PerformedBy: domain.UserID(d.PerformedBy),
		CreatedAt:   d.CreatedAt,
	}
}

// CreateDiagnosis adds a document with a generated id and a server
// timestamp, and copies both back onto rec.
func (s *Store) CreateDiagnosis(ctx context.Context, rec *domain.DiagnosisRecord) error {
	ref := s.col(colDiagnoses).NewDoc()
	wr, err := ref.Create(ctx, toDiagnosisDoc(rec))
	if err != nil {
		return mapError("CreateDiagnosis", err)
	}
	rec.ID = domain.DiagnosisID(ref.ID)
	rec.CreatedAt = wr.UpdateTime
	return nil
}

func (s *Store) ListDiagnosesByPerformer(ctx context.Context, uid domain.UserID) ([]*domain.DiagnosisRecord, error) {
	it := s.col(colDiagnoses).
		Where("performedBy", "==", string(uid)).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	return collect(it, "ListDiagnosesByPerformer", func(snap *firestore.DocumentSnapshot) (*domain.DiagnosisRecord, error) {
		var doc diagnosisDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		return doc.toDomain(snap.Ref.ID), nil
	})
}
