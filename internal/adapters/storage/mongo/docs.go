package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/PabloGalante/heartdx/internal/domain"
)

type profileDoc struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"displayName"`
	Role        string    `bson:"role"`
	CreatedAt   time.Time `bson:"createdAt,omitempty"`
}

type symptomDoc struct {
	Age            int     `bson:"age"`
	Sex            string  `bson:"sex"`
	ChestPain      string  `bson:"chestPain"`
	BloodPressure  int     `bson:"bloodPressure"`
	Cholesterol    int     `bson:"cholesterol"`
	FastingBS      int     `bson:"fastingBS"`
	RestECG        string  `bson:"restECG"`
	MaxHeartRate   int     `bson:"maxHeartRate"`
	ExerciseAngina string  `bson:"exerciseAngina"`
	Oldpeak        float64 `bson:"oldpeak"`
	Thallium       string  `bson:"thallium"`
	HeightM        float64 `bson:"height_m"`
	WeightKg       float64 `bson:"weight_kg"`
}

type scoresDoc struct {
	Healthy  float64 `bson:"healthy"`
	Moderate float64 `bson:"moderate"`
	Severe   float64 `bson:"severe"`
}

type resultDoc struct {
	Label        string    `bson:"label"`
	Scores       scoresDoc `bson:"scores"`
	Explanation  string    `bson:"explanation"`
	ModelVersion string    `bson:"modelVersion"`
	Timestamp    time.Time `bson:"timestamp"`
}

// diagnosisDoc is written without createdAt; the server sets it.
type diagnosisDoc struct {
	PatientID   string     `bson:"patientId"`
	Input       symptomDoc `bson:"inputPayload"`
	Result      resultDoc  `bson:"modelResult"`
	PerformedBy string     `bson:"performedBy"`
}

type storedDiagnosis struct {
	ID        primitive.ObjectID `bson:"_id"`
	Doc       diagnosisDoc       `bson:",inline"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type patientDoc struct {
	Name      string  `bson:"name"`
	Age       int     `bson:"age"`
	Gender    string  `bson:"gender"`
	Phone     string  `bson:"phone"`
	Email     string  `bson:"email"`
	HeightM   float64 `bson:"height"`
	WeightKg  float64 `bson:"weight"`
	BMI       float64 `bson:"bmi"`
	OwnerUID  string  `bson:"ownerUid"`
}

type storedPatient struct {
	ID        primitive.ObjectID `bson:"_id"`
	Doc       patientDoc         `bson:",inline"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type alertDoc struct {
	DiagnosisID  string `bson:"diagnosisId"`
	UserID       string `bson:"patientId"`
	Severity     string `bson:"severity"`
	Acknowledged bool   `bson:"acknowledged"`
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

func (s storedDiagnosis) toDomain() *domain.DiagnosisRecord {
	d, in := s.Doc, s.Doc.Input
	return &domain.DiagnosisRecord{
		ID:        domain.DiagnosisID(s.ID.Hex()),
		PatientID: domain.PatientID(d.PatientID),
		Input: domain.SymptomInput{
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
		Result: domain.DiagnosisResult{
			Label:        domain.RiskLabel(d.Result.Label),
			Scores:       domain.Scores(d.Result.Scores),
			Explanation:  d.Result.Explanation,
			ModelVersion: d.Result.ModelVersion,
			Timestamp:    d.Result.Timestamp,
		},
		PerformedBy: domain.UserID(d.PerformedBy),
		CreatedAt:   s.CreatedAt,
	}
}

func (s storedPatient) toDomain() *domain.Patient {
	p := s.Doc
	return &domain.Patient{
		ID:        domain.PatientID(s.ID.Hex()),
		OwnerUID:  domain.UserID(p.OwnerUID),
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Phone:     p.Phone,
		Email:     p.Email,
		HeightM:   p.HeightM,
		WeightKg:  p.WeightKg,
		BMI:       p.BMI,
		CreatedAt: s.CreatedAt,
	}
}
