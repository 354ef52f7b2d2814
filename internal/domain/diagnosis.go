package domain

// RiskLabel is the class predicted by the scoring service.
type RiskLabel string

const (
	LabelHealthy  RiskLabel = "Healthy"
	LabelModerate RiskLabel = "Moderate Risk"
	LabelSevere   RiskLabel = "Severe Risk"
)

// SymptomInput is the clinical feature vector sent to the scoring service.
// Categorical fields carry the service's wire vocabulary as-is.
type SymptomInput struct {
	Age            int     `json:"age"`
	Sex            string  `json:"sex"`       // male | female
	ChestPain      string  `json:"chestPain"` // typical | atypical | non-anginal | asymptomatic
	BloodPressure  int     `json:"bloodPressure"`
	Cholesterol    int     `json:"cholesterol"`
	FastingBS      int     `json:"fastingBS"` // 0 or 1
	RestECG        string  `json:"restECG"`   // normal | st-t-abnormality | left-ventricular-hypertrophy
	MaxHeartRate   int     `json:"maxHeartRate"`
	ExerciseAngina string  `json:"exerciseAngina"` // yes | no
	Oldpeak        float64 `json:"oldpeak"`
	Thallium       string  `json:"thallium"` // normal | fixed-defect | reversible-defect
	HeightM        float64 `json:"height_m"`
	WeightKg       float64 `json:"weight_kg"`
}

// Scores is the probability-like distribution over the three labels.
type Scores struct {
	Healthy  float64 `json:"Healthy"`
	Moderate float64 `json:"Moderate Risk"`
	Severe   float64 `json:"Severe Risk"`
}

// Of returns the score assigned to label.
func (s Scores) Of(label RiskLabel) float64 {
	switch label {
	case LabelHealthy:
		return s.Healthy
	case LabelModerate:
		return s.Moderate
	case LabelSevere:
		return s.Severe
	}
	return 0
}

// DiagnosisResult is the scoring output. Timestamp is stamped locally on
// receipt; whatever the service sends is discarded.
type DiagnosisResult struct {
	Label        RiskLabel `json:"label"`
	Scores       Scores    `json:"scores"`
	Explanation  string    `json:"explanation,omitempty"`
	ModelVersion string    `json:"modelVersion"`
	Timestamp    Timestamp `json:"timestamp"`
}

// DiagnosisRecord is the append-only log entry stored in "diagnoses".
type DiagnosisRecord struct {
	ID          DiagnosisID
	PatientID   PatientID // deferred linking, may be empty
	Input       SymptomInput
	Result      DiagnosisResult
	PerformedBy UserID
	CreatedAt   Timestamp // assigned by the store
}

const SeveritySevere = "severe"

// EmergencyAlert flags a Severe Risk diagnosis for downstream attention.
type EmergencyAlert struct {
	ID           AlertID
	DiagnosisID  DiagnosisID
	UserID       UserID
	Severity     string
	Acknowledged bool
	CreatedAt    Timestamp
}
