package mockserver

import "github.com/PabloGalante/heartdx/internal/domain"

// diagnoseRequest uses pointers so missing fields can be told apart from
// zero values.
type diagnoseRequest struct {
	Age            *int     `json:"age"`
	Sex            *string  `json:"sex"`
	ChestPain      *string  `json:"chestPain"`
	BloodPressure  *int     `json:"bloodPressure"`
	Cholesterol    *int     `json:"cholesterol"`
	FastingBS      *int     `json:"fastingBS"`
	RestECG        *string  `json:"restECG"`
	MaxHeartRate   *int     `json:"maxHeartRate"`
	ExerciseAngina *string  `json:"exerciseAngina"`
	Oldpeak        *float64 `json:"oldpeak"`
	Thallium       *string  `json:"thallium"`
	HeightM        *float64 `json:"height_m"`
	WeightKg       *float64 `json:"weight_kg"`
}

type violations []string

func (v *violations) intRange(p *int, name string, lo, hi int, tooLow, tooHigh string) {
	switch {
	case p == nil:
		*v = append(*v, name+" is required")
	case *p < lo:
		*v = append(*v, tooLow)
	case *p > hi:
		*v = append(*v, tooHigh)
	}
}

func (v *violations) floatRange(p *float64, name string, lo, hi float64, tooLow, tooHigh string) {
	switch {
	case p == nil:
		*v = append(*v, name+" is required")
	case *p < lo:
		*v = append(*v, tooLow)
	case *p > hi:
		*v = append(*v, tooHigh)
	}
}

func (v *violations) oneOf(p *string, name string, allowed []string, msg string) {
	if p == nil || *p == "" {
		*v = append(*v, name+" is required")
		return
	}
	for _, a := range allowed {
		if *p == a {
			return
		}
	}
	*v = append(*v, msg)
}

func (r *diagnoseRequest) validate() violations {
	var v violations
	v.intRange(r.Age, "Age", 1, 120, "Age must be at least 1", "Age must be at most 120")
	v.oneOf(r.Sex, "Sex", []string{"male", "female"}, "Sex must be either 'male' or 'female'")
	v.oneOf(r.ChestPain, "Chest pain type", []string{"typical", "atypical", "non-anginal", "asymptomatic"},
		"Chest pain must be one of: typical, atypical, non-anginal, asymptomatic")
	v.intRange(r.BloodPressure, "Blood pressure", 50, 300,
		"Blood pressure must be at least 50", "Blood pressure must be at most 300")
	v.intRange(r.Cholesterol, "Cholesterol", 100, 600,
		"Cholesterol must be at least 100", "Cholesterol must be at most 600")
	v.intRange(r.FastingBS, "Fasting blood sugar", 0, 1,
		"Fasting blood sugar must be 0 or 1", "Fasting blood sugar must be 0 or 1")
	v.oneOf(r.RestECG, "Resting ECG", []string{"normal", "st-t-abnormality", "left-ventricular-hypertrophy"},
		"Resting ECG must be one of: normal, st-t-abnormality, left-ventricular-hypertrophy")
	v.intRange(r.MaxHeartRate, "Maximum heart rate", 60, 220,
		"Maximum heart rate must be at least 60", "Maximum heart rate must be at most 220")
	v.oneOf(r.ExerciseAngina, "Exercise angina", []string{"yes", "no"}, "Exercise angina must be 'yes' or 'no'")
	v.floatRange(r.Oldpeak, "Oldpeak", 0, 10, "Oldpeak must be at least 0", "Oldpeak must be at most 10")
	v.oneOf(r.Thallium, "Thallium scan", []string{"normal", "fixed-defect", "reversible-defect"},
		"Thallium must be one of: normal, fixed-defect, reversible-defect")
	v.floatRange(r.HeightM, "Height", 0, 3, "Height must be positive", "Height must be at most 3 meters")
	v.floatRange(r.WeightKg, "Weight", 10, 500, "Weight must be at least 10 kg", "Weight must be at most 500 kg")
	return v
}

// input must only be called on a request that passed validate.
func (r *diagnoseRequest) input() domain.SymptomInput {
	return domain.SymptomInput{
		Age:            *r.Age,
		Sex:            *r.Sex,
		ChestPain:      *r.ChestPain,
		BloodPressure:  *r.BloodPressure,
		Cholesterol:    *r.Cholesterol,
		FastingBS:      *r.FastingBS,
		RestECG:        *r.RestECG,
		MaxHeartRate:   *r.MaxHeartRate,
		ExerciseAngina: *r.ExerciseAngina,
		Oldpeak:        *r.Oldpeak,
		Thallium:       *r.Thallium,
		HeightM:        *r.HeightM,
		WeightKg:       *r.WeightKg,
	}
}
