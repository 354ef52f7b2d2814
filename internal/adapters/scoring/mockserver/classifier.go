package mockserver

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/heartdx/internal/domain"
)

const (
	ModelVersion = "v1.0"
	modelType    = "MockClassifier (v1.0)"

	predictedConfidence = 0.85
)

// classify is a fixed decision table over age, cholesterol, blood pressure
// and max heart rate.
func classify(in domain.SymptomInput) domain.RiskLabel {
	if in.Age <= 50 {
		switch {
		case in.Cholesterol <= 200:
			return domain.LabelHealthy
		case in.BloodPressure <= 130:
			return domain.LabelModerate
		default:
			return domain.LabelSevere
		}
	}
	if in.MaxHeartRate <= 130 {
		return domain.LabelSevere
	}
	return domain.LabelModerate
}

// distribution gives the predicted label 0.85 and splits the rest evenly.
func distribution(label domain.RiskLabel) domain.Scores {
	rest := (1 - predictedConfidence) / 2
	s := domain.Scores{Healthy: rest, Moderate: rest, Severe: rest}
	switch label {
	case domain.LabelHealthy:
		s.Healthy = predictedConfidence
	case domain.LabelModerate:
		s.Moderate = predictedConfidence
	case domain.LabelSevere:
		s.Severe = predictedConfidence
	}
	return s
}

func riskFactors(in domain.SymptomInput) []string {
	var factors []string
	if in.Age > 65 {
		factors = append(factors, "age over 65")
	}
	if in.BloodPressure > 140 {
		factors = append(factors, "high blood pressure")
	}
	if in.Cholesterol > 240 {
		factors = append(factors, "high cholesterol")
	}
	if in.FastingBS == 1 {
		factors = append(factors, "elevated blood sugar")
	}
	if in.ExerciseAngina == "yes" {
		factors = append(factors, "exercise-induced angina")
	}
	if in.Oldpeak > 2.0 {
		factors = append(factors, "significant ST depression")
	}
	if in.Thallium == "fixed-defect" || in.Thallium == "reversible-defect" {
		factors = append(factors, "thallium scan abnormalities")
	}
	return factors
}

func explain(in domain.SymptomInput, label domain.RiskLabel, scores domain.Scores) string {
	var b strings.Builder
	b.WriteString("Based on your symptoms: ")
	if factors := riskFactors(in); len(factors) > 0 {
		b.WriteString("Key risk factors identified: ")
		b.WriteString(strings.Join(factors, ", "))
	} else {
		b.WriteString("No major risk factors identified")
	}
	fmt.Fprintf(&b, ". Confidence: %.1f%%", scores.Of(label)*100)
	return b.String()
}
