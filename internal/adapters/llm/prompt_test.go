package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/PabloGalante/heartdx/internal/adapters/llm"
	"github.com/PabloGalante/heartdx/internal/domain"
)

func sample() (domain.SymptomInput, domain.DiagnosisResult) {
	in := domain.SymptomInput{
		Age: 62, Sex: "female", ChestPain: "asymptomatic", BloodPressure: 150,
		Cholesterol: 260, FastingBS: 1, RestECG: "normal", MaxHeartRate: 120,
		ExerciseAngina: "yes", Oldpeak: 2.5, Thallium: "fixed-defect",
		HeightM: 1.6, WeightKg: 64,
	}
	res := domain.DiagnosisResult{
		Label:  domain.LabelSevere,
		Scores: domain.Scores{Healthy: 0.075, Moderate: 0.075, Severe: 0.85},
	}
	return in, res
}

func TestBuildPrompt_IncludesInputAndResult(t *testing.T) {
	in, res := sample()

	p := llm.BuildPrompt(in, res)

	if !strings.Contains(p.System, "NOT a doctor") {
		t.Fatalf("system prompt missing safety rule")
	}
	for _, want := range []string{"age: 62", "cholesterol: 260", "BMI: 25.0", "label: Severe Risk", "confidence: 85.0%"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, p.User)
		}
	}
}

func TestBuildPrompt_OmitsBMIWithoutBodyMeasures(t *testing.T) {
	in, res := sample()
	in.HeightM = 0

	p := llm.BuildPrompt(in, res)

	if strings.Contains(p.User, "BMI") {
		t.Fatalf("did not expect BMI line:\n%s", p.User)
	}
}

func TestMockExplainer(t *testing.T) {
	in, res := sample()

	text, err := llm.NewMockExplainer().Explain(context.Background(), in, res)
	if err != nil {
		t.Fatalf("Explain returned error: %v", err)
	}
	if !strings.Contains(text, "Severe Risk") || !strings.Contains(text, "85%") {
		t.Fatalf("unexpected explanation %q", text)
	}
}
