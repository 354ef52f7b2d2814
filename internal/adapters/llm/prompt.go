package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/heartdx/internal/domain"
)

const systemPrompt = `
You explain heart-disease risk screening results to clinicians and patients.

Rules:
- You are NOT a doctor. Never present the result as a diagnosis.
- Be concise: 2 to 4 sentences, plain language, no markdown.
- Mention the clinical factors in the input that most plausibly drove the result.
- For a "Severe Risk" result, recommend prompt contact with a medical professional.
- Do not invent measurements that are not in the input.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildPrompt describes the scored input and the model's verdict.
func BuildPrompt(in domain.SymptomInput, res domain.DiagnosisResult) Prompt {
	var b strings.Builder
	b.WriteString("Patient input:\n")
	fmt.Fprintf(&b, "- age: %d\n", in.Age)
	fmt.Fprintf(&b, "- sex: %s\n", in.Sex)
	fmt.Fprintf(&b, "- chest pain type: %s\n", in.ChestPain)
	fmt.Fprintf(&b, "- resting blood pressure: %d mmHg\n", in.BloodPressure)
	fmt.Fprintf(&b, "- cholesterol: %d mg/dL\n", in.Cholesterol)
	fmt.Fprintf(&b, "- fasting blood sugar > 120 mg/dL: %t\n", in.FastingBS == 1)
	fmt.Fprintf(&b, "- resting ECG: %s\n", in.RestECG)
	fmt.Fprintf(&b, "- max heart rate: %d bpm\n", in.MaxHeartRate)
	fmt.Fprintf(&b, "- exercise angina: %s\n", in.ExerciseAngina)
	fmt.Fprintf(&b, "- ST depression (oldpeak): %.1f\n", in.Oldpeak)
	fmt.Fprintf(&b, "- thallium scan: %s\n", in.Thallium)
	if in.HeightM > 0 && in.WeightKg > 0 {
		fmt.Fprintf(&b, "- BMI: %.1f\n", domain.ComputeBMI(in.HeightM, in.WeightKg))
	}

	b.WriteString("\nModel result:\n")
	fmt.Fprintf(&b, "- label: %s\n", res.Label)
	fmt.Fprintf(&b, "- confidence: %.1f%%\n", res.Scores.Of(res.Label)*100)
	b.WriteString("\nExplain this result.")

	return Prompt{
		System: systemPrompt,
		User:   b.String(),
	}
}
