package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/heartdx/internal/domain"
)

// MockExplainer builds a fixed explanation without calling a model.
type MockExplainer struct{}

func NewMockExplainer() *MockExplainer {
	return &MockExplainer{}
}

func (m *MockExplainer) Explain(_ context.Context, in domain.SymptomInput, res domain.DiagnosisResult) (string, error) {
	return fmt.Sprintf("The model rated this %d year old %s as %s with %.0f%% confidence.",
		in.Age, in.Sex, res.Label, res.Scores.Of(res.Label)*100), nil
}
