package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

const DefaultModelName = "gemini-2.5-flash-lite"

type VertexExplainer struct {
	client    *genai.Client
	modelName string
}

// NewVertexExplainer creates an Explainer backed by Vertex AI (Gemini).
func NewVertexExplainer(ctx context.Context, projectID, location, modelName string) (*VertexExplainer, error) {
	if projectID == "" || location == "" {
		return nil, errors.New("vertex explainer needs a project and a location")
	}
	if modelName == "" {
		modelName = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexExplainer{
		client:    client,
		modelName: modelName,
	}, nil
}

// Explain implements domain.Explainer using Vertex AI.
func (v *VertexExplainer) Explain(ctx context.Context, in domain.SymptomInput, res domain.DiagnosisResult) (string, error) {
	prompt := BuildPrompt(in, res)

	// Low temperature: explanations should stay close to the input.
	temp := float32(0.2)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   512,
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)}

	out, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := strings.TrimSpace(out.Text())
	if text == "" {
		return "", errors.New("vertex returned empty text")
	}

	observability.LoggerFromContext(ctx).Debug("explanation generated",
		"model", v.modelName,
		"chars", len(text),
	)
	return text, nil
}
