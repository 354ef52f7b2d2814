// Package mockserver is a stand-in for the diagnostic scoring service. It
// serves the same routes and wire format using a fixed rule classifier, so
// the client can run end to end without the real model.
package mockserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

type Server struct {
	now func() time.Time
}

type Option func(*Server)

// WithClock overrides the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(opts ...Option) http.Handler {
	s := &Server{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(withRequestID, withLogging, withCORS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/diagnose", s.handleDiagnose)
		r.Get("/health", s.handleHealth)
		r.Get("/model/info", s.handleModelInfo)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		methodNotAllowed(w)
	})

	return r
}

type diagnoseResponse struct {
	Label        domain.RiskLabel `json:"label"`
	Scores       domain.Scores    `json:"scores"`
	Explanation  string           `json:"explanation"`
	ModelVersion string           `json:"modelVersion"`
	Timestamp    int64            `json:"timestamp"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"modelLoaded"`
	ModelInfo   string `json:"modelInfo"`
	Timestamp   int64  `json:"timestamp"`
}

type modelInfoResponse struct {
	ModelType string `json:"modelType"`
	Status    string `json:"status"`
	Version   string `json:"version"`
}

type errorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(observability.WithOperation(r.Context(), "mockserver.diagnose"))

	var req diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON body", err.Error())
		return
	}
	if v := req.validate(); len(v) > 0 {
		log.Info("rejected diagnose request", "violations", len(v))
		badRequest(w, v[0], strings.Join(v, "; "))
		return
	}

	in := req.input()
	label := classify(in)
	scores := distribution(label)

	log.Info("diagnosis scored", "label", label)

	writeJSON(w, http.StatusOK, diagnoseResponse{
		Label:        label,
		Scores:       scores,
		Explanation:  explain(in, label, scores),
		ModelVersion: ModelVersion,
		Timestamp:    s.now().UnixMilli(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "UP",
		ModelLoaded: true,
		ModelInfo:   modelType,
		Timestamp:   s.now().UnixMilli(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelInfoResponse{
		ModelType: modelType,
		Status:    "loaded",
		Version:   ModelVersion,
	})
}

// HTTP helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg, details string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg, Details: details})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "method not allowed"})
}
