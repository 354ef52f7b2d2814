package diagnosis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PabloGalante/heartdx/internal/app/events"
	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

// SessionSource reports the live session, if any.
type SessionSource interface {
	CurrentUser() *domain.User
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

type Option func(*Service)

// WithExplainer enables explanation enrichment for results that arrive
// without one.
func WithExplainer(e domain.Explainer) Option {
	return func(s *Service) { s.explainer = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	scorer    domain.Scorer
	sessions  SessionSource
	diagnoses domain.DiagnosisStore
	patients  domain.PatientStore
	alerts    domain.AlertStore
	publisher Publisher
	explainer domain.Explainer
	now       func() time.Time

	mu          sync.RWMutex
	inFlight    int
	errMsg      string
	history     []*domain.DiagnosisRecord
	patientList []*domain.Patient
}

func NewService(
	scorer domain.Scorer,
	sessions SessionSource,
	diagnoses domain.DiagnosisStore,
	patients domain.PatientStore,
	alerts domain.AlertStore,
	publisher Publisher,
	opts ...Option,
) *Service {
	s := &Service{
		scorer:    scorer,
		sessions:  sessions,
		diagnoses: diagnoses,
		patients:  patients,
		alerts:    alerts,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitDiagnosis scores input and, when a session is live, records the
// result and raises an emergency alert for Severe Risk. Without a session
// the result is returned but nothing is persisted.
func (s *Service) SubmitDiagnosis(ctx context.Context, input domain.SymptomInput) (*domain.DiagnosisResult, error) {
	ctx = observability.WithOperation(ctx, "diagnosis.submit")
	log := observability.LoggerFromContext(ctx)

	s.begin()
	defer s.end()

	result, err := s.scorer.Score(ctx, input)
	if err != nil {
		log.Error("scoring call failed", "error", err)
		s.fail(err)
		return nil, err
	}
	result.Timestamp = s.now()
	s.enrich(ctx, input, result)

	user := s.sessions.CurrentUser()
	if user == nil {
		log.Info("no session, diagnosis not recorded", "label", result.Label)
		return result, nil
	}
	log = log.With("user_id", user.ID)

	rec := &domain.DiagnosisRecord{
		Input:       input,
		Result:      *result,
		PerformedBy: user.ID,
	}
	if err := s.diagnoses.CreateDiagnosis(ctx, rec); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		log.Error("failed to record diagnosis", "error", err)
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.history = append([]*domain.DiagnosisRecord{rec}, s.history...)
	s.mu.Unlock()

	log.Info("diagnosis recorded", "diagnosis_id", rec.ID, "label", result.Label)

	if result.Label == domain.LabelSevere {
		s.raiseAlert(ctx, rec)
	}
	return result, nil
}

// raiseAlert never fails the submission.
func (s *Service) raiseAlert(ctx context.Context, rec *domain.DiagnosisRecord) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", rec.PerformedBy,
		"diagnosis_id", rec.ID,
	)

	alert := &domain.EmergencyAlert{
		DiagnosisID: rec.ID,
		UserID:      rec.PerformedBy,
		Severity:    domain.SeveritySevere,
	}
	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		log.Error("failed to create emergency alert", "error", err)
	} else {
		log.Warn("emergency alert created", "alert_id", alert.ID)
	}

	s.publisher.Publish(ctx, events.Event{
		Name:        events.EmergencyAlert,
		DiagnosisID: rec.ID,
		UserID:      rec.PerformedBy,
		Label:       rec.Result.Label,
		At:          s.now(),
	})
}

func (s *Service) enrich(ctx context.Context, input domain.SymptomInput, result *domain.DiagnosisResult) {
	if s.explainer == nil || result.Explanation != "" {
		return
	}
	text, err := s.explainer.Explain(ctx, input, *result)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("explanation enrichment failed", "error", err)
		return
	}
	result.Explanation = text
}

// FetchDiagnosisHistory reloads the current user's records, newest first.
// It does nothing without a session. On failure the previous history is kept.
func (s *Service) FetchDiagnosisHistory(ctx context.Context) error {
	ctx = observability.WithOperation(ctx, "diagnosis.history")

	user := s.sessions.CurrentUser()
	if user == nil {
		return nil
	}
	log := observability.LoggerFromContext(ctx).With("user_id", user.ID)

	s.begin()
	defer s.end()

	records, err := s.diagnoses.ListDiagnosesByPerformer(ctx, user.ID)
	if err != nil {
		err = fmt.Errorf("%w: diagnosis history: %w", domain.ErrFetch, err)
		log.Error("failed to fetch diagnosis history", "error", err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.history = records
	s.mu.Unlock()
	return nil
}

type CreatePatientInput struct {
	Name     string
	Age      int
	Gender   string
	Phone    string
	Email    string
	HeightM  float64
	WeightKg float64
}

// CreatePatient stores a patient owned by the current user. BMI is derived
// from height and weight.
func (s *Service) CreatePatient(ctx context.Context, in CreatePatientInput) (*domain.Patient, error) {
	ctx = observability.WithOperation(ctx, "diagnosis.create_patient")

	user := s.sessions.CurrentUser()
	if user == nil {
		s.fail(domain.ErrNotAuthenticated)
		return nil, domain.ErrNotAuthenticated
	}
	log := observability.LoggerFromContext(ctx).With("user_id", user.ID)

	s.begin()
	defer s.end()

	p := &domain.Patient{
		OwnerUID: user.ID,
		Name:     in.Name,
		Age:      in.Age,
		Gender:   in.Gender,
		Phone:    in.Phone,
		Email:    in.Email,
		HeightM:  in.HeightM,
		WeightKg: in.WeightKg,
		BMI:      domain.ComputeBMI(in.HeightM, in.WeightKg),
	}
	if err := s.patients.CreatePatient(ctx, p); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		log.Error("failed to create patient", "error", err)
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.patientList = append([]*domain.Patient{p}, s.patientList...)
	s.mu.Unlock()

	log.Info("patient created", "patient_id", p.ID)
	return p, nil
}

// FetchPatients reloads the current user's patients, newest first.
func (s *Service) FetchPatients(ctx context.Context) error {
	ctx = observability.WithOperation(ctx, "diagnosis.patients")

	user := s.sessions.CurrentUser()
	if user == nil {
		return nil
	}

	s.begin()
	defer s.end()

	ps, err := s.patients.ListPatientsByOwner(ctx, user.ID)
	if err != nil {
		err = fmt.Errorf("%w: patients: %w", domain.ErrFetch, err)
		observability.LoggerFromContext(ctx).Error("failed to fetch patients",
			"user_id", user.ID, "error", err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.patientList = ps
	s.mu.Unlock()
	return nil
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

func (s *Service) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Service) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// History returns the in-memory records, newest first.
func (s *Service) History() []domain.DiagnosisRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DiagnosisRecord, 0, len(s.history))
	for _, r := range s.history {
		out = append(out, *r)
	}
	return out
}

func (s *Service) Patients() []domain.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Patient, 0, len(s.patientList))
	for _, p := range s.patientList {
		out = append(out, *p)
	}
	return out
}

func (s *Service) begin() {
	s.mu.Lock()
	s.inFlight++
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Service) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
}
