package domain

import "context"

// SessionListener receives identity provider session changes. A nil
// credential means there is no signed-in identity.
type SessionListener func(ctx context.Context, cred *Credential)

// IdentityProvider verifies credentials and pushes session changes.
// Implementations deliver notifications one at a time, in order, and
// replay the current session to every new listener once.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	CreateAccount(ctx context.Context, email, password string) (*Credential, error)
	DeleteAccount(ctx context.Context, uid UserID) error
	SignOut(ctx context.Context) error
	UpdateDisplayName(ctx context.Context, uid UserID, displayName string) error
	OnSessionChange(listener SessionListener) (unsubscribe func())
}

// ProfileStore persists profile records ("users" collection).
type ProfileStore interface {
	// GetProfile returns ErrNotFound when no record exists and
	// ErrPermissionDenied when the backend refuses the read.
	GetProfile(ctx context.Context, id UserID) (*Profile, error)
	// CreateProfile fails with ErrAlreadyExists if a record is present.
	CreateProfile(ctx context.Context, p *Profile) error
	// SaveProfile writes the record whether or not one exists.
	SaveProfile(ctx context.Context, p *Profile) error
	UpdateDisplayName(ctx context.Context, id UserID, displayName string) error
}

// DiagnosisStore persists DiagnosisRecords ("diagnoses" collection).
// CreateDiagnosis assigns ID and CreatedAt on the record it is given.
type DiagnosisStore interface {
	CreateDiagnosis(ctx context.Context, rec *DiagnosisRecord) error
	ListDiagnosesByPerformer(ctx context.Context, uid UserID) ([]*DiagnosisRecord, error)
}

// PatientStore persists patients ("patients" collection).
type PatientStore interface {
	CreatePatient(ctx context.Context, p *Patient) error
	ListPatientsByOwner(ctx context.Context, uid UserID) ([]*Patient, error)
}

// AlertStore persists emergency alerts ("emergencies" collection).
type AlertStore interface {
	CreateAlert(ctx context.Context, a *EmergencyAlert) error
}

// Scorer turns a SymptomInput into a DiagnosisResult.
type Scorer interface {
	Score(ctx context.Context, input SymptomInput) (*DiagnosisResult, error)
}

// Explainer produces a human readable explanation for a result that came
// back without one.
type Explainer interface {
	Explain(ctx context.Context, input SymptomInput, result DiagnosisResult) (string, error)
}
