package domain

import "time"

type UserID string
type PatientID string
type DiagnosisID string
type AlertID string

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole falls back to RolePatient for anything it does not recognize.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleDoctor:
		return RoleDoctor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RolePatient
	}
}

type Timestamp = time.Time

// Credential is what the identity provider knows about a signed-in identity.
type Credential struct {
	UID         UserID
	Email       string
	DisplayName string
}

// User is the live session bound to the current process.
type User struct {
	ID          UserID
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   Timestamp

	// Persisted is false for the minimal session built when the profile
	// record could not be read because of an authorization denial.
	Persisted bool
}

// Profile is the persisted user metadata kept in the "users" collection.
type Profile struct {
	ID          UserID
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   Timestamp
}
