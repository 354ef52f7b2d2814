package feedback

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/PabloGalante/heartdx/internal/app/navigation"
	"github.com/PabloGalante/heartdx/internal/domain"
)

const (
	msgNetworkFailed   = "Network connection failed"
	msgCheckConnection = "Please check your internet connection and try again"
	msgUnexpected      = "An unexpected error occurred"
)

// StatusError is a failure that carries a response status.
type StatusError interface {
	error
	StatusCode() int
}

// responseBody exposes the decoded error body of a response, when there is one.
type responseBody interface {
	ResponseMessage() string
	ResponseDetails() string
}

// Classify maps err to a Descriptor. Errors carrying a status are classified
// by the status table, transport failures without a response are network
// errors, and anything else is unknown.
func Classify(err error, contextLabel string) Descriptor {
	var se StatusError
	if errors.As(err, &se) {
		return classifyStatus(se)
	}
	if isTransportFailure(err) {
		return Descriptor{
			Type:    TypeNetwork,
			Message: msgNetworkFailed,
			Details: msgCheckConnection,
			Action:  &Action{Label: "Retry", Retry: true},
		}
	}

	d := Descriptor{Type: TypeUnknown, Message: msgUnexpected}
	if err != nil && err.Error() != "" {
		d.Message = err.Error()
	}
	if contextLabel != "" {
		d.Details = "Context: " + contextLabel
	}
	return d
}

func classifyStatus(se StatusError) Descriptor {
	var msg, details string
	var body responseBody
	if errors.As(se, &body) {
		msg, details = body.ResponseMessage(), body.ResponseDetails()
	}

	switch status := se.StatusCode(); status {
	case 400:
		return Descriptor{
			Type:    TypeValidation,
			Message: orDefault(msg, "Invalid request data"),
			Details: orDefault(details, "Please check your input and try again"),
		}
	case 401:
		return Descriptor{
			Type:    TypeAuth,
			Message: "Authentication required",
			Details: "Please log in to continue",
			Action:  &Action{Label: "Login", Redirect: navigation.LoginPath},
		}
	case 403:
		return Descriptor{
			Type:    TypeAuth,
			Message: "Access denied",
			Details: "You do not have permission to perform this action",
		}
	case 404:
		return Descriptor{
			Type:    TypeServer,
			Message: "Resource not found",
			Details: "The requested resource could not be found",
		}
	case 422:
		return Descriptor{
			Type:    TypeValidation,
			Message: "Validation failed",
			Details: orDefault(msg, "Please check your input data"),
		}
	case 429:
		return Descriptor{
			Type:    TypeServer,
			Message: "Too many requests",
			Details: "Please wait a moment before trying again",
			Action:  &Action{Label: "Retry", Retry: true},
		}
	case 500:
		return Descriptor{
			Type:    TypeServer,
			Message: "Server error",
			Details: "An internal server error occurred. Please try again later.",
			Action:  &Action{Label: "Retry", Retry: true},
		}
	case 503:
		return Descriptor{
			Type:    TypeServer,
			Message: "Service unavailable",
			Details: "The service is temporarily unavailable. Please try again later.",
		}
	default:
		return Descriptor{
			Type:    TypeServer,
			Message: fmt.Sprintf("Server error (%d)", status),
			Details: orDefault(msg, "An unexpected server error occurred"),
		}
	}
}

func isTransportFailure(err error) bool {
	if errors.Is(err, domain.ErrNetwork) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
