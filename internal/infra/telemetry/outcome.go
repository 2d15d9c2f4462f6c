package telemetry

import (
	"context"
	"errors"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
)

// Outcome labels a contract call result for metrics and spans.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotStarted):
		return "not_started"
	case errors.Is(err, domain.ErrUnsupportedProvider):
		return "unsupported_provider"
	case errors.Is(err, domain.ErrMalformedIdentifier):
		return "malformed_identifier"
	case errors.Is(err, domain.ErrUnknownAttribute):
		return "unknown_attribute"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrCredentialNotFound):
		return "credential_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
