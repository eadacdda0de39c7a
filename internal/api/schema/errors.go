package schema

import (
	"errors"
	"github.com/one-edge/portal/internal/registry"
)

var emptyMap = map[string]interface{}{}

var (
	ErrInternal = &Error{
		Type:    "generic.internal",
		Message: "An internal error occurred.",
		Details: emptyMap,
	}
	ErrNotFound = &Error{
		Type:    "generic.notFound",
		Message: "Resource not found.",
		Details: emptyMap,
	}
	ErrMethodNotAllowed = &Error{
		Type:    "generic.methodNotAllowed",
		Message: "Method not allowed.",
		Details: emptyMap,
	}
	ErrUnauthorized = &Error{
		Type:    "access.unauthorized",
		Message: "Unauthorized",
		Details: emptyMap,
	}
	ErrLoginFlow = func(message string) *Error {
		return &Error{
			Type:    "auth.loginFlow",
			Message: message,
			Details: emptyMap,
		}
	}
)

// ErrorResponse represents the response structure sent by the portal API whenever errors occurred
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []*Error `json:"errors"`
}

// Error represents a single error present in the ErrorResponse
type Error struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

// RegistryError converts an error returned by the Symphony registry client into its response representation.
// It returns nil if err does not originate from the registry client.
func RegistryError(err error) *Error {
	var regErr *registry.Error
	if !errors.As(err, &regErr) {
		return nil
	}

	details := map[string]interface{}{
		"kind": string(regErr.Kind),
	}
	if regErr.StatusCode != 0 {
		details["status_code"] = regErr.StatusCode
	}

	if errors.Is(err, registry.ErrInvalidResponse) {
		return &Error{
			Type:    "registry.invalidResponse",
			Message: "The site registry returned a response that is not a list of sites.",
			Details: details,
		}
	}
	return &Error{
		Type:    "registry.unavailable",
		Message: "The site registry could not be reached or returned an error.",
		Details: details,
	}
}
