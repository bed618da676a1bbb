package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/taskboard/internal/transport"
)

// ErrInvalidArguments indicates tool arguments that do not decode.
var ErrInvalidArguments = errors.New("invalid arguments")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var recoveryHints = map[string]string{
	transport.CodeUnauthenticated:   "Send a valid bearer token",
	transport.CodePermissionDenied:  "Use list_projects to find projects you own",
	transport.CodeNotFound:          "Check ID spelling",
	transport.CodeInvalidFields:     "Names must not be blank",
	transport.CodeInvalidStatus:     "Use To Do, In Progress or Completed",
	transport.CodeUnknownCollection: "Only projects and tasks exist",
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidArguments) {
		return &APIError{Code: "INVALID_ARGUMENTS", Message: err.Error(), RecoveryHint: "Check the tool's input schema"}
	}
	apiErr := transport.MapError(err)
	return &APIError{
		Code:         apiErr.Code,
		Message:      apiErr.Message,
		RecoveryHint: recoveryHints[apiErr.Code],
	}
}
