package transport

import (
	"errors"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/ganot/taskboard/internal/domain/workspace"
)

// Application error codes carried in the data member of JSON-RPC errors and
// in websocket error messages.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeInvalidFields      = "INVALID_FIELDS"
	CodeUnknownCollection  = "UNKNOWN_COLLECTION"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidQuery       = "INVALID_QUERY"
	CodeInvalidDocument    = "INVALID_DOCUMENT"
	CodeUnavailable        = "UNAVAILABLE"
	CodeInternal           = "INTERNAL"
)

var sentinels = map[string]error{
	CodeUnauthenticated:    ErrUnauthorized,
	CodeInvalidEmail:       account.ErrInvalidEmail,
	CodeWeakPassword:       account.ErrWeakPassword,
	CodeEmailTaken:         account.ErrEmailTaken,
	CodeInvalidCredentials: account.ErrInvalidCredentials,
	CodeUserNotFound:       account.ErrUserNotFound,
	CodeSessionNotFound:    account.ErrSessionNotFound,
	CodeSessionExpired:     account.ErrSessionExpired,
	CodePermissionDenied:   workspace.ErrPermissionDenied,
	CodeInvalidFields:      workspace.ErrInvalidFields,
	CodeUnknownCollection:  workspace.ErrUnknownCollection,
	CodeInvalidStatus:      task.ErrInvalidStatus,
	CodeNotFound:           docstore.ErrNotFound,
	CodeInvalidQuery:       docstore.ErrInvalidQuery,
	CodeInvalidDocument:    docstore.ErrInvalidDocument,
	CodeUnavailable:        docstore.ErrClosed,
}

// APIError is the wire form of a domain error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the domain sentinel named by Code so that errors.Is works on
// the receiving side of the wire.
func (e *APIError) Unwrap() error {
	return sentinels[e.Code]
}

// MapError maps domain errors to API error codes. Errors without a known
// sentinel map to CodeInternal.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, code := range codeOrder {
		if errors.Is(err, sentinels[code]) {
			return &APIError{Code: code, Message: err.Error()}
		}
	}
	return &APIError{Code: CodeInternal, Message: err.Error()}
}

// codeOrder fixes the lookup order of MapError.
var codeOrder = []string{
	CodeUnauthenticated,
	CodeInvalidEmail,
	CodeWeakPassword,
	CodeEmailTaken,
	CodeInvalidCredentials,
	CodeUserNotFound,
	CodeSessionNotFound,
	CodeSessionExpired,
	CodePermissionDenied,
	CodeInvalidFields,
	CodeUnknownCollection,
	CodeInvalidStatus,
	CodeNotFound,
	CodeInvalidQuery,
	CodeInvalidDocument,
	CodeUnavailable,
}
