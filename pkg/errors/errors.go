package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeClosed            Code = "CLOSED"
	CodeProfileIncomplete Code = "PROFILE_INCOMPLETE"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// PermissionDeniedMessage is the exact message the legacy surface returned for
// permission failures; kept for API compatibility.
const PermissionDeniedMessage = "You do not have permission to perform this action."

type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
}

// The legacy API returned 401 for permission denials and 400 for conflicts and
// dependency failures; those mappings are preserved here.
var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "validation failed",
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: PermissionDeniedMessage,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "conflict detected",
	},
	CodeClosed: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "posting is closed",
	},
	CodeProfileIncomplete: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "profile is incomplete",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusBadRequest,
		Retryable:     true,
		PublicMessage: "service temporarily unavailable",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error carried from services to the HTTP surface. Field
// names the request field the error is scoped to; Fields carries a full
// field -> messages map when there is more than one.
type Error struct {
	code    Code
	message string
	field   string
	fields  map[string][]string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// WithField scopes the error to a single request field.
func (e *Error) WithField(field string) *Error {
	if e == nil {
		return nil
	}
	e.field = field
	return e
}

// WithFields attaches a field -> messages map, used by validation.
func (e *Error) WithFields(fields map[string][]string) *Error {
	if e == nil {
		return nil
	}
	e.fields = fields
	return e
}

// Fields renders the error as the field -> messages map the API surface
// returns. Unscoped errors map to the "message" key.
func (e *Error) Fields() map[string][]string {
	if e == nil {
		return nil
	}
	if len(e.fields) > 0 {
		return e.fields
	}
	key := e.field
	if key == "" {
		key = "message"
	}
	msg := e.message
	if msg == "" {
		msg = MetadataFor(e.code).PublicMessage
	}
	return map[string][]string{key: {msg}}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
