package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeWriteRejected   = "WRITE_REJECTED"
	ErrCodeEmbedding       = "EMBEDDING_FAILURE"
	ErrCodeMalformedRecord = "MALFORMED_RECORD"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyContent         = NewDomainError(ErrCodeValidation, "content text is empty")
	ErrInvalidChunkBounds   = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than chunk size")
)

// Not found errors
var (
	ErrRecordNotFound = NewDomainError(ErrCodeNotFound, "record not found")
)

// Store policy errors. A backend that is populated by an external,
// authoritative process refuses writes with ErrWriteRejected; callers treat
// this as policy, not as a transient failure.
var (
	ErrWriteRejected = NewDomainError(ErrCodeWriteRejected, "store rejects writes by policy")
)

// External collaborator errors
var (
	ErrEmbeddingFailure = NewDomainError(ErrCodeEmbedding, "embedding provider failed")
	ErrMalformedRecord  = NewDomainError(ErrCodeMalformedRecord, "store returned a record missing required fields")
)
