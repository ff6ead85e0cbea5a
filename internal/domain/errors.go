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
	ErrCodeParse      = "PARSE_ERROR"
	ErrCodeExtraction = "EXTRACTION_ERROR"
	ErrCodeDecision   = "DECISION_ERROR"
	ErrCodeNotReady   = "NOT_READY"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeCancelled  = "CANCELLED"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// Ingest errors
var (
	ErrEmptyDocument      = NewDomainError(ErrCodeParse, "document is empty or unreadable")
	ErrUnsupportedDocType = NewDomainError(ErrCodeParse, "unsupported document type")
)

// Query errors
var (
	ErrPipelineNotReady = NewDomainError(ErrCodeNotReady, "no policy document ingested yet")
	ErrEmptyBatch       = NewDomainError(ErrCodeValidation, "batch contains no processable queries")
	ErrBatchTooLarge    = NewDomainError(ErrCodeValidation, "batch exceeds maximum size")
	ErrItemCancelled    = NewDomainError(ErrCodeCancelled, "cancelled before dispatch")
)
