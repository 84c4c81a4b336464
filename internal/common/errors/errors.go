// internal/common/errors/errors.go

// Package errors provides standardized error handling for the proposal
// pipeline and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Fail-fast errors, never retried.
	ErrCodeValidation  ErrorCode = "VALIDATION_ERROR"
	ErrCodeRFPNotFound ErrorCode = "RFP_NOT_FOUND"

	// Transient collaborator errors, retried with backoff.
	ErrCodeEmbeddingFailed     ErrorCode = "EMBEDDING_FAILED"
	ErrCodeVectorSearchFailed  ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeVectorSearchTimeout ErrorCode = "VECTOR_SEARCH_TIMEOUT"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMCompletionFailed ErrorCode = "LLM_COMPLETION_FAILED"
	ErrCodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"

	// Not retried: the catalog is assumed local and fast.
	ErrCodeCatalogLookupFailed ErrorCode = "CATALOG_LOOKUP_FAILED"

	// Aggregate run outcomes surfaced to callers.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodePartialFailure      ErrorCode = "PARTIAL_FAILURE"

	// Internal bug: allocated test costs do not reconcile with the pool.
	ErrCodeAllocationInvariant ErrorCode = "ALLOCATION_INVARIANT_VIOLATION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from any error, unwrapping as needed.
// Returns an empty code for non-standard errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsRetryable reports whether err is a StandardError marked retryable.
// Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable RFP/item structure error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "RFP document validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRFPNotFoundError creates a non-retryable missing-RFP error.
func NewRFPNotFoundError(rfpID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRFPNotFound,
		Message:   "RFP not found",
		Details:   fmt.Sprintf("rfpId: %s", rfpID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a retryable embedding collaborator error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewVectorSearchFailedError creates a retryable vector-search error.
func NewVectorSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorSearchFailed,
		Message:   "Vector search query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewVectorSearchTimeoutError creates a retryable vector-search timeout.
func NewVectorSearchTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorSearchTimeout,
		Message:   "Vector search timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable language-model timeout.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Language model call timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMCompletionFailedError creates a retryable language-model error.
func NewLLMCompletionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCompletionFailed,
		Message:   "Language model completion failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a retryable persistence error.
func NewPersistenceFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Persistence operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLookupFailedError creates a non-retryable catalog error.
func NewCatalogLookupFailedError(skuID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLookupFailed,
		Message:   "Catalog candidate lookup failed",
		Details:   fmt.Sprintf("skuId: %s, error: %s", skuID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError creates a non-retryable terminal error for a
// collaborator whose retries are already exhausted.
func NewUpstreamUnavailableError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("Upstream service '%s' unavailable", service),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPartialFailureError creates a non-retryable error for a match stage in
// which every item failed operationally.
func NewPartialFailureError(failed, total int) *StandardError {
	return &StandardError{
		Code:      ErrCodePartialFailure,
		Message:   "All request items failed operationally",
		Details:   fmt.Sprintf("failed: %d, total: %d", failed, total),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAllocationInvariantError creates a non-retryable internal-bug error: the
// allocated test-cost sum does not reconcile with the pool.
func NewAllocationInvariantError(got, want float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeAllocationInvariant,
		Message:   "Allocated test costs do not sum to the test-cost pool",
		Details:   fmt.Sprintf("allocated: %.4f, pool: %.4f", got, want),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeEmbeddingFailed,
		ErrCodeVectorSearchFailed,
		ErrCodeLLMCompletionFailed,
		ErrCodePersistenceFailed:
		return 3

	case ErrCodeVectorSearchTimeout:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the coarse category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EMBEDDING") || strings.Contains(codeStr, "VECTOR"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "CATALOG"):
		return "STORAGE"
	case strings.Contains(codeStr, "ALLOCATION"):
		return "PRICING"
	default:
		return "OTHER"
	}
}
