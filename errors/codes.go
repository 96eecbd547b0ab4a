package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Fetch and upstream errors (retryable)
const (
	// ErrCodeTransientFetch indicates an RPC call failed or returned an unsuccessful status.
	ErrCodeTransientFetch ErrorCode = "TRANSIENT_FETCH"
	// ErrCodeConnectionFailed indicates a failed connection to an upstream service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates an operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Pipeline errors
const (
	// ErrCodeRetriesExhausted indicates a unit of work failed on every attempt.
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	// ErrCodeContractViolation indicates a processor broke its input or output contract.
	ErrCodeContractViolation ErrorCode = "CONTRACT_VIOLATION"
	// ErrCodeSink indicates a collector failed to deliver a record.
	ErrCodeSink ErrorCode = "SINK_ERROR"
	// ErrCodeSourceStopped indicates a push into a stopped source.
	ErrCodeSourceStopped ErrorCode = "SOURCE_STOPPED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeValidation indicates a configuration or struct failed validation.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a database error.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrCodeStorageError indicates an object storage or key-value store error.
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransientFetch:    true,
	ErrCodeConnectionFailed:  true,
	ErrCodeTimeout:           true,
	ErrCodeExternalService:   true,
	ErrCodeDatabaseError:     true,
	ErrCodeStorageError:      true,
	ErrCodeContractViolation: false,
	ErrCodeRetriesExhausted:  false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
