package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidConfiguration indicates a component was used without required configuration.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// Availability errors (retryable)
const (
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeConnectionFailed indicates a failed connection to the database.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a database error.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

var categories = map[ErrorCode]string{
	ErrCodeInvalidConfiguration: "Invalid Configuration",
	ErrCodeTimeout:              "Timeout",
	ErrCodeConnectionFailed:     "Connection Failed",
	ErrCodeNotFound:             "Not Found",
	ErrCodeAlreadyExists:        "Already Exists",
	ErrCodeInvalidInput:         "Invalid Input",
	ErrCodeMissingField:         "Missing Field",
	ErrCodeInternal:             "Internal Error",
	ErrCodeDatabaseError:        "Database Error",
}

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:          true,
	ErrCodeConnectionFailed: true,
	ErrCodeDatabaseError:    true,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// CategoryOf returns the human-readable category label for a code.
func CategoryOf(code ErrorCode) string {
	if c, ok := categories[code]; ok {
		return c
	}
	return string(code)
}
