package models

// APIError represents a standardized error response format for the API.
// @Description APIError carries an application-specific error code, a human-readable message, and optional details.
type APIError struct {
	Code    string      `json:"code"`              // Application-specific error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message string      `json:"message"`           // Human-readable message describing the error
	Details interface{} `json:"details,omitempty"` // Optional field for additional error details
}

// Predefined application-specific error codes
const (
	// Generic errors
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"

	// Input validation and data errors
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeInvalidIDFormat = "INVALID_ID_FORMAT"
	ErrorCodeParseFailure    = "PARSE_FAILURE"

	// Resource-specific errors
	ErrorCodeNotFound        = "NOT_FOUND"
	ErrorCodeSessionNotFound = "SESSION_NOT_FOUND"

	// Business logic / state errors
	ErrorCodeConflict         = "CONFLICT_ERROR"
	ErrorCodeDuplicateTitle   = "DUPLICATE_TITLE"
	ErrorCodeNotReady         = "NOT_READY"
	ErrorCodeSubmitInFlight   = "SUBMIT_IN_FLIGHT"
	ErrorCodeAlreadySubmitted = "ALREADY_SUBMITTED"
	ErrorCodeNothingToDelete  = "NOTHING_TO_DELETE"
	ErrorCodeNothingToUndo    = "NOTHING_TO_UNDO"
	ErrorCodeProjectionFailed = "PROJECTION_FAILED"
	ErrorCodeStoreWriteFailed = "STORE_WRITE_FAILED"
)
