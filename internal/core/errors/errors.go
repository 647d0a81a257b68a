package errors

const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpValidationError     = "validation_failed"
	HttpDuplicateEventError = "duplicate_event"
	HttpNotFoundError       = "not_found"
	HttpBadQueryError       = "bad_query"
)

// ErrorResponse is the error response body shared by all HTTP handlers.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
