package response

// Error codes
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeCapacityExceeded = "CAPACITY_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// Response is the JSON envelope returned by every endpoint
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

// ErrorData describes a failed request
type ErrorData struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success wraps data in a successful envelope
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Error builds a failed envelope with the given code
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message},
	}
}

// ValidationFailed reports per-field validation messages
func ValidationFailed(message string, fields map[string]string) Response {
	return Response{
		Success: false,
		Error:   &ErrorData{Code: ErrCodeValidation, Message: message, Fields: fields},
	}
}

func BadRequest(message string) Response {
	return Error(ErrCodeBadRequest, message)
}

func NotFound(message string) Response {
	return Error(ErrCodeNotFound, message)
}

func Unauthorized(message string) Response {
	return Error(ErrCodeUnauthorized, message)
}

func Forbidden(message string) Response {
	return Error(ErrCodeForbidden, message)
}

func Conflict(message string) Response {
	return Error(ErrCodeConflict, message)
}

func InternalError(message string) Response {
	return Error(ErrCodeInternal, message)
}
