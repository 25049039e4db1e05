package models

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// SuccessResponse wraps data in the standard envelope.
func SuccessResponse(data any, message string) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ErrorResponse builds a failed envelope carrying a user-facing reason.
func ErrorResponse(err string) Response {
	return Response{
		Success: false,
		Error:   err,
	}
}
