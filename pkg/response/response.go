package response

import "github.com/go-playground/validator/v10"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "empty_request_body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "bad_request",
	Message: "Request body is malformed.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "not_found",
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "server_error",
	Message: "An internal server error occurred. Please try again later.",
}

var LinkExpiredResponse = Response{
	Status:  StatusError,
	Error:   "expired",
	Message: "This link has expired.",
}

var ClickLimitReachedResponse = Response{
	Status:  StatusError,
	Error:   "click_limit_reached",
	Message: "This link has reached its click limit.",
}

var PasswordRequiredResponse = Response{
	Status:  StatusError,
	Error:   "password_required",
	Message: "This link is password protected. Submit the password to continue.",
}

var InvalidPasswordResponse = Response{
	Status:  StatusError,
	Error:   "invalid_password",
	Message: "The password is incorrect. Please try again.",
}

var SlugExistsResponse = Response{
	Status:  StatusError,
	Error:   "slug_exists",
	Message: "The requested slug is already taken.",
}

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse flattens validator errors into per-field details.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "validation_error",
		Message: "The request contains invalid values.",
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return resp
	}

	for _, e := range errs {
		resp.Details = append(resp.Details, map[string]string{
			"field":   e.Field(),
			"message": messageForTag(e.Tag()),
		})
	}

	return resp
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	case "min":
		return "value is too small"
	case "max":
		return "value is too large"
	default:
		return "invalid value"
	}
}
