package chi

// ErrorResponseCode is the machine-readable code in an error body.
type ErrorResponseCode string

const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed   ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized       ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInputNotFound      ErrorResponseCode = "input_not_found"
	ErrorResponseCodeUnprocessableInput ErrorResponseCode = "unprocessable_input"
	ErrorResponseCodeConversionFailed   ErrorResponseCode = "conversion_failed"
	ErrorResponseCodeBusy               ErrorResponseCode = "busy"
	ErrorResponseCodeTimeout            ErrorResponseCode = "timeout"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorDetail carries the code and a message safe for callers.
type ErrorDetail struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail ErrorDetail `json:"detail"`
}

// ParseURLRequest is the body of POST /parse/url.
type ParseURLRequest struct {
	URL          string  `json:"url"`
	OutputFormat *string `json:"output_format,omitempty"`
	IncludeJSON  *bool   `json:"include_json,omitempty"`
}

// ParseResponseStatus is always "Ok": failures use ErrorResponse.
type ParseResponseStatus string

const ParseResponseStatusOk ParseResponseStatus = "Ok"

// ParseResponseData holds the rendering and the structured output.
type ParseResponseData struct {
	Output     string         `json:"output"`
	JSONOutput map[string]any `json:"json_output"`
}

// ParseResponse is the body of a successful parse.
type ParseResponse struct {
	Message string              `json:"message"`
	Status  ParseResponseStatus `json:"status"`
	Data    ParseResponseData   `json:"data"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
