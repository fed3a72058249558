package handler

// Machine-readable error codes. The storefront's checkout flow keys off
// these to fall back to "no discount applied" instead of blocking the
// purchase.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeValidation         = "validation_error"
	CodeInsufficientPoints = "insufficient_points"
	CodeConflict           = "conflict"
	CodeRewardsUnavailable = "rewards_unavailable"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}
