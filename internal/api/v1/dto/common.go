package dto

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// SuccessResponse is the envelope for every successful request.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
