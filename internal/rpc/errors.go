package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when a successful response carries neither a
// result nor an exceptional result.
var ErrEmptyResponse = errors.New("empty response from server")

// ExceptionalError is a failure reported inside a response envelope.
type ExceptionalError struct {
	Kind    string
	Message string
}

func (e *ExceptionalError) Error() string {
	return e.Message
}

// APIError mirrors the structured error body returned with non-2xx statuses.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		return &APIError{
			Status:  status,
			Code:    "HTTP_ERROR",
			Message: http.StatusText(status),
		}
	}
	apiErr.Status = status
	return apiErr
}
