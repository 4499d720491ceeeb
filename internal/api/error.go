package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is an HTTP error response from the API. Detail carries the
// structured message from the response body when one was present.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// newError builds an *Error from a non-2xx response, extracting the
// detail field the backend uses for user-facing messages.
func newError(status int, body []byte) *Error {
	var payload struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(body, &payload)
	return &Error{StatusCode: status, Detail: payload.Detail}
}

// Detail converts any request error to a user-facing message: the
// server-supplied detail when available, fallback otherwise. Transport
// errors always map to the fallback.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
