package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError describes non-2xx responses.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Headers    http.Header
	RequestID  string

	// ErrorMessages and FieldErrors carry the tracker's structured error
	// body when the response contained one. They distinguish a rejected
	// request (bad JQL, illegal field) from a plain HTTP failure.
	ErrorMessages []string
	FieldErrors   map[string]string
}

func (e *APIError) Error() string {
	if e == nil {
		return "transport: api error"
	}
	if len(e.ErrorMessages) > 0 {
		return fmt.Sprintf("transport: api error status=%d messages=%q", e.StatusCode, strings.Join(e.ErrorMessages, "; "))
	}
	if e.Body == "" {
		return fmt.Sprintf("transport: api error status=%d", e.StatusCode)
	}
	return fmt.Sprintf("transport: api error status=%d body=%q", e.StatusCode, e.Body)
}

// Rejected reports whether the response is a 400-range rejection carrying
// structured tracker error messages, as opposed to a plain HTTP failure.
func (e *APIError) Rejected() bool {
	return e != nil &&
		e.StatusCode >= http.StatusBadRequest &&
		e.StatusCode < http.StatusInternalServerError &&
		len(e.ErrorMessages) > 0
}

// NewAPIError builds APIError from HTTP response and consumes response body.
func NewAPIError(resp *http.Response, maxBodyBytes int64) *APIError {
	if resp == nil {
		return &APIError{}
	}

	bodyBytes, _ := ReadBodyLimited(resp.Body, maxBodyBytes)
	reqID := resp.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = resp.Header.Get("X-Trace-Id")
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bodyBytes),
		Headers:    resp.Header.Clone(),
		RequestID:  reqID,
	}

	// Jira-style error bodies: {"errorMessages": [...], "errors": {...}}.
	var structured struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if json.Unmarshal(bodyBytes, &structured) == nil {
		apiErr.ErrorMessages = structured.ErrorMessages
		apiErr.FieldErrors = structured.Errors
	}

	return apiErr
}
