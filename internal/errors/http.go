// Package errors carries the HTTP error type shared by the outbound
// API clients: the call platform, NewsAPI, and the dataset trigger
// provider.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx response from an upstream API.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *HTTPError) Error() string {
	// Status already includes the numeric code ("400 Bad Request").
	if e.Message == "" {
		return "upstream returned " + e.Status
	}
	return fmt.Sprintf("upstream returned %s: %s", e.Status, e.Message)
}

// ParseHTTPError turns an error response into an *HTTPError, mining the
// body for a usable message. It returns nil for success statuses and
// consumes the body on failure ones.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		httpErr.Message = fmt.Sprintf("failed to read error response body: %v", err)
		return httpErr
	}

	httpErr.Body = string(body)
	httpErr.Message = errorMessage(body)
	if httpErr.Message == "" {
		httpErr.Message = httpErr.Body
	}
	return httpErr
}

// errorMessage extracts a human-readable message from a JSON error
// body. The upstream APIs answer in two shapes: flat {"error"} or
// {"message"} objects, and JSON:API style {"errors": [...]} arrays.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Errors  []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}

	if payload.Error != "" {
		return payload.Error
	}
	if payload.Message != "" {
		return payload.Message
	}

	parts := make([]string, 0, len(payload.Errors))
	for _, item := range payload.Errors {
		switch {
		case item.Title != "" && item.Detail != "":
			parts = append(parts, item.Title+": "+item.Detail)
		case item.Detail != "":
			parts = append(parts, item.Detail)
		case item.Title != "":
			parts = append(parts, item.Title)
		}
	}
	return strings.Join(parts, "; ")
}

// GetHTTPStatusCode unwraps err looking for an *HTTPError and reports
// its status code.
func GetHTTPStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
