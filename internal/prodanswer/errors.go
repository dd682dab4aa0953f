package prodanswer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrNotFound        = errors.New("resource not found")
	ErrServer          = errors.New("server error")
	ErrInvalidArgument = errors.New("invalid argument")
)

// APIError is returned for every non-2xx response of the backend.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	// Fields holds validation errors keyed by field name.
	Fields    map[string][]string
	RequestID string
	// Body is the raw (decoded) response body.
	Body []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Is maps the status code onto the package sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	case ErrInvalidArgument:
		return e.StatusCode == http.StatusBadRequest
	default:
		return false
	}
}

// Hint returns a short human explanation for well-known statuses.
func (e *APIError) Hint() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return "the session is not authorized, log in again"
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden.Error()
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound.Error()
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServer.Error()
	default:
		return ""
	}
}

func parseError(statusCode int, status string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Status: status, Body: body}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if text, ok := payload[key].(string); ok && strings.TrimSpace(text) != "" {
				apiErr.Message = strings.TrimSpace(text)
				return apiErr
			}
		}

		apiErr.Fields = fieldErrors(payload)
		if len(apiErr.Fields) > 0 {
			apiErr.Message = joinFieldErrors(apiErr.Fields)
			return apiErr
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		apiErr.Message = text
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(status)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	if apiErr.Message == "" {
		apiErr.Message = "request failed"
	}

	return apiErr
}

// fieldErrors extracts validation errors in the form {"field": ["msg", ...]}.
func fieldErrors(payload map[string]any) map[string][]string {
	fields := make(map[string][]string)
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			fields[key] = append(fields[key], v)
		case []any:
			for _, item := range v {
				if text, ok := item.(string); ok {
					fields[key] = append(fields[key], text)
				}
			}
		}
	}
	return fields
}

func joinFieldErrors(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(fields[key], " ")))
	}
	return strings.Join(parts, "; ")
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
