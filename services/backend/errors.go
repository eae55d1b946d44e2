package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrSessionInvalidated matches the errors of requests the backend answered with 401.
// The session is already cleared by the time the caller sees it.
var ErrSessionInvalidated = errors.New("session invalidated by the backend")

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("backend: %d %s", err.Status, http.StatusText(err.Status))
	}
	return fmt.Sprintf("backend: %d %s", err.Status, err.Message)
}

// UserMessage is the message to show as is.
func (err *APIError) UserMessage() string {
	return err.Message
}

func (err *APIError) Is(target error) bool {
	return target == ErrSessionInvalidated && err.Status == http.StatusUnauthorized
}

// newAPIError reads the error payload, either `{"error": "msg"}`, a map of field errors or a bare JSON string.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var msg string
	if err := json.Unmarshal(body, &msg); err == nil {
		apiErr.Message = msg
		return apiErr
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	for _, key := range []string{"error", "message"} {
		if m, ok := obj[key].(string); ok {
			apiErr.Message = m
			return apiErr
		}
	}

	apiErr.Fields = make(map[string]string, len(obj))
	keys := make([]string, 0, len(obj))
	for key, val := range obj {
		if m, ok := val.(string); ok {
			apiErr.Fields[key] = m
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, key := range keys {
		msgs = append(msgs, apiErr.Fields[key])
	}
	apiErr.Message = strings.Join(msgs, "; ")
	return apiErr
}
