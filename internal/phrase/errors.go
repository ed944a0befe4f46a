/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package phrase

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrKeyExists is returned by CreateKey when Phrase rejects the key name as already taken.
var ErrKeyExists = errors.New("key already exists")

// ClientError describes a failed Phrase API call.
type ClientError struct {
	Message    string
	Method     string
	URL        *url.URL
	StatusCode int
	Err        error
}

func (e *ClientError) wrap(message string, err error) *ClientError {
	e.Message = message
	e.Err = err
	return e
}

func (e *ClientError) Error() string {
	str := fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL.Redacted(), e.StatusCode, e.Message)
	if e.Err != nil {
		str += ": " + e.Err.Error()
	}
	return str
}

// Unwrap returns the next error in the error chain.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// APIError is the error document returned by Phrase, e.g.
// {"message":"Validation failed","errors":[{"resource":"Key","field":"name","message":"has already been taken"}]}.
type APIError struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError is a single validation failure.
type FieldError struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	details := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		details = append(details, strings.TrimSpace(fe.Resource+" "+fe.Field+" "+fe.Message))
	}
	return e.Message + " (" + strings.Join(details, "; ") + ")"
}

// StatusCode returns the HTTP status of a ClientError in the chain, or 0.
func StatusCode(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}
	return 0
}
