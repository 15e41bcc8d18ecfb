package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrTokenExpired reports a JWT whose exp claim is in the past.
var ErrTokenExpired = errors.New("transport: token expired")

// ResponseError captures a non-2xx reply. The service usually answers with
// {"httpCode", "name", "description", "returnValue"}; those fields are filled when present.
type ResponseError struct {
	Method      string
	Path        string
	StatusCode  int
	Name        string
	Description string
	ReturnValue string
	Body        string
}

func (e *ResponseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transport: %s %s: http %d", e.Method, e.Path, e.StatusCode)
	if e.Name != "" {
		fmt.Fprintf(&b, " (%s)", e.Name)
	}
	switch {
	case e.Description != "":
		b.WriteString(": ")
		b.WriteString(e.Description)
	case e.Body != "":
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

// NotFound reports whether the service answered 404.
func (e *ResponseError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Unauthorized reports whether the token was rejected.
func (e *ResponseError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type errorPayload struct {
	HTTPCode    int    `json:"httpCode"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ReturnValue any    `json:"returnValue"`
	Message     string `json:"message"`
	Detail      any    `json:"detail"`
}

func newResponseError(method, path string, status int, body []byte) *ResponseError {
	respErr := &ResponseError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return respErr
	}
	respErr.Name = payload.Name
	respErr.Description = payload.Description
	if respErr.Description == "" {
		respErr.Description = payload.Message
	}
	if respErr.Description == "" && payload.Detail != nil {
		respErr.Description = fmt.Sprint(payload.Detail)
	}
	if payload.ReturnValue != nil {
		respErr.ReturnValue = fmt.Sprint(payload.ReturnValue)
	}
	return respErr
}
