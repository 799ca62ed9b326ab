package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string // server-provided message, may be empty
	Body    []byte
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// DecodeError means the response did not match the expected record shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

func newError(method, path string, status int, body []byte) *Error {
	return &Error{Method: method, Path: path, Status: status, Message: serverMessage(body), Body: body}
}

func serverMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &m) != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}

func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func IsStatus(err error, code int) bool { return StatusOf(err) == code }

func IsRateLimited(err error) bool { return IsStatus(err, http.StatusTooManyRequests) }

func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

func IsCanceled(err error) bool { return errors.Is(err, context.Canceled) }

// MessageOr returns the server message carried by err, or fallback.
// Local errors that are not HTTP failures (validation, required fields)
// surface their own text.
func MessageOr(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if strings.TrimSpace(e.Message) != "" {
			return e.Message
		}
		return fallback
	}
	var local *LocalError
	if errors.As(err, &local) {
		return local.Msg
	}
	return fallback
}

// LocalError is raised before any request is sent.
type LocalError struct{ Msg string }

func (e *LocalError) Error() string { return e.Msg }

func Local(format string, args ...any) error { return &LocalError{Msg: fmt.Sprintf(format, args...)} }
