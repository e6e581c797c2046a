// Package apierr classifies failures surfaced by the client layer.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	// KindTransport covers connectivity loss, timeouts and malformed responses.
	KindTransport Kind = iota + 1
	// KindAuth covers bad credentials and missing or expired tokens.
	KindAuth
	// KindValidation is raised locally and never reaches the network.
	KindValidation
	// KindBusiness is a well-formed request the service rejected.
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	// Op names the operation, e.g. "createBooking".
	Op string
	// Field is set for validation errors.
	Field string
	// Message is the human readable text; for service errors it is the
	// body the service sent and may be empty.
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.StatusCode != 0:
		fmt.Fprintf(&b, "request failed with status %d", e.StatusCode)
	default:
		b.WriteString(e.Kind.String() + " error")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// FromResponse builds the error for a non-2xx response. body is the raw
// response payload; the message is taken from a JSON "message" or "error"
// field when present, otherwise from the trimmed text.
func FromResponse(op string, status int, body []byte) *Error {
	kind := KindBusiness
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = KindAuth
	}
	return &Error{Kind: kind, Op: op, StatusCode: status, Message: extractMessage(body)}
}

func extractMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return ""
	}
	return text
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns 0 for errors that did not originate in this layer.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return 0
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.StatusCode == http.StatusNotFound
}

// MessageOr returns the message carried by err, or fallback when the
// service sent none.
func MessageOr(err error, fallback string) string {
	if err == nil {
		return ""
	}
	e, ok := As(err)
	if !ok {
		return err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == KindTransport && e.Err != nil {
		return "Error: " + e.Err.Error()
	}
	return fallback
}
