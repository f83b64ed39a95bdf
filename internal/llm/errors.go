package llm

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

const (
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// Sentinels matched by errors.Is against any *ExtractionError of the same kind.
var (
	ErrTransport         = errors.New("llm: transport failure")
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// ExtractionError is returned by every Extractor backend.
type ExtractionError struct {
	Kind       ErrorKind
	Op         string // e.g. "gemini.generateContent"
	StatusCode int    // HTTP status when the provider answered, 0 otherwise
	Body       string // truncated provider body for non-2xx answers
	Err        error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) and errors.Is(err, ErrMalformedResponse) work.
func (e *ExtractionError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

// TransportError wraps a network failure or a non-2xx provider answer.
func TransportError(op string, status int, body []byte, err error) *ExtractionError {
	return &ExtractionError{Kind: KindTransport, Op: op, StatusCode: status, Body: truncate(string(body), 512), Err: err}
}

// MalformedResponseError wraps an answer that did not contain a single JSON object.
func MalformedResponseError(op string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindMalformedResponse, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *ExtractionError.
func KindOf(err error) ErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
