package gemini

import (
	"fmt"
	"net/http"
)

// FailureKind classifies why the executor gave up.
type FailureKind string

const (
	// KindTerminal is a non-retryable HTTP status (4xx other than 429).
	KindTerminal FailureKind = "terminal"
	// KindNetworkExhausted means the final attempt failed without a response.
	KindNetworkExhausted FailureKind = "network_exhausted"
	// KindExhausted means every attempt got a retryable status.
	KindExhausted FailureKind = "exhausted"
	// KindCanceled means the caller's context ended first.
	KindCanceled FailureKind = "canceled"
)

// RequestError is returned by Executor.Execute for every failure.
type RequestError struct {
	Kind       FailureKind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("gemini request %s after %d attempt(s)", e.Kind, e.Attempts)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status=%d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusText renders the last HTTP status as "404 Not Found".
func (e *RequestError) StatusText() string {
	if e.StatusCode == 0 {
		return ""
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
