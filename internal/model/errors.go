package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	ErrorKindProviderRejected  ErrorKind = "provider_rejected"
	ErrorKindTransportFailure  ErrorKind = "transport_failure"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
)

var (
	ErrProviderRejected  = errors.New("provider rejected request")
	ErrTransportFailure  = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ErrorDetail is the failure value of a fetch. Message is meant for display as-is.
type ErrorDetail struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
}

func NewErrorDetail(kind ErrorKind, format string, args ...interface{}) *ErrorDetail {
	return &ErrorDetail{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *ErrorDetail) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is match the sentinel for the kind.
func (e *ErrorDetail) Unwrap() error {
	switch e.Kind {
	case ErrorKindProviderRejected:
		return ErrProviderRejected
	case ErrorKindTransportFailure:
		return ErrTransportFailure
	case ErrorKindMalformedResponse:
		return ErrMalformedResponse
	default:
		return nil
	}
}

// AsErrorDetail converts any error into an ErrorDetail. Errors that are not already
// one are reported as transport failures.
func AsErrorDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}
	var detail *ErrorDetail
	if errors.As(err, &detail) {
		return detail
	}
	return &ErrorDetail{Kind: ErrorKindTransportFailure, Message: err.Error()}
}
