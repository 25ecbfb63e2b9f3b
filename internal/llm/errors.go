package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindTimeout ErrorKind = "timeout"
	ErrorKindStatus  ErrorKind = "status"
	ErrorKindEmpty   ErrorKind = "empty"
	ErrorKindConfig  ErrorKind = "config"
)

// ProviderError reports a failed adapter call.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt against the same provider may succeed.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ErrorKindConfig:
		return false
	case ErrorKindStatus:
		if e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout {
			return true
		}
		return e.StatusCode >= 500
	}
	return true
}

// IsRetryable reports whether err is a *ProviderError worth retrying.
func IsRetryable(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Retryable()
	}
	return false
}

func newProviderError(provider string, kind ErrorKind, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: status, Err: err}
}

// classifyTransportError maps an error without an HTTP status onto a kind.
func classifyTransportError(ctx context.Context, provider string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) || (ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return newProviderError(provider, ErrorKindTimeout, 0, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newProviderError(provider, ErrorKindTimeout, 0, err)
	}
	return newProviderError(provider, ErrorKindNetwork, 0, err)
}

func emptyResponseError(provider string) *ProviderError {
	return newProviderError(provider, ErrorKindEmpty, 0, errors.New("empty response body"))
}
