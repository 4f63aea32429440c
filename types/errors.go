package types

import (
	"errors"
	"fmt"
)

// Fault taxonomy for remote reads. Transport and server faults are
// retryable within the client's attempt budget; everything else aborts on
// first occurrence.
var (
	ErrTransportFault    = errors.New("transport fault")
	ErrRemoteServerFault = errors.New("remote server fault")
	ErrRemoteClientFault = errors.New("remote client fault")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnexpectedShape   = errors.New("unexpected response shape")
	ErrRetriesExhausted  = errors.New("retries exhausted")
)

var (
	ErrCacheIO          = errors.New("cache i/o fault")
	ErrCacheKeyEmpty    = errors.New("cache key empty")
	ErrCacheTypeUnknown = errors.New("cache type unknown")
)

var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")
)

var (
	ErrConfigNotFound       = errors.New("config not found")
	ErrConfigParseFailed    = errors.New("config parse failed")
	ErrConfigValidateFailed = errors.New("config validate failed")
)

var (
	ErrMetricsTypeUnknown = errors.New("metrics type unknown")
)

var (
	ErrRecordNotFound = errors.New("record not found")
)

func Errorf(baseErr error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", baseErr, fmt.Sprintf(format, args...))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NewErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsRetryable reports whether a fetch fault may be retried. Unknown faults
// deliberately classify as retryable so that an unexpected local error does
// not silently cost availability; the remote read is an idempotent GET, so
// a duplicate attempt is safe.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrRemoteClientFault),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrUnexpectedShape),
		errors.Is(err, ErrCircuitBreakerOpen),
		errors.Is(err, ErrCacheIO):
		return false
	}
	return true
}
