// Package retry provides the single retry policy shared by every
// network-calling component, so per-call-site retry loops don't drift apart.
package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds retries with a fixed backoff delay and a retryable-error
// predicate. Errors the predicate rejects propagate immediately.
type Policy struct {
	MaxRetries uint
	Delay      time.Duration
	Retryable  func(error) bool
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	return int(p.MaxRetries) + 1
}

// Do runs op under the policy, returning the last error once attempts are
// exhausted or immediately for non-retryable errors.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = Transient
	}

	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(p.MaxRetries+1),
	)
}

// Transient reports whether an error belongs to the transient/timeout class
// worth retrying: timeouts, cancelled deadlines, refused or reset
// connections.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return false
}
