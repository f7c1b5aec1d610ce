// Package retry runs a call under a bounded retry policy with a fixed delay
// between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// Classifier reports whether an error is permanent. Permanent errors stop
// the retry loop immediately.
type Classifier func(err error) bool

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// AttemptHook is called after every failed attempt.
type AttemptHook func(attempt int, err error, permanent bool)

// Policy describes how a call is retried. The zero value is not usable;
// build one with NewPolicy.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	IsPermanent Classifier
	Sleep       SleepFunc
	OnFailure   AttemptHook
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		p.MaxAttempts = n
	}
}

// WithDelay sets the fixed wait between attempts.
func WithDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.Delay = d
	}
}

// WithClassifier sets the function deciding which errors are permanent.
func WithClassifier(c Classifier) Option {
	return func(p *Policy) {
		p.IsPermanent = c
	}
}

// WithSleep replaces the wait between attempts. Used by tests.
func WithSleep(s SleepFunc) Option {
	return func(p *Policy) {
		p.Sleep = s
	}
}

// WithOnFailure registers a hook called after each failed attempt.
func WithOnFailure(h AttemptHook) Option {
	return func(p *Policy) {
		p.OnFailure = h
	}
}

// NewPolicy returns a policy with defaults applied and the given options.
func NewPolicy(opts ...Option) Policy {
	p := Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		IsPermanent: IsPermanent,
		Sleep:       Sleep,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", p.Delay)
	}
	return nil
}

// MaxWait is the most time the policy can spend waiting between attempts.
func (p Policy) MaxWait() time.Duration {
	if p.MaxAttempts < 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Delay
}

// Error is the terminal failure of Do. It carries the last error and the
// number of attempts that were made.
type Error struct {
	Attempts  int
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	if e.Permanent {
		return fmt.Sprintf("permanent failure after %d attempt(s): %s", e.Attempts, e.Err)
	}
	return fmt.Sprintf("failed after %d attempt(s): %s", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Attempts returns the attempt count carried by err, or 0 if err did not
// come from Do.
func Attempts(err error) int {
	var retryErr *Error
	if errors.As(err, &retryErr) {
		return retryErr.Attempts
	}
	return 0
}

// Func is a single attempt. attempt is 1-based.
type Func[T any] func(ctx context.Context, attempt int) (T, error)

// Do runs fn until it succeeds, returns a permanent error, or the policy's
// attempts are used up. It returns the value and the number of attempts on
// success; every failure is an *Error. A cancelled context ends the loop
// with the context error as the last error.
func Do[T any](ctx context.Context, p Policy, fn Func[T]) (T, int, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, 0, err
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		value, err := fn(ctx, attempt)
		if err == nil {
			return value, attempt, nil
		}
		lastErr = err
		permanent := IsPermanent(err) || (p.IsPermanent != nil && p.IsPermanent(err))
		if p.OnFailure != nil {
			p.OnFailure(attempt, err, permanent)
		}
		if permanent {
			return zero, attempt, &Error{Attempts: attempt, Permanent: true, Err: err}
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, attempt, &Error{Attempts: attempt, Err: err}
		}
	}
	return zero, p.MaxAttempts, &Error{Attempts: p.MaxAttempts, Err: lastErr}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// MarkPermanent wraps err so IsPermanent reports true for it.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or any error it wraps, was marked with
// MarkPermanent. Do stops on such errors whatever the policy's classifier.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
