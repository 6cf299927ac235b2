// Package retry runs remote calls with a small fixed retry budget and turns
// exhausted budgets into a single "temporarily unavailable" error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/dvloznov/expense-sheets/internal/logger"
	"github.com/dvloznov/expense-sheets/internal/metrics"
	"github.com/rs/zerolog"
	goretry "github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
)

const (
	// DefaultMaxAttempts is the total number of attempts, including the first one.
	DefaultMaxAttempts = 3

	// DefaultDelay is the fixed pause between attempts.
	DefaultDelay = time.Second
)

// ErrTemporarilyUnavailable matches every *UnavailableError.
var ErrTemporarilyUnavailable = errors.New("remote service temporarily unavailable")

// UnavailableError is returned once all attempts failed with transient errors.
// Cause is the text of the last failure.
type UnavailableError struct {
	Operation string
	Attempts  int
	Cause     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: temporarily unavailable after %d attempts: %s", e.Operation, e.Attempts, e.Cause)
}

// Is lets errors.Is(err, ErrTemporarilyUnavailable) match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrTemporarilyUnavailable
}

// Retrier holds the retry policy. The zero value is not usable; use New.
type Retrier struct {
	MaxAttempts int
	Delay       time.Duration
	// Classify reports whether an error is worth another attempt.
	Classify func(error) bool
	// Log is used when the context carries no request-scoped logger.
	Log zerolog.Logger
}

// New returns a Retrier with the default policy: 3 attempts, 1s apart.
func New(log zerolog.Logger) *Retrier {
	return &Retrier{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Classify:    IsTransient,
		Log:         log,
	}
}

// Do runs fn until it succeeds, fails with a non-transient error, or runs out of
// attempts. op names the call in logs, metrics and the unavailability error.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	log := logger.FromContext(ctx, r.Log)

	var (
		result    T
		attempts  int
		transient bool
		lastErr   error
	)

	err := goretry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempts++
		v, err := fn(ctx)
		if err == nil {
			result = v
			transient = false
			metrics.RemoteAttempts.WithLabelValues(op, metrics.ResultSuccess).Inc()
			return nil
		}

		lastErr = err
		transient = r.classify(err)
		if !transient {
			metrics.RemoteAttempts.WithLabelValues(op, metrics.ResultFatal).Inc()
			return err
		}

		metrics.RemoteAttempts.WithLabelValues(op, metrics.ResultTransient).Inc()
		log.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempts).
			Int("max_attempts", r.maxAttempts()).
			Msg("Transient remote failure")
		return goretry.RetryableError(err)
	})

	if err == nil {
		if attempts > 1 {
			log.Info().Str("operation", op).Int("attempts", attempts).Msg("Remote call recovered")
		}
		return result, nil
	}

	var zero T
	if transient && ctx.Err() == nil {
		metrics.RemoteUnavailable.WithLabelValues(op).Inc()
		log.Error().Err(lastErr).Str("operation", op).Int("attempts", attempts).Msg("Remote call exhausted retries")
		return zero, &UnavailableError{Operation: op, Attempts: attempts, Cause: lastErr.Error()}
	}
	return zero, err
}

func (r *Retrier) backoff() goretry.Backoff {
	delay := r.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	return goretry.WithMaxRetries(uint64(r.maxAttempts()-1), goretry.NewConstant(delay))
}

func (r *Retrier) maxAttempts() int {
	if r.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return r.MaxAttempts
}

func (r *Retrier) classify(err error) bool {
	if r.Classify == nil {
		return IsTransient(err)
	}
	return r.Classify(err)
}

// IsTransient reports whether err is a connection failure, timeout, reset, short read,
// or a rate-limit / availability response from the Google API. Other API errors
// (400, 403, 404 and the like) are surfaced without retry.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
