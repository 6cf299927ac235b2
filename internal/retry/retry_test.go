package retry

import (
	"context"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/dvloznov/expense-sheets/internal/config"
	"github.com/dvloznov/expense-sheets/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func testRetrier(delay time.Duration) *Retrier {
	r := New(zerolog.Nop())
	r.Delay = delay
	return r
}

var errReset = fmt.Errorf("read tcp: %w", syscall.ECONNRESET)

func TestDo_SucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), testRetrier(time.Millisecond), "test", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errReset
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAfterThreeAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testRetrier(time.Millisecond), "append", func(ctx context.Context) (int, error) {
		calls++
		return 0, &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota exceeded"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, ErrTemporarilyUnavailable))

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "append", unavailable.Operation)
	assert.Equal(t, 3, unavailable.Attempts)
	assert.Contains(t, unavailable.Cause, "quota exceeded")
}

func TestDo_LogsThroughContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	reqLog := logger.NewWithWriter(buf, false).With().Str("request_id", "req-42").Logger()
	ctx := logger.WithContext(context.Background(), reqLog)

	calls := 0
	_, err := Do(ctx, testRetrier(time.Millisecond), "load", func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errReset
		}
		return 1, nil
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Transient remote failure")
	assert.Contains(t, out, "Remote call recovered")
	assert.Contains(t, out, `"request_id":"req-42"`)
}

func TestDo_NonTransientPropagatesImmediately(t *testing.T) {
	cfgErr := &config.Error{Msg: "no spreadsheet"}
	calls := 0
	_, err := Do(context.Background(), testRetrier(time.Millisecond), "load", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, cfgErr
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, cfgErr, err)
	assert.False(t, errors.Is(err, ErrTemporarilyUnavailable))
}

func TestDo_NonTransientAfterTransient(t *testing.T) {
	calls := 0
	fatal := errors.New("permission denied")
	_, err := Do(context.Background(), testRetrier(time.Millisecond), "load", func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, fatal
	})

	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, fatal)
	assert.False(t, errors.Is(err, ErrTemporarilyUnavailable))
}

func TestDo_WaitsFixedDelayBetweenAttempts(t *testing.T) {
	delay := 20 * time.Millisecond
	start := time.Now()
	_, err := Do(context.Background(), testRetrier(delay), "load", func(ctx context.Context) (int, error) {
		return 0, errReset
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTemporarilyUnavailable)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
}

func TestDo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, testRetrier(time.Millisecond), "load", func(ctx context.Context) (int, error) {
		calls++
		return 0, ctx.Err()
	})

	assert.LessOrEqual(t, calls, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTemporarilyUnavailable))
}

func TestDo_DefaultsWhenPolicyUnset(t *testing.T) {
	r := &Retrier{Delay: time.Millisecond, Log: zerolog.Nop()}
	calls := 0
	_, err := Do(context.Background(), r, "load", func(ctx context.Context) (int, error) {
		calls++
		return 0, errReset
	})

	assert.ErrorIs(t, err, ErrTemporarilyUnavailable)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"service unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"internal error", fmt.Errorf("append: %w", &googleapi.Error{Code: http.StatusInternalServerError}), true},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"connection reset", errReset, true},
		{"dns timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"unexpected eof", fmt.Errorf("decode: %w", io.ErrUnexpectedEOF), true},
		{"canceled", context.Canceled, false},
		{"config", &config.Error{Msg: "missing"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
