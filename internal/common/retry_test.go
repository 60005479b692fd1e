package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		op        func(calls int) error
		wantErr   error
		name      string
		wantCalls int
	}{
		{
			name:      "succeeds first time",
			op:        func(int) error { return nil },
			wantCalls: 1,
		},
		{
			name: "succeeds after failures",
			op: func(calls int) error {
				if calls < 3 {
					return errBoom
				}
				return nil
			},
			wantCalls: 3,
		},
		{
			name:      "gives up after max attempts",
			op:        func(int) error { return errBoom },
			wantErr:   ErrMaxRetries,
			wantCalls: 3,
		},
		{
			name: "non-retryable returns immediately",
			op: func(int) error {
				return &RetryableError{Err: errBoom, Retryable: false}
			},
			wantErr:   errBoom,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				return tt.op(calls)
			}, fastRetry(3))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastRetry(5)
	opts.InitialDelay = time.Second
	opts.MaxDelay = time.Second

	err := WithRetry(ctx, func() error { return errors.New("fail") }, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not sign in", ErrAuthentication)

	assert.Equal(t, "could not sign in: authentication failed", err.Error())
	assert.ErrorIs(t, err, ErrAuthentication)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "could not sign in", userErr.UserMessage)

	wrapped := fmt.Errorf("login: %w", err)
	assert.Equal(t, "could not sign in", UserMessage(wrapped))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
