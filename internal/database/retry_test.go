package database

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = old })
}

func TestIsTransient_MySQLNumbers(t *testing.T) {
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1205, Message: "lock wait timeout exceeded"}))
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1213, Message: "deadlock found"}))
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1040}))

	// Duplicate key and syntax errors must never be retried.
	assert.False(t, IsTransient(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"}))
	assert.False(t, IsTransient(&mysql.MySQLError{Number: 1064}))
	assert.False(t, IsTransient(errors.New("some application error")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_ConnectionErrors(t *testing.T) {
	assert.True(t, IsTransient(mysql.ErrInvalidConn))

	var timeout net.Error = &net.DNSError{IsTimeout: true}
	assert.True(t, IsTransient(timeout))

	var notTimeout net.Error = &net.DNSError{IsTimeout: false}
	assert.False(t, IsTransient(notTimeout))
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	fastRetries(t)
	calls := 0
	err := WithRetry(context.Background(), "insert order_items", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &mysql.MySQLError{Number: 1213, Message: "deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NonTransientFailsImmediately(t *testing.T) {
	fastRetries(t)
	calls := 0
	dup := &mysql.MySQLError{Number: 1062, Message: "duplicate entry"}
	err := WithRetry(context.Background(), "insert tax_configurations", func(ctx context.Context) error {
		calls++
		return dup
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, dup)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	fastRetries(t)
	calls := 0
	err := WithRetry(context.Background(), "update tax_configurations", func(ctx context.Context) error {
		calls++
		return &mysql.MySQLError{Number: 1205, Message: "lock wait timeout exceeded"}
	})
	require.Error(t, err)
	assert.Equal(t, maxRetryAttempts, calls)
	assert.Contains(t, err.Error(), "update tax_configurations")
	assert.Contains(t, err.Error(), "lock wait timeout exceeded")
}

func TestWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Second
	t.Cleanup(func() { retryBaseDelay = old })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := WithRetry(ctx, "delete additional_charges", func(ctx context.Context) error {
		return &mysql.MySQLError{Number: 1213}
	})
	require.ErrorIs(t, err, context.Canceled)
}
