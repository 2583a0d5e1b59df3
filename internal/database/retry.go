package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Retry policy for transient storage failures: up to 3 attempts with
// exponential backoff (500ms, then 1s). Delay is a variable so tests can
// shrink it.
const maxRetryAttempts = 3

var retryBaseDelay = 500 * time.Millisecond

// MySQL server error numbers treated as transient. Everything else fails the
// statement immediately.
//
//	1040 too many connections
//	1205 lock wait timeout exceeded
//	1213 deadlock found when trying to get lock
//	1317 query execution was interrupted
var transientMySQLNumbers = map[uint16]bool{
	1040: true,
	1205: true,
	1213: true,
	1317: true,
}

// IsTransient reports whether err is a recognized transient storage failure.
// Classification is by error code/kind only: MySQL server error numbers,
// dropped driver connections, and network timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return transientMySQLNumbers[myErr.Number]
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// WithRetry executes fn up to maxRetryAttempts times, backing off between
// attempts. Non-transient errors are returned immediately without retry.
// Exhausting all attempts returns an error naming the operation and wrapping
// the last underlying failure.
func WithRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var last error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !IsTransient(last) {
			return last
		}
	}
	return fmt.Errorf("%s: retries exhausted after %d attempts: %w", op, maxRetryAttempts, last)
}
