package store

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	sqlite "modernc.org/sqlite"
)

// SQLite extended result codes used to classify write failures.
const (
	codeBusy                 = 5
	codeLocked               = 6
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

// IsUniqueViolation reports whether err is a UNIQUE (or primary key)
// constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == codeConstraintUnique || se.Code() == codeConstraintPrimaryKey
	}
	return false
}

// IsBusy reports whether err is a lock conflict, including one that
// survived the write retry.
func IsBusy(err error) bool {
	return isBusy(err)
}

// isBusy reports whether err is a transient lock conflict.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == codeBusy || code == codeLocked
	}
	return false
}

// withBusyRetry runs fn, retrying once after a short pause if the write
// lost a lock race. Constraint failures and other errors pass through.
func withBusyRetry(fn func() error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(50*time.Millisecond))
	return retry.Do(context.Background(), backoff, func(context.Context) error {
		err := fn()
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
