package repo

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidUserID         = errors.New("invalid user ID: cannot be empty")
	ErrInvalidConversationID = errors.New("invalid conversation ID")
	ErrInvalidMessage        = errors.New("invalid message: message cannot be nil")
	ErrNotFound              = errors.New("document not found")
	ErrDuplicateEmail        = errors.New("email already in use")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second
)

// ensureTimeout caps a context without a deadline at the given timeout.
func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
