package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// A malformed conversation id must fail before any filter is built;
// otherwise the query would run without its conversation constraint.
// The nil collection handle proves the guard fires before the store is
// touched.
func TestMarkReadRejectsMalformedConversationID(t *testing.T) {
	m := NewMessageRepository(nil, zap.NewNop())

	_, err := m.MarkRead(context.Background(), "not-a-hex-id", "reader")
	assert.ErrorIs(t, err, ErrInvalidConversationID)

	_, err = m.MarkRead(context.Background(), "", "reader")
	assert.ErrorIs(t, err, ErrInvalidConversationID)
}

func TestListBeforeRejectsMalformedConversationID(t *testing.T) {
	m := NewMessageRepository(nil, zap.NewNop())

	_, err := m.ListBefore(context.Background(), "not-a-hex-id", time.Now(), 50)
	assert.ErrorIs(t, err, ErrInvalidConversationID)

	_, err = m.ListBefore(context.Background(), "", time.Now(), 50)
	assert.ErrorIs(t, err, ErrInvalidConversationID)
}
