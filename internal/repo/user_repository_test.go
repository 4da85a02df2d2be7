package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// An id that cannot name any user resolves to not-found rather than a
// store error, so callers treat it like any other unknown user.
func TestUserFindByIDMalformedIDIsNotFound(t *testing.T) {
	r := NewUserRepository(nil, zap.NewNop())

	_, err := r.FindByID(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrNotFound)
}
