package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWalksTheChain(t *testing.T) {
	wrapped := fmt.Errorf("failed to load statuses: %w", Configuration("missing task status", errors.New(`status "archive" is not defined`)))

	assert.True(t, IsConfiguration(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, "configuration", CodeOf(wrapped).String())
	assert.Equal(t, `failed to load statuses: missing task status: status "archive" is not defined`, wrapped.Error())
}

func TestPlainErrorsAreInternal(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(errors.New("boom")))
	assert.False(t, IsConfiguration(nil))
	assert.False(t, IsNotFound(nil))
}

func TestNotFoundUnwraps(t *testing.T) {
	err := NotFound("user", sql.ErrNoRows)

	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, "user not found: sql: no rows in result set", err.Error())
}
