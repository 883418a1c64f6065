package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	require.NoError(t, errors.Wrapf(nil, "context %d", 1))

	base := stderrors.New("boom")
	err := errors.Wrapf(base, "[Store Fetch] query %s", "items")
	require.EqualError(t, err, "[Store Fetch] query items: boom")
	require.True(t, errors.Is(err, base))
}

func TestBackend(t *testing.T) {
	require.NoError(t, errors.Backend(nil))

	base := stderrors.New("connection refused")
	err := errors.Backend(base)
	require.True(t, errors.Is(err, errors.ErrBackend))
	require.True(t, errors.Is(err, base))

	// Already categorised errors are not wrapped twice
	require.Equal(t, err, errors.Backend(err))
}

func TestAuthorizationErrors(t *testing.T) {
	require.True(t, errors.Is(errors.ErrNoSession, errors.ErrUnauthorized))
	require.True(t, errors.Is(errors.ErrNoAccess, errors.ErrUnauthorized))
	require.False(t, errors.Is(errors.ErrNoAccess, errors.ErrBackend))
}

func TestValidation(t *testing.T) {
	err := errors.Validation("text is empty")
	require.True(t, errors.Is(err, errors.ErrValidation))
	require.Contains(t, err.Error(), "text is empty")
}

func TestConfirmationRequiredIsValidation(t *testing.T) {
	err := errors.Wrapf(errors.ErrConfirmationRequired, "[Gateway DeleteAll]")
	require.True(t, errors.Is(err, errors.ErrConfirmationRequired))
	require.True(t, errors.Is(err, errors.ErrValidation))
	require.False(t, errors.Is(errors.ErrValidation, errors.ErrConfirmationRequired))
}
