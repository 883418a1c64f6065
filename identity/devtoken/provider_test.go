package devtoken_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-shared-list/identity/devtoken"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/stretchr/testify/require"
)

func codeFrom(t *testing.T, raw string) (code, state string) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("code"), u.Query().Get("state")
}

func TestNew_Validation(t *testing.T) {
	_, err := devtoken.New("", "http://localhost/callback", devtoken.User{Email: "a@b.c"})
	require.Error(t, err)
	_, err = devtoken.New("secret", "http://localhost/callback", devtoken.User{})
	require.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRoundTrip(t *testing.T) {
	p, err := devtoken.New("secret", "http://localhost:8085/callback", devtoken.User{Email: "Ada@Example.com", Name: "Ada"})
	require.NoError(t, err)

	code, state := codeFrom(t, p.AuthCodeURL("state-1", "nonce-1", "verifier-1"))
	require.Equal(t, "state-1", state)
	require.NotEmpty(t, code)

	id, err := p.Exchange(context.Background(), code, "verifier-1", "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "dev|ada@example.com", id.Subject)
	require.Equal(t, "Ada@Example.com", id.Email)
	require.Equal(t, "Ada", id.Name)
	require.False(t, id.Expiry.IsZero())
}

func TestExchange_Rejections(t *testing.T) {
	p, err := devtoken.New("secret", "http://localhost:8085/callback?x=1", devtoken.User{Email: "ada@example.com"})
	require.NoError(t, err)
	raw := p.AuthCodeURL("state-1", "nonce-1", "verifier-1")
	require.Contains(t, raw, "?x=1&")
	code, _ := codeFrom(t, raw)

	_, err = p.Exchange(context.Background(), code, "other-verifier", "nonce-1")
	require.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = p.Exchange(context.Background(), code, "verifier-1", "other-nonce")
	require.True(t, errors.Is(err, errors.ErrInvalidNonce))

	forged, err := devtoken.New("another-secret", "http://localhost:8085/callback", devtoken.User{Email: "ada@example.com"})
	require.NoError(t, err)
	forgedCode, _ := codeFrom(t, forged.AuthCodeURL("s", "nonce-1", "verifier-1"))
	_, err = p.Exchange(context.Background(), forgedCode, "verifier-1", "nonce-1")
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestExchange_ExpiredCode(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	old, err := devtoken.New("secret", "http://localhost/callback", devtoken.User{Email: "ada@example.com"},
		devtoken.WithNowTime(func() time.Time { return issued }), devtoken.WithExpiry(time.Hour))
	require.NoError(t, err)
	code, _ := codeFrom(t, old.AuthCodeURL("s", "n", "v"))

	p, err := devtoken.New("secret", "http://localhost/callback", devtoken.User{Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = p.Exchange(context.Background(), code, "v", "n")
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
}
