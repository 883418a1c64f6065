package oidcprovider_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shared-list/identity/oidcprovider"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	clientID = "shared-list"
	issuer   = "https://issuer.example.com"
)

type tokenServer struct {
	mu           sync.Mutex
	key          *rsa.PrivateKey
	nonce        string
	lastVerifier string
}

func (ts *tokenServer) verifier() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastVerifier
}

func (ts *tokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_ = r.ParseForm()
	ts.lastVerifier = r.PostForm.Get("code_verifier")

	idToken := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, jwtlib.MapClaims{
		"iss":   issuer,
		"aud":   clientID,
		"sub":   "user-ada",
		"email": "ada@example.com",
		"name":  "Ada",
		"nonce": ts.nonce,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := idToken.SignedString(ts.key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token":  "access",
		"refresh_token": "refresh",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"id_token":      signed,
	})
}

func newProvider(t *testing.T, nonce string) (*oidcprovider.Provider, *tokenServer) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ts := &tokenServer{key: key, nonce: nonce}
	srv := httptest.NewServer(ts)
	t.Cleanup(srv.Close)

	verifier := oidc.NewVerifier(issuer, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}, &oidc.Config{ClientID: clientID})
	return oidcprovider.NewWithVerifier(&oauth2.Config{
		ClientID:    clientID,
		Endpoint:    oauth2.Endpoint{AuthURL: issuer + "/authorize", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		RedirectURL: "http://localhost:8085/callback",
		Scopes:      []string{oidc.ScopeOpenID, "email"},
	}, verifier), ts
}

func TestAuthCodeURL(t *testing.T) {
	p, _ := newProvider(t, "n")

	raw := p.AuthCodeURL("state-1", "nonce-1", "verifier-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, oauth2.S256ChallengeFromVerifier("verifier-1"), q.Get("code_challenge"))
	require.Equal(t, clientID, q.Get("client_id"))
}

func TestExchange(t *testing.T) {
	p, ts := newProvider(t, "nonce-1")

	id, err := p.Exchange(context.Background(), "code", "verifier-1", "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "verifier-1", ts.verifier())
	require.Equal(t, "user-ada", id.Subject)
	require.Equal(t, "ada@example.com", id.Email)
	require.Equal(t, "Ada", id.Name)
	require.Equal(t, "access", id.AccessToken)
	require.Equal(t, "refresh", id.RefreshToken)
	require.NotEmpty(t, id.IDToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), id.Expiry, time.Minute)
}

func TestExchange_NonceMismatch(t *testing.T) {
	p, _ := newProvider(t, "replayed")

	_, err := p.Exchange(context.Background(), "code", "verifier-1", "nonce-1")
	require.True(t, errors.Is(err, errors.ErrInvalidNonce))
}

func TestExchange_UntrustedSigner(t *testing.T) {
	p, ts := newProvider(t, "nonce-1")
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ts.mu.Lock()
	ts.key = other
	ts.mu.Unlock()

	_, err = p.Exchange(context.Background(), "code", "verifier-1", "nonce-1")
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
}
