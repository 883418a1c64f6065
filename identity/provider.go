package identity

import (
	"context"
	"time"
)

// Identity is what a provider vouches for after a successful code exchange.
type Identity struct {
	Subject      string
	Email        string
	Name         string
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

// Provider runs the authorization-code flow with PKCE against one identity provider.
type Provider interface {
	Name() string
	// AuthCodeURL is the page the user opens to sign in.
	AuthCodeURL(state, nonce, codeVerifier string) string
	// Exchange trades the code for a verified identity. The ID token's nonce must match.
	Exchange(ctx context.Context, code, codeVerifier, nonce string) (*Identity, error)
}
