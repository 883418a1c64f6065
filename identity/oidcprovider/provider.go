package oidcprovider

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/internal/config"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"golang.org/x/oauth2"
)

var _ identity.Provider = (*Provider)(nil)

const ProviderName = "oidc"

// Provider signs users in against an OpenID Connect issuer.
type Provider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// New discovers the issuer's endpoints and keys.
func New(ctx context.Context, cfg config.IdentityConfig) (*Provider, error) {
	if cfg.GetIssuerURL() == "" || cfg.GetClientID() == "" {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[oidcprovider New] issuer and client id are required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.GetIssuerURL())
	if err != nil {
		return nil, errors.Backend(errors.Wrapf(err, "[oidcprovider New] failed to create OIDC provider"))
	}

	return NewWithVerifier(&oauth2.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.GetRedirectURL(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess},
	}, provider.Verifier(&oidc.Config{
		ClientID: cfg.GetClientID(),
	})), nil
}

// NewWithVerifier builds a provider from explicit endpoints, skipping discovery.
func NewWithVerifier(oauthConfig *oauth2.Config, verifier *oidc.IDTokenVerifier) *Provider {
	return &Provider{oauth: oauthConfig, verifier: verifier}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) AuthCodeURL(state, nonce, codeVerifier string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(nonce), oauth2.S256ChallengeOption(codeVerifier))
}

func (p *Provider) Exchange(ctx context.Context, code, codeVerifier, nonce string) (*identity.Identity, error) {
	oauth2Token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, errors.Backend(errors.Wrapf(err, "[Provider Exchange] token exchange failed"))
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[Provider Exchange] no ID token in response")
	}

	// Verify the ID token signature and claims
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[Provider Exchange] ID token verification failed: %v", err)
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrapf(err, "[Provider Exchange] failed to extract claims")
	}

	// Validate nonce to prevent replay attacks
	if claims.Nonce != nonce {
		return nil, errors.ErrInvalidNonce
	}

	return &identity.Identity{
		Subject:      claims.Sub,
		Email:        claims.Email,
		Name:         claims.Name,
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		IDToken:      rawIDToken,
		Expiry:       oauth2Token.Expiry,
	}, nil
}
