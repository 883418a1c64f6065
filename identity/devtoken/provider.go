package devtoken

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/internal/errors"
)

var _ identity.Provider = (*Provider)(nil)

const (
	ProviderName = "dev"
	issuer       = "sharedlist-dev"
)

// User is the identity the development provider signs in as.
type User struct {
	Subject string
	Email   string
	Name    string
}

// Provider approves every sign-in locally. The authorization code is itself an
// HS256 token carrying the identity, the nonce and the PKCE challenge, so the
// exchange can verify all three without a server.
type Provider struct {
	secret      []byte
	redirectURL string
	user        User
	expiry      time.Duration
	nowTime     func() time.Time
}

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

func WithNowTime(nowTime func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowTime = nowTime
	}
}

// WithExpiry sets how long issued sessions last.
func WithExpiry(d time.Duration) ProviderOption {
	return func(p *Provider) {
		p.expiry = d
	}
}

func New(secret, redirectURL string, user User, options ...ProviderOption) (*Provider, error) {
	if secret == "" {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[devtoken New] secret is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil, errors.Validation("dev user email is required")
	}
	if user.Subject == "" {
		user.Subject = "dev|" + strings.ToLower(strings.TrimSpace(user.Email))
	}
	p := &Provider{
		secret:      []byte(secret),
		redirectURL: redirectURL,
		user:        user,
		expiry:      time.Hour,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string { return ProviderName }

// User returns the identity this provider signs in as.
func (p *Provider) User() User { return p.user }

// AuthCodeURL returns the redirect URL with a code already attached.
func (p *Provider) AuthCodeURL(state, nonce, codeVerifier string) string {
	code, err := p.sign(nonce, codeChallenge(codeVerifier))
	if err != nil {
		// signing with an HMAC key only fails on an empty key, which New rejects
		return ""
	}
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)

	sep := "?"
	if strings.Contains(p.redirectURL, "?") {
		sep = "&"
	}
	return p.redirectURL + sep + q.Encode()
}

func (p *Provider) Exchange(_ context.Context, code, codeVerifier, nonce string) (*identity.Identity, error) {
	claims := jwtlib.MapClaims{}
	token, err := jwtlib.ParseWithClaims(code, claims, func(t *jwtlib.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(p.nowTime),
	)
	if err != nil || !token.Valid {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[devtoken Exchange] invalid code: %v", err)
	}

	if claimString(claims, "code_challenge") != codeChallenge(codeVerifier) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[devtoken Exchange] code verifier mismatch")
	}
	if claimString(claims, "nonce") != nonce {
		return nil, errors.ErrInvalidNonce
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "[devtoken Exchange] missing expiry")
	}
	return &identity.Identity{
		Subject:     claimString(claims, "sub"),
		Email:       claimString(claims, "email"),
		Name:        claimString(claims, "name"),
		AccessToken: code,
		IDToken:     code,
		Expiry:      exp.Time,
	}, nil
}

func (p *Provider) sign(nonce, challenge string) (string, error) {
	now := p.nowTime()
	claims := jwtlib.MapClaims{
		"iss":            issuer,
		"sub":            p.user.Subject,
		"email":          p.user.Email,
		"name":           p.user.Name,
		"nonce":          nonce,
		"code_challenge": challenge,
		"iat":            now.Unix(),
		"exp":            now.Add(p.expiry).Unix(),
		"jti":            uuid.New().String(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(p.secret)
}

// codeChallenge is the PKCE S256 transform of a verifier.
func codeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func claimString(claims jwtlib.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
