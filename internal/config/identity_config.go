package config

type IdentityConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetDevTokenSecret() string
	GetDevUserEmail() string
	GetDevUserName() string
}

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIssuerURL is the OIDC discovery issuer, e.g. "https://accounts.google.com"
func (Identity) GetIssuerURL() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Identity) GetClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Identity) GetClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

// GetRedirectURL is where the identity provider sends the browser back after sign-in
func (Identity) GetRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "http://localhost:8085/callback")
}

// GetDevTokenSecret enables the local HS256 identity provider when OIDC is not configured
func (Identity) GetDevTokenSecret() string {
	return GetEnv("DEV_TOKEN_SECRET", "")
}

// GetDevUserEmail is the identity the local provider signs in as
func (Identity) GetDevUserEmail() string {
	return GetEnv("DEV_USER_EMAIL", "dev@localhost")
}

func (Identity) GetDevUserName() string {
	return GetEnv("DEV_USER_NAME", "")
}
