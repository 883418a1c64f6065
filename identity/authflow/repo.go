package authflow

import "time"

// FlowState is what SignIn remembers until the provider redirects back.
type FlowState struct {
	CodeVerifier string    `json:"code_verifier"`
	Nonce        string    `json:"nonce"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repo keeps pending sign-in flows keyed by the OAuth2 state parameter.
// Take returns and removes a flow so each state is used once; it returns
// errors.ErrInvalidState when the state is unknown.
type Repo interface {
	Upsert(state string, flow *FlowState) error
	Take(state string) (*FlowState, error)
}
