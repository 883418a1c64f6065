package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-shared-list/identity/authflow"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/profiles"
	"github.com/jrsteele09/go-shared-list/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type State int

const (
	Loading State = iota
	Unauthenticated
	Authorized
	Unauthorized
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// AccessChecker is satisfied by permissions.Service.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userID string) bool
}

// ProfileSyncer is satisfied by profiles.Sync.
type ProfileSyncer interface {
	Upsert(ctx context.Context, session *sessions.Session) (*profiles.Profile, error)
}

// Gate owns the client's single session and decides whether it may write.
type Gate struct {
	provider      Provider
	flows         authflow.Repo
	sessions      sessions.Repo
	access        AccessChecker
	profiles      ProfileSyncer
	nowTime       func() time.Time
	flowTimeout   time.Duration
	sessionExpiry time.Duration

	notifyMu    sync.Mutex // orders listener delivery
	mu          sync.RWMutex
	pass        uint64 // bumped by every sign-in, resume and sign-out
	state       State
	session     *sessions.Session
	hasAccess   bool
	displayName string
	listeners   map[int]func(State)
	nextID      int
}

// GateOption defines a function type to modify the Gate instance.
type GateOption func(*Gate)

func WithNowTime(nowTime func() time.Time) GateOption {
	return func(g *Gate) {
		g.nowTime = nowTime
	}
}

// WithFlowTimeout rejects callbacks that arrive later than d after SignIn.
func WithFlowTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.flowTimeout = d
	}
}

// WithSessionExpiry applies when the provider reports no token expiry.
func WithSessionExpiry(d time.Duration) GateOption {
	return func(g *Gate) {
		g.sessionExpiry = d
	}
}

func NewGate(provider Provider, flows authflow.Repo, sessionRepo sessions.Repo, access AccessChecker, profileSync ProfileSyncer, options ...GateOption) (*Gate, error) {
	if flows == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGate] auth flow repo is required")
	}
	if sessionRepo == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGate] session repo is required")
	}
	if access == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGate] access checker is required")
	}
	if profileSync == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGate] profile sync is required")
	}
	g := &Gate{
		provider:      provider,
		flows:         flows,
		sessions:      sessionRepo,
		access:        access,
		profiles:      profileSync,
		nowTime:       time.Now,
		flowTimeout:   10 * time.Minute,
		sessionExpiry: time.Hour,
		state:         Loading,
		listeners:     make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Subscribe registers fn for every state transition and returns a function that removes it.
func (g *Gate) Subscribe(fn func(State)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners, id)
	}
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Session returns a copy of the current session, or nil.
func (g *Gate) Session() *sessions.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil
	}
	s := *g.session
	return &s
}

func (g *Gate) HasAccess() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasAccess
}

// DisplayName is the name stored by the last profile sync.
func (g *Gate) DisplayName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.displayName
}

// Authorize returns the session when writes are allowed.
func (g *Gate) Authorize() (*sessions.Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.session == nil {
		return nil, errors.ErrNoSession
	}
	if g.session.Expired(g.nowTime()) {
		return nil, errors.Wrapf(errors.ErrNoSession, "%v", errors.ErrSessionExpired)
	}
	if !g.hasAccess {
		return nil, errors.ErrNoAccess
	}
	s := *g.session
	return &s, nil
}

// Resume restores a persisted session on start-up and runs the gating sequence.
func (g *Gate) Resume(ctx context.Context) error {
	pass := g.begin()
	g.transitionIf(pass, Loading)

	session, err := g.sessions.Load()
	if err != nil {
		log.Err(err).Msg("Error loading session")
		g.clear()
		return errors.Wrapf(err, "[Gate Resume] load session")
	}
	if session == nil {
		g.clear()
		return nil
	}
	if !session.Valid(g.nowTime()) {
		log.Info().Str("user_id", session.UserID).Msg("Stored session expired")
		if err := g.sessions.Delete(); err != nil {
			log.Err(err).Msg("Error deleting expired session")
		}
		g.clear()
		return nil
	}

	g.establish(ctx, pass, session)
	return nil
}

// SignIn starts a redirect flow and returns the URL the user must open.
func (g *Gate) SignIn(_ context.Context) (string, error) {
	if g.provider == nil {
		return "", errors.Wrapf(errors.ErrUnsupported, "[Gate SignIn] no identity provider configured")
	}

	state, err := randomString(32)
	if err != nil {
		return "", errors.Wrapf(err, "[Gate SignIn] state")
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", errors.Wrapf(err, "[Gate SignIn] nonce")
	}
	verifier := oauth2.GenerateVerifier()

	if err := g.flows.Upsert(state, &authflow.FlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		CreatedAt:    g.nowTime(),
	}); err != nil {
		return "", errors.Wrapf(err, "[Gate SignIn] save flow")
	}

	log.Debug().Str("provider", g.provider.Name()).Msg("Sign-in started")
	return g.provider.AuthCodeURL(state, nonce, verifier), nil
}

// Callback completes a redirect flow started by SignIn.
func (g *Gate) Callback(ctx context.Context, code, state string) error {
	if g.provider == nil {
		return errors.Wrapf(errors.ErrUnsupported, "[Gate Callback] no identity provider configured")
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return errors.Validation("missing code or state parameter")
	}

	flow, err := g.flows.Take(state)
	if err != nil {
		return errors.Wrapf(err, "[Gate Callback]")
	}
	if g.flowTimeout > 0 && g.nowTime().Sub(flow.CreatedAt) > g.flowTimeout {
		return errors.Wrapf(errors.ErrInvalidState, "[Gate Callback] sign-in took too long")
	}

	id, err := g.provider.Exchange(ctx, code, flow.CodeVerifier, flow.Nonce)
	if err != nil {
		log.Err(err).Str("provider", g.provider.Name()).Msg("Code exchange failed")
		return errors.Wrapf(err, "[Gate Callback] exchange")
	}

	now := g.nowTime()
	expiresAt := id.Expiry
	if expiresAt.IsZero() {
		expiresAt = now.Add(g.sessionExpiry)
	}
	session := &sessions.Session{
		UserID:       id.Subject,
		Email:        id.Email,
		DisplayName:  id.Name,
		Provider:     g.provider.Name(),
		AccessToken:  id.AccessToken,
		RefreshToken: id.RefreshToken,
		IDToken:      id.IDToken,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if !session.Valid(now) {
		return errors.Wrapf(errors.ErrUnauthorized, "[Gate Callback] provider returned no subject")
	}
	if err := g.sessions.Save(session); err != nil {
		return errors.Wrapf(err, "[Gate Callback] save session")
	}

	log.Info().Str("user_id", session.UserID).Str("provider", session.Provider).Msg("Signed in")
	g.establish(ctx, g.begin(), session)
	return nil
}

// SignOut forgets the session and everything derived from it.
func (g *Gate) SignOut(_ context.Context) error {
	err := g.sessions.Delete()
	if err != nil {
		log.Err(err).Msg("Error deleting session")
	}
	g.clear()
	return errors.Wrapf(err, "[Gate SignOut]")
}

// begin starts a gating pass. Any pass started earlier stops applying results.
func (g *Gate) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pass++
	return g.pass
}

// establish runs the gating sequence: access check, then profile sync. Results
// that come back after a newer pass or a sign-out are dropped.
func (g *Gate) establish(ctx context.Context, pass uint64, session *sessions.Session) {
	g.mu.Lock()
	if pass != g.pass {
		g.mu.Unlock()
		return
	}
	g.session = session
	g.hasAccess = false
	g.displayName = session.DisplayName
	g.mu.Unlock()

	hasAccess := g.access.CheckAccess(ctx, session.UserID)
	g.mu.Lock()
	if pass != g.pass {
		g.mu.Unlock()
		log.Debug().Str("user_id", session.UserID).Msg("Dropping access check for a superseded session")
		return
	}
	g.hasAccess = hasAccess
	g.mu.Unlock()
	if hasAccess {
		if !g.transitionIf(pass, Authorized) {
			return
		}
	} else {
		log.Info().Str("user_id", session.UserID).Msg("User has no access to the list")
		if !g.transitionIf(pass, Unauthorized) {
			return
		}
	}

	profile, err := g.profiles.Upsert(ctx, session)
	if err != nil {
		log.Err(err).Str("user_id", session.UserID).Msg("Error syncing profile")
	} else {
		g.mu.Lock()
		if pass == g.pass {
			g.displayName = profile.DisplayName
		}
		g.mu.Unlock()
	}

	if hasAccess {
		g.transitionIf(pass, Ready)
	}
}

// clear drops the session and ends any gating pass still running.
func (g *Gate) clear() {
	g.mu.Lock()
	g.pass++
	pass := g.pass
	g.session = nil
	g.hasAccess = false
	g.displayName = ""
	g.mu.Unlock()
	g.transitionIf(pass, Unauthenticated)
}

// transitionIf moves to s and notifies listeners, unless pass is out of date.
// Listeners see transitions in the order they were made.
func (g *Gate) transitionIf(pass uint64, s State) bool {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()

	g.mu.Lock()
	if pass != g.pass {
		g.mu.Unlock()
		return false
	}
	g.state = s
	listeners := make([]func(State), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
	return true
}

func randomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
