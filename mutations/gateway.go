package mutations

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/jrsteele09/go-shared-list/sessions"
	"github.com/rs/zerolog/log"
)

// Operation names used in logs and metrics
const (
	OpAdd       = "add"
	OpEdit      = "edit"
	OpDelete    = "delete"
	OpDeleteAll = "delete_all"
	OpToggle    = "toggle"
)

// Authorizer returns the active session when the client may write, otherwise an
// error wrapping errors.ErrUnauthorized.
type Authorizer interface {
	Authorize() (*sessions.Session, error)
}

// Refresher reloads the list view after a confirmed write.
type Refresher interface {
	Fetch(ctx context.Context) ([]items.ListItem, error)
}

// EditClearer ends the local edit of an item once the server has the new text.
type EditClearer interface {
	ClearIf(itemID string)
}

// Gateway issues list writes. Nothing changes locally until the backend confirms
// a write; the view then catches up through a full refresh.
type Gateway struct {
	repo      items.Repo
	auth      Authorizer
	refresher Refresher
	edits     EditClearer
	validate  *validator.Validate
	metrics   *metrics.Metrics
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

func WithMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithEditSession lets successful edits close the matching local edit.
func WithEditSession(edits EditClearer) GatewayOption {
	return func(g *Gateway) {
		g.edits = edits
	}
}

func NewGateway(repo items.Repo, auth Authorizer, refresher Refresher, options ...GatewayOption) (*Gateway, error) {
	if repo == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGateway] items repo is required")
	}
	if auth == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGateway] authorizer is required")
	}
	if refresher == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewGateway] refresher is required")
	}
	g := &Gateway{
		repo:      repo,
		auth:      auth,
		refresher: refresher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// SetEditSession attaches the edit session after construction.
func (g *Gateway) SetEditSession(edits EditClearer) {
	g.edits = edits
}

// Add creates an item from text, which must not be blank.
func (g *Gateway) Add(ctx context.Context, text string) (*items.ListItem, error) {
	text = strings.TrimSpace(text)
	if err := g.validate.Var(text, "required"); err != nil {
		return nil, g.reject(OpAdd, errors.Validation("item text is empty"))
	}
	session, err := g.authorize(OpAdd)
	if err != nil {
		return nil, err
	}

	newItem := items.NewItem{Text: text, CreatedBy: session.UserID}
	if err := g.validate.Struct(newItem); err != nil {
		return nil, g.reject(OpAdd, errors.Validation(err.Error()))
	}

	created, err := g.repo.Insert(ctx, newItem)
	if err != nil {
		return nil, g.fail(OpAdd, "", err)
	}
	g.succeed(ctx, OpAdd, created.ID)
	return created, nil
}

// Edit replaces an item's text, which must not be blank.
func (g *Gateway) Edit(ctx context.Context, itemID, newText string) error {
	newText = strings.TrimSpace(newText)
	if err := g.validate.Var(newText, "required"); err != nil {
		return g.reject(OpEdit, errors.Validation("item text is empty"))
	}
	if err := g.requireID(OpEdit, itemID); err != nil {
		return err
	}
	if _, err := g.authorize(OpEdit); err != nil {
		return err
	}

	if err := g.repo.UpdateText(ctx, itemID, newText); err != nil {
		return g.fail(OpEdit, itemID, err)
	}
	if g.edits != nil {
		g.edits.ClearIf(itemID)
	}
	g.succeed(ctx, OpEdit, itemID)
	return nil
}

// Delete removes one item.
func (g *Gateway) Delete(ctx context.Context, itemID string) error {
	if err := g.requireID(OpDelete, itemID); err != nil {
		return err
	}
	if _, err := g.authorize(OpDelete); err != nil {
		return err
	}

	if err := g.repo.Delete(ctx, itemID); err != nil {
		return g.fail(OpDelete, itemID, err)
	}
	g.succeed(ctx, OpDelete, itemID)
	return nil
}

// DeleteAll removes every item. confirmed must carry the user's explicit yes.
func (g *Gateway) DeleteAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return g.reject(OpDeleteAll, errors.Wrapf(errors.ErrConfirmationRequired, "[Gateway DeleteAll]"))
	}
	if _, err := g.authorize(OpDeleteAll); err != nil {
		return err
	}

	if err := g.repo.DeleteAll(ctx); err != nil {
		return g.fail(OpDeleteAll, "", err)
	}
	g.succeed(ctx, OpDeleteAll, "")
	return nil
}

// ToggleCompletion sets completed to !currentCompleted. The flip is computed from
// the caller's value, not atomically on the server, so a stale value re-applies
// the state the caller saw rather than the opposite of what is stored.
func (g *Gateway) ToggleCompletion(ctx context.Context, itemID string, currentCompleted bool) error {
	if err := g.requireID(OpToggle, itemID); err != nil {
		return err
	}
	if _, err := g.authorize(OpToggle); err != nil {
		return err
	}

	if err := g.repo.SetCompleted(ctx, itemID, !currentCompleted); err != nil {
		return g.fail(OpToggle, itemID, err)
	}
	g.succeed(ctx, OpToggle, itemID)
	return nil
}

func (g *Gateway) requireID(op, itemID string) error {
	if err := g.validate.Var(strings.TrimSpace(itemID), "required"); err != nil {
		return g.reject(op, errors.Validation("item id is required"))
	}
	return nil
}

func (g *Gateway) authorize(op string) (*sessions.Session, error) {
	session, err := g.auth.Authorize()
	if err != nil {
		g.metrics.Mutation(op, "unauthorized")
		log.Warn().Err(err).Str("op", op).Msg("Mutation blocked")
		return nil, err
	}
	return session, nil
}

func (g *Gateway) reject(op string, err error) error {
	g.metrics.Mutation(op, "invalid")
	log.Debug().Err(err).Str("op", op).Msg("Mutation rejected")
	return err
}

func (g *Gateway) fail(op, itemID string, err error) error {
	g.metrics.Mutation(op, "error")
	log.Err(err).Str("op", op).Str("item_id", itemID).Msg("Mutation failed")
	if errors.Is(err, errors.ErrNotFound) {
		return errors.Wrapf(err, "[Gateway %s]", op)
	}
	return errors.Backend(errors.Wrapf(err, "[Gateway %s]", op))
}

func (g *Gateway) succeed(ctx context.Context, op, itemID string) {
	g.metrics.Mutation(op, "ok")
	log.Debug().Str("op", op).Str("item_id", itemID).Msg("Mutation applied")
	// refresh failures are logged by the store; the write itself succeeded
	_, _ = g.refresher.Fetch(ctx)
}
