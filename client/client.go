package client

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shared-list/editsession"
	"github.com/jrsteele09/go-shared-list/feed"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/jrsteele09/go-shared-list/mutations"
	"github.com/jrsteele09/go-shared-list/preferences"
	"github.com/jrsteele09/go-shared-list/voice"
	"github.com/rs/zerolog/log"
)

// Dependencies are the backend adapters and owned objects a client is built from.
type Dependencies struct {
	Gate        *identity.Gate
	Items       items.Repo
	Feed        feed.Source
	Speech      voice.Capability // nil when the device has no recogniser
	Preferences *preferences.Store
	Metrics     *metrics.Metrics
}

// Client wires the list engine for one device and owns its lifecycle.
type Client struct {
	gate       *identity.Gate
	store      *items.Store
	gateway    *mutations.Gateway
	edits      *editsession.Session
	subscriber *feed.ChangeSubscriber
	voice      *voice.Controller
	prefs      *preferences.Store

	mu             sync.Mutex
	ctx            context.Context
	unsubscribe    func()
	confirmPending bool
	voiceListeners map[int]func(voice.State)
	nextListener   int
}

func New(deps Dependencies) (*Client, error) {
	if deps.Gate == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[client New] identity gate is required")
	}
	if deps.Preferences == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[client New] preferences are required")
	}

	store, err := items.NewStore(deps.Items, items.WithMetrics(deps.Metrics))
	if err != nil {
		return nil, err
	}
	gateway, err := mutations.NewGateway(deps.Items, deps.Gate, store, mutations.WithMetrics(deps.Metrics))
	if err != nil {
		return nil, err
	}
	edits := editsession.New(gateway)
	gateway.SetEditSession(edits)

	subscriber, err := feed.NewChangeSubscriber(deps.Feed, store, feed.WithMetrics(deps.Metrics))
	if err != nil {
		return nil, err
	}
	c := &Client{
		gate:           deps.Gate,
		store:          store,
		gateway:        gateway,
		edits:          edits,
		subscriber:     subscriber,
		prefs:          deps.Preferences,
		voiceListeners: map[int]func(voice.State){},
	}
	c.voice, err = voice.NewController(deps.Speech, gateway,
		voice.WithLocale(deps.Preferences.Get().Locale),
		voice.WithStateListener(c.voiceStateChanged),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Open resumes the stored session. Once the gate is ready the list is fetched and
// kept live; losing the session or the access grant stops the feed and clears the view.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return nil
	}
	c.ctx = ctx
	c.unsubscribe = c.gate.Subscribe(c.onGateState)
	c.mu.Unlock()

	if err := c.gate.Resume(ctx); err != nil {
		return err
	}
	return nil
}

// Close tears down the feed, voice capture and edit session.
func (c *Client) Close() error {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.confirmPending = false
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	err := c.subscriber.Close()
	c.voice.Close()
	c.edits.Cancel()
	return err
}

func (c *Client) onGateState(s identity.State) {
	switch s {
	case identity.Ready:
		c.startSync()
	case identity.Unauthenticated, identity.Unauthorized:
		c.stopSync()
	}
}

func (c *Client) startSync() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil {
		return
	}

	if !c.subscriber.Active() {
		if err := c.subscriber.Start(ctx); err != nil {
			log.Err(err).Msg("Live updates unavailable")
		}
	}
	// errors are logged by the store; the view stays as it was
	_, _ = c.store.Fetch(ctx)
}

func (c *Client) stopSync() {
	if err := c.subscriber.Close(); err != nil {
		log.Err(err).Msg("Error closing change feed")
	}
	c.voice.Stop()
	c.edits.Cancel()
	c.store.Clear()
	c.CancelDeleteAll()
}

// OnVoiceState registers fn for voice Idle/Listening transitions. The returned
// func removes it.
func (c *Client) OnVoiceState(fn func(voice.State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.voiceListeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.voiceListeners, id)
	}
}

func (c *Client) voiceStateChanged(s voice.State) {
	c.mu.Lock()
	listeners := make([]func(voice.State), 0, len(c.voiceListeners))
	for _, fn := range c.voiceListeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (c *Client) Gate() *identity.Gate               { return c.gate }
func (c *Client) Store() *items.Store                { return c.store }
func (c *Client) Gateway() *mutations.Gateway        { return c.gateway }
func (c *Client) Edits() *editsession.Session        { return c.edits }
func (c *Client) Voice() *voice.Controller           { return c.voice }
func (c *Client) Preferences() *preferences.Store    { return c.prefs }
func (c *Client) Subscriber() *feed.ChangeSubscriber { return c.subscriber }
func (c *Client) Items() []items.ListItem            { return c.store.Items() }

// Refresh reloads the view.
func (c *Client) Refresh(ctx context.Context) ([]items.ListItem, error) {
	return c.store.Fetch(ctx)
}

// Add creates an item from typed or dictated text.
func (c *Client) Add(ctx context.Context, text string) (*items.ListItem, error) {
	return c.gateway.Add(ctx, text)
}

// Toggle flips an item's completion using the state currently shown.
func (c *Client) Toggle(ctx context.Context, itemID string) error {
	item, ok := c.store.Find(itemID)
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "[Client Toggle] item %s", itemID)
	}
	return c.gateway.ToggleCompletion(ctx, item.ID, item.Completed)
}

// StartEdit opens the edit slot on a visible item.
func (c *Client) StartEdit(itemID string) error {
	item, ok := c.store.Find(itemID)
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "[Client StartEdit] item %s", itemID)
	}
	c.edits.Start(item)
	return nil
}

// RequestDeleteAll asks for confirmation before the list is emptied.
func (c *Client) RequestDeleteAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmPending = true
}

func (c *Client) DeleteAllPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmPending
}

// ConfirmDeleteAll empties the list if RequestDeleteAll came first.
func (c *Client) ConfirmDeleteAll(ctx context.Context) error {
	c.mu.Lock()
	confirmed := c.confirmPending
	c.confirmPending = false
	c.mu.Unlock()
	return c.gateway.DeleteAll(ctx, confirmed)
}

func (c *Client) CancelDeleteAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmPending = false
}

func (c *Client) ToggleTheme() (preferences.Theme, error) {
	return c.prefs.ToggleTheme()
}

// SetLocale selects the UI locale; the next dictation uses it too.
func (c *Client) SetLocale(tag string) (string, error) {
	locale, err := c.prefs.SetLocale(tag)
	if err != nil {
		return "", err
	}
	c.voice.SetLocale(locale)
	return locale, nil
}

// ToggleLocale switches the UI locale; the next dictation uses it too.
func (c *Client) ToggleLocale() (string, error) {
	locale, err := c.prefs.ToggleLocale()
	c.voice.SetLocale(locale)
	return locale, err
}

func (c *Client) Locale() string {
	return c.prefs.Get().Locale
}
