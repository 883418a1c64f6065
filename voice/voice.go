package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/rs/zerolog/log"
)

// Capability is a speech-to-text facility that may or may not exist on this device.
type Capability interface {
	Available() bool
	Start(ctx context.Context, locale string) (Capture, error)
}

// Capture is one running recognition session.
// Transcripts is closed when the capture ends; Done is closed once its resources are released.
type Capture interface {
	Transcripts() <-chan string
	Done() <-chan struct{}
	Stop()
}

// Adder receives recognised text. mutations.Gateway satisfies it.
type Adder interface {
	Add(ctx context.Context, text string) (*items.ListItem, error)
}

type State int

const (
	Idle State = iota
	Listening
)

func (s State) String() string {
	if s == Listening {
		return "listening"
	}
	return "idle"
}

// Controller drives the Idle/Listening machine. At most one capture runs at a time.
type Controller struct {
	capability Capability
	adder      Adder

	mu       sync.Mutex
	state    State
	starting bool // a capture is being opened without the lock held
	locale   string
	gen      uint64
	capture  Capture
	cancel   context.CancelFunc
	watchers sync.WaitGroup
	onState  func(State)
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

func WithLocale(tag string) ControllerOption {
	return func(c *Controller) {
		c.locale = tag
	}
}

// WithStateListener is called after every state change, outside the controller lock.
func WithStateListener(fn func(State)) ControllerOption {
	return func(c *Controller) {
		c.onState = fn
	}
}

func NewController(capability Capability, adder Adder, options ...ControllerOption) (*Controller, error) {
	if adder == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewController] adder is required")
	}
	c := &Controller{
		capability: capability,
		adder:      adder,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Locale() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

// SetLocale applies to captures started afterwards.
func (c *Controller) SetLocale(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = tag
}

// Start begins listening. Without a capability the controller stays Idle and
// errors.ErrUnsupported is returned. Starting while already listening is a no-op.
// A Stop that arrives while the capture is still opening wins: the capture is
// released and the controller stays Idle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Listening || c.starting {
		c.mu.Unlock()
		return nil
	}
	if c.capability == nil || !c.capability.Available() {
		c.mu.Unlock()
		log.Warn().Msg("Speech recognition is not available")
		return errors.Wrapf(errors.ErrUnsupported, "[Controller Start] speech recognition")
	}
	c.gen++
	gen := c.gen
	c.starting = true
	locale := c.locale
	c.mu.Unlock()

	captureCtx, cancel := context.WithCancel(ctx)
	capture, err := c.capability.Start(captureCtx, locale)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		cancel()
		if err == nil {
			capture.Stop()
		}
		log.Debug().Str("locale", locale).Msg("Speech capture stopped while starting")
		return nil
	}
	c.starting = false
	if err != nil {
		c.mu.Unlock()
		cancel()
		log.Err(err).Str("locale", locale).Msg("Error starting speech capture")
		return errors.Wrapf(err, "[Controller Start] capture")
	}
	c.state = Listening
	c.capture = capture
	c.cancel = cancel
	c.watchers.Add(1)
	listener := c.onState
	c.mu.Unlock()

	log.Debug().Str("locale", locale).Msg("Listening")
	notify(listener, Listening)
	go c.watch(captureCtx, capture, gen)
	return nil
}

// Stop ends the current capture and releases the device. It is a no-op when Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.starting {
		c.gen++
		c.starting = false
		c.mu.Unlock()
		return
	}
	if c.state != Listening {
		c.mu.Unlock()
		return
	}
	capture, cancel := c.capture, c.cancel
	c.reset()
	listener := c.onState
	c.mu.Unlock()

	capture.Stop()
	cancel()
	notify(listener, Idle)
}

// Close stops any capture and waits until its watcher has exited.
func (c *Controller) Close() {
	c.Stop()
	c.watchers.Wait()
}

func (c *Controller) watch(ctx context.Context, capture Capture, gen uint64) {
	defer c.watchers.Done()

	select {
	case text, ok := <-capture.Transcripts():
		text = strings.TrimSpace(text)
		if ok && text != "" && c.current(gen) {
			if _, err := c.adder.Add(ctx, text); err != nil {
				log.Err(err).Msg("Error adding dictated item")
			}
		}
	case <-capture.Done():
	case <-ctx.Done():
	}

	c.finish(gen, capture)
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Listening && c.gen == gen
}

func (c *Controller) finish(gen uint64, capture Capture) {
	c.mu.Lock()
	if c.gen != gen || c.state != Listening {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.reset()
	listener := c.onState
	c.mu.Unlock()

	capture.Stop()
	cancel()
	notify(listener, Idle)
}

func (c *Controller) reset() {
	c.state = Idle
	c.capture = nil
	c.cancel = nil
}

func notify(fn func(State), s State) {
	if fn != nil {
		fn(s)
	}
}
