package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/httpserver"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/jrsteele09/go-shared-list/voice"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const replHelp = `commands:
  ls                   show the list
  add <text>           add an item
  edit <n> [text]      start editing item n
  draft <text>         replace the draft of the item being edited
  save [text]          save the edit
  cancel               discard the edit
  rm <n>               delete item n
  done <n>             toggle item n
  clear                delete every item (answer yes or no)
  voice | stop         start or stop dictation
  theme | lang         switch theme or language
  help | quit`

func (a *App) watchCommand() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the list on screen and edit it interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				displayAppname(a.out, a.cfg.GetAppName())
				if err := requireReady(rt, a.printer(rt)); err != nil {
					return err
				}
				return a.watch(cmd.Context(), rt, metricsAddr)
			})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", a.cfg.GetMetricsAddr(), "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}

type viewChangedMsg struct{ view []items.ListItem }

type voiceStateMsg struct{ state voice.State }

type commandDoneMsg struct{ err error }

// inputClosedMsg is sent once stdin is exhausted.
type inputClosedMsg struct{}

// watchModel is the interactive list: the current view on top, a command line
// below. Commands run one at a time, in the order they were entered.
type watchModel struct {
	ctx context.Context
	app *App
	rt  *Runtime

	view     []items.ListItem
	voice    voice.State
	input    textinput.Model
	queue    []string
	busy     bool
	notice   string
	err      error
	quitting bool
}

func newWatchModel(ctx context.Context, a *App, rt *Runtime) watchModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type help for commands"
	ti.CharLimit = 500
	ti.Focus()

	return watchModel{
		ctx:   ctx,
		app:   a,
		rt:    rt,
		view:  rt.Client.Items(),
		voice: rt.Client.Voice().State(),
		input: ti,
	}
}

func (a *App) watch(ctx context.Context, rt *Runtime, metricsAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		serveMetrics(gctx, g, metricsAddr, rt)
	}

	var program *tea.Program
	in := &closeNotifier{r: a.in, onClose: func() { program.Send(inputClosedMsg{}) }}
	program = tea.NewProgram(newWatchModel(gctx, a, rt),
		tea.WithInput(in),
		tea.WithOutput(a.out),
		tea.WithContext(gctx),
	)

	unsubscribe := rt.Client.Store().OnChange(func(view []items.ListItem) {
		program.Send(viewChangedMsg{view: view})
	})
	defer unsubscribe()
	unsubscribeVoice := rt.Client.OnVoiceState(func(state voice.State) {
		program.Send(voiceStateMsg{state: state})
	})
	defer unsubscribeVoice()

	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && gctx.Err() == nil {
			return errors.Wrapf(err, "[watch] run")
		}
		return nil
	})
	return g.Wait()
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, rt *Runtime) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", httpserver.Chain(rt.Metrics.Handler().ServeHTTP, httpserver.Logging("metrics"), httpserver.Recover))

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		return httpserver.Serve(ctx, httpserver.New(addr, mux))
	})
}

// closeNotifier calls onClose the first time r reports io.EOF.
type closeNotifier struct {
	r       io.Reader
	once    sync.Once
	onClose func()
}

func (c *closeNotifier) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if errors.Is(err, io.EOF) {
		c.once.Do(c.onClose)
	}
	return n, err
}

func (m watchModel) Init() tea.Cmd { return textinput.Blink }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewChangedMsg:
		m.view = msg.view
		return m, nil

	case voiceStateMsg:
		m.voice = msg.state
		if msg.state == voice.Idle {
			m.view = m.rt.Client.Items()
		}
		return m, nil

	case commandDoneMsg:
		m.busy = false
		m.err = msg.err
		m.view = m.rt.Client.Items()
		return m.next()

	case inputClosedMsg:
		m.queue = append(m.queue, "quit")
		return m.next()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter", "ctrl+j":
			m.queue = append(m.queue, m.input.Value())
			m.input.Reset()
			return m.next()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// next starts the oldest queued command unless one is still running. Commands
// that only touch the screen are handled here without a round trip.
func (m watchModel) next() (tea.Model, tea.Cmd) {
	for !m.busy && len(m.queue) > 0 {
		line := strings.TrimSpace(m.queue[0])
		m.queue = m.queue[1:]
		name, _, _ := strings.Cut(line, " ")

		switch strings.ToLower(name) {
		case "":
		case "quit", "exit", "q":
			m.quitting = true
			return m, tea.Quit
		case "help", "?":
			m.notice, m.err = replHelp, nil
		case "ls":
			m.notice, m.err = "", nil
			m.view = m.rt.Client.Items()
		default:
			m.notice, m.err = "", nil
			m.busy = true
			return m, m.run(line)
		}
	}
	return m, nil
}

func (m watchModel) run(line string) tea.Cmd {
	ctx, rt, p := m.ctx, m.rt, m.app.printer(m.rt)
	return func() tea.Msg {
		return commandDoneMsg{err: exec(ctx, rt, p, line)}
	}
}

func (m watchModel) View() string {
	var b strings.Builder
	p := m.app.printer(m.rt).to(&b)
	c := m.rt.Client

	p.List(m.app.cfg.GetAppName(), m.view, c.Edits().Snapshot())
	if c.DeleteAllPending() {
		p.Plain(p.T(i18n.MsgConfirmDeleteAll) + " [" + p.T(i18n.MsgYes) + "/" + p.T(i18n.MsgNo) + "]")
	}
	if m.voice == voice.Listening {
		p.Plain(p.T(i18n.MsgListening, c.Voice().Locale()))
	}
	if m.notice != "" {
		p.Plain(m.notice)
	}
	if m.err != nil {
		p.Error(m.err)
	}
	if m.quitting {
		return b.String()
	}
	b.WriteString(m.input.View())
	return b.String()
}

// exec runs one command line against the client. Writes redraw through the
// store's change notification.
func exec(ctx context.Context, rt *Runtime, p *Printer, line string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	c := rt.Client

	switch strings.ToLower(name) {
	case "add":
		_, err := c.Add(ctx, rest)
		return err
	case "edit":
		ref, draft, _ := strings.Cut(rest, " ")
		item, err := itemAt(c.Items(), ref)
		if err != nil {
			return err
		}
		if err := c.StartEdit(item.ID); err != nil {
			return err
		}
		if draft = strings.TrimSpace(draft); draft != "" {
			c.Edits().UpdateDraft(draft)
		}
	case "draft":
		c.Edits().UpdateDraft(rest)
	case "save":
		if rest != "" {
			c.Edits().UpdateDraft(rest)
		}
		return c.Edits().Save(ctx)
	case "cancel":
		c.Edits().Cancel()
	case "rm", "delete":
		item, err := itemAt(c.Items(), rest)
		if err != nil {
			return err
		}
		return c.Gateway().Delete(ctx, item.ID)
	case "done":
		item, err := itemAt(c.Items(), rest)
		if err != nil {
			return err
		}
		return c.Toggle(ctx, item.ID)
	case "clear":
		c.RequestDeleteAll()
	case "yes", "y":
		if c.DeleteAllPending() {
			return c.ConfirmDeleteAll(ctx)
		}
	case "no", "n":
		c.CancelDeleteAll()
	case "voice":
		if err := c.Voice().Start(ctx); err != nil {
			if errors.Is(err, errors.ErrUnsupported) {
				return errors.Wrapf(err, "%s", p.T(i18n.MsgNoVoice))
			}
			return err
		}
	case "stop":
		c.Voice().Stop()
	case "theme":
		if _, err := c.ToggleTheme(); err != nil {
			return err
		}
	case "lang":
		if _, err := c.ToggleLocale(); err != nil {
			return err
		}
	default:
		if isYes(line, c.Locale()) && c.DeleteAllPending() {
			return c.ConfirmDeleteAll(ctx)
		}
		return errors.Validation(fmt.Sprintf("unknown command %q, type help", name))
	}
	return nil
}
