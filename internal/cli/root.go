package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/internal/config"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/logging"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/spf13/cobra"
)

// App carries what every command needs: configuration, terminal streams and a
// way to open the runtime.
type App struct {
	cfg    config.Config
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	shared *Runtime
}

// AppOption defines a function type to modify the App instance.
type AppOption func(*App)

// WithRuntime makes every command use rt instead of opening its own. The caller
// owns rt and closes it.
func WithRuntime(rt *Runtime) AppOption {
	return func(a *App) {
		a.shared = rt
	}
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) AppOption {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

// NewRootCommand builds the sharedlist command tree.
func NewRootCommand(cfg config.Config, options ...AppOption) *cobra.Command {
	app := &App{
		cfg:    cfg,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range options {
		opt(app)
	}

	root := &cobra.Command{
		Use:           "sharedlist",
		Short:         "A shared shopping list that stays in sync across devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(cfg.GetLogLevel(), cfg.GetEnv(), app.errOut)
		},
	}
	root.SetIn(app.in)
	root.SetOut(app.out)
	root.SetErr(app.errOut)

	root.AddCommand(
		app.loginCommand(),
		app.callbackCommand(),
		app.logoutCommand(),
		app.statusCommand(),
		app.lsCommand(),
		app.addCommand(),
		app.editCommand(),
		app.rmCommand(),
		app.doneCommand(),
		app.clearCommand(),
		app.themeCommand(),
		app.langCommand(),
		app.listenCommand(),
		app.watchCommand(),
		app.migrateCommand(),
	)
	return root
}

// withRuntime runs fn against an opened runtime. signIn resumes the stored
// session first, which fetches the list when the user has access.
func (a *App) withRuntime(ctx context.Context, signIn bool, fn func(rt *Runtime) error) error {
	rt := a.shared
	if rt == nil {
		opened, err := OpenRuntime(ctx, a.cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = opened.Close()
		}()
		rt = opened
	}
	if signIn {
		if err := rt.Client.Open(ctx); err != nil {
			return err
		}
	}
	return fn(rt)
}

func (a *App) printer(rt *Runtime) *Printer {
	prefs := rt.Client.Preferences().Get()
	return NewPrinter(a.out, prefs.Theme, prefs.Locale)
}

// requireReady explains why the list cannot be used yet.
func requireReady(rt *Runtime, p *Printer) error {
	gate := rt.Client.Gate()
	switch gate.State() {
	case identity.Ready:
		return nil
	case identity.Unauthorized, identity.Authorized:
		return errors.Wrapf(errors.ErrNoAccess, "%s", p.T(i18n.MsgNoAccess, gate.DisplayName()))
	}
	return errors.Wrapf(errors.ErrNoSession, "%s", p.T(i18n.MsgNotSignedIn))
}

// itemAt resolves a 1-based position in the shown list, or an item id.
func itemAt(view []items.ListItem, ref string) (items.ListItem, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(view) {
			return items.ListItem{}, errors.Wrapf(errors.ErrNotFound, "no item number %d", n)
		}
		return view[n-1], nil
	}
	for _, it := range view {
		if it.ID == ref {
			return it, nil
		}
	}
	return items.ListItem{}, errors.Wrapf(errors.ErrNotFound, "no item %q", ref)
}

// readLine returns the next trimmed line, or io.EOF once input is exhausted.
func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isYes accepts y/yes and the localized word for yes.
func isYes(answer, locale string) bool {
	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		return true
	}
	return answer != "" && answer == i18n.Text(locale, i18n.MsgYes)
}
