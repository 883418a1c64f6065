package cli

import (
	"context"
	"strconv"

	"github.com/jrsteele09/go-shared-list/backend/postgres"
	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/preferences"
	"github.com/jrsteele09/go-shared-list/voice"
	"github.com/spf13/cobra"
)

func (a *App) themeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Switch between the light and dark theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(preferences.ThemeLight), string(preferences.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), false, func(rt *Runtime) error {
				prefs := rt.Client.Preferences()
				if len(args) == 0 {
					if _, err := rt.Client.ToggleTheme(); err != nil {
						return err
					}
				} else {
					theme := preferences.Theme(args[0])
					if !theme.Valid() {
						return errors.Validation("theme must be light or dark")
					}
					if err := prefs.SetTheme(theme); err != nil {
						return err
					}
				}
				a.printer(rt).Info(string(prefs.Get().Theme))
				return nil
			})
		},
	}
}

func (a *App) langCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "lang [en-US|ml-IN]",
		Short:     "Switch the display and dictation language",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{i18n.English.String(), i18n.Malayalam.String()},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), false, func(rt *Runtime) error {
				var err error
				if len(args) == 0 {
					_, err = rt.Client.ToggleLocale()
				} else {
					_, err = rt.Client.SetLocale(args[0])
				}
				if err != nil {
					return err
				}
				p := a.printer(rt)
				p.Info(rt.Client.Locale() + " " + p.T(i18n.MsgLocaleBadge))
				return nil
			})
		},
	}
}

func (a *App) listenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Dictate one item with the configured speech recogniser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				p := a.printer(rt)
				if err := requireReady(rt, p); err != nil {
					return err
				}
				if err := dictate(cmd.Context(), rt, p); err != nil {
					return err
				}
				a.printList(rt, p)
				return nil
			})
		},
	}
}

// dictate listens until the capture ends, a transcript is added, or ctx is done.
func dictate(ctx context.Context, rt *Runtime, p *Printer) error {
	idle := make(chan struct{}, 1)
	unsubscribe := rt.Client.OnVoiceState(func(s voice.State) {
		if s != voice.Idle {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ctl := rt.Client.Voice()
	if err := ctl.Start(ctx); err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return errors.Wrapf(err, "%s", p.T(i18n.MsgNoVoice))
		}
		return err
	}
	p.Plain(p.T(i18n.MsgListening, ctl.Locale()))

	select {
	case <-idle:
	case <-ctx.Done():
		ctl.Stop()
	}
	return nil
}

func (a *App) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	run := func(fn func(m *postgres.Migrator, p *Printer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), false, func(rt *Runtime) error {
				if rt.DB == nil {
					return errors.Wrapf(errors.ErrUnsupported, "migrate needs DATABASE_URL")
				}
				m, err := postgres.NewMigrator(rt.DB)
				if err != nil {
					return err
				}
				return fn(m, a.printer(rt))
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(m *postgres.Migrator, p *Printer) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printVersion(m, p)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: run(func(m *postgres.Migrator, p *Printer) error {
				if err := m.Down(); err != nil {
					return err
				}
				return printVersion(m, p)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			Args:  cobra.NoArgs,
			RunE: run(printVersion),
		},
	)
	return cmd
}

func printVersion(m *postgres.Migrator, p *Printer) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	msg := "schema version " + strconv.FormatUint(uint64(version), 10)
	if dirty {
		msg += " (dirty)"
	}
	p.Info(msg)
	return nil
}
