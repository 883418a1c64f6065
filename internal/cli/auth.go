package cli

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/httpserver"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *App) loginCommand() *cobra.Command {
	var noListen bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the identity provider",
		Long: `Prints the provider's sign-in URL and waits for the redirect on the
configured OIDC_REDIRECT_URL. With --no-listen, finish the sign-in by passing
the redirect URL to "sharedlist callback".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), false, func(rt *Runtime) error {
				p := a.printer(rt)
				gate := rt.Client.Gate()

				signInURL, err := gate.SignIn(cmd.Context())
				if err != nil {
					return err
				}
				p.Plain(p.T(i18n.MsgSignInPrompt))
				p.Plain(signInURL)
				if noListen {
					return nil
				}

				if err := a.awaitCallback(cmd.Context(), gate); err != nil {
					return err
				}
				return printStatus(rt, p)
			})
		},
	}
	cmd.Flags().BoolVar(&noListen, "no-listen", false, "don't wait for the redirect; use the callback command instead")
	return cmd
}

// awaitCallback serves the redirect URL until one sign-in attempt completes.
func (a *App) awaitCallback(ctx context.Context, gate *identity.Gate) error {
	redirect, err := url.Parse(a.cfg.GetRedirectURL())
	if err != nil {
		return errors.Wrapf(err, "[awaitCallback] parse redirect URL")
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	result := make(chan error, 1)
	callback := identity.CallbackHandler(gate, func(err error) {
		select {
		case result <- err:
		default:
		}
	})
	mux := http.NewServeMux()
	mux.HandleFunc(path, httpserver.Chain(callback, httpserver.Logging("signin"), httpserver.Recover, httpserver.FrameSecurity))

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()
	served := make(chan error, 1)
	go func() {
		served <- httpserver.Serve(serveCtx, httpserver.New(redirect.Host, mux))
	}()

	select {
	case err = <-result:
	case err = <-served:
		if err == nil {
			err = ctx.Err()
		}
		return err
	case <-time.After(a.cfg.GetAuthFlowTimeout()):
		err = errors.Wrapf(errors.ErrInvalidState, "[awaitCallback] no sign-in within %s", a.cfg.GetAuthFlowTimeout())
	}

	stop()
	if serveErr := <-served; serveErr != nil {
		log.Err(serveErr).Msg("Error stopping callback server")
	}
	return err
}

func (a *App) callbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "callback <redirect-url> | callback <code> <state>",
		Short: "Finish a sign-in started with login --no-listen",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, state, err := callbackParams(args)
			if err != nil {
				return err
			}
			return a.withRuntime(cmd.Context(), false, func(rt *Runtime) error {
				if err := rt.Client.Gate().Callback(cmd.Context(), code, state); err != nil {
					return err
				}
				return printStatus(rt, a.printer(rt))
			})
		},
	}
}

func callbackParams(args []string) (code, state string, err error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	u, err := url.Parse(args[0])
	if err != nil {
		return "", "", errors.Wrapf(err, "[callback] parse redirect URL")
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", "", errors.Wrapf(errors.ErrUnauthorized, "authorization failed: %s - %s", e, q.Get("error_description"))
	}
	code, state = q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		return "", "", errors.Validation("redirect URL has no code or state")
	}
	return code, state, nil
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				if err := rt.Client.Gate().SignOut(cmd.Context()); err != nil {
					return err
				}
				p := a.printer(rt)
				p.Info(p.T(i18n.MsgSignedOut))
				return nil
			})
		},
	}
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in and whether they have access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				return printStatus(rt, a.printer(rt))
			})
		},
	}
}

func printStatus(rt *Runtime, p *Printer) error {
	gate := rt.Client.Gate()
	session := gate.Session()
	switch {
	case session == nil:
		p.Plain(p.T(i18n.MsgNotSignedIn))
	case gate.HasAccess():
		p.Info(p.T(i18n.MsgStatus, gate.DisplayName(), session.Email))
	default:
		p.Plain(p.T(i18n.MsgNoAccess, gate.DisplayName()))
	}
	return nil
}
