package cli

import (
	"strings"

	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/spf13/cobra"
)

func (a *App) lsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the list, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				p := a.printer(rt)
				if err := requireReady(rt, p); err != nil {
					return err
				}
				a.printList(rt, p)
				return nil
			})
		},
	}
}

func (a *App) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				if _, err := rt.Client.Add(cmd.Context(), strings.Join(args, " ")); err != nil {
					return err
				}
				a.printList(rt, a.printer(rt))
				return nil
			})
		},
	}
}

func (a *App) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <n> <text>",
		Short: "Replace the text of item n",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				p := a.printer(rt)
				if err := requireReady(rt, p); err != nil {
					return err
				}
				item, err := itemAt(rt.Client.Items(), args[0])
				if err != nil {
					return err
				}
				if err := rt.Client.StartEdit(item.ID); err != nil {
					return err
				}
				edits := rt.Client.Edits()
				edits.UpdateDraft(strings.Join(args[1:], " "))
				if err := edits.Save(cmd.Context()); err != nil {
					edits.Cancel()
					return err
				}
				a.printList(rt, p)
				return nil
			})
		},
	}
}

func (a *App) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"delete"},
		Short:   "Delete item n",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				p := a.printer(rt)
				if err := requireReady(rt, p); err != nil {
					return err
				}
				item, err := itemAt(rt.Client.Items(), args[0])
				if err != nil {
					return err
				}
				if err := rt.Client.Gateway().Delete(cmd.Context(), item.ID); err != nil {
					return err
				}
				a.printList(rt, p)
				return nil
			})
		},
	}
}

func (a *App) doneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "done <n>",
		Short: "Mark item n as completed, or as not completed if it already is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				p := a.printer(rt)
				if err := requireReady(rt, p); err != nil {
					return err
				}
				item, err := itemAt(rt.Client.Items(), args[0])
				if err != nil {
					return err
				}
				if err := rt.Client.Toggle(cmd.Context(), item.ID); err != nil {
					return err
				}
				a.printList(rt, p)
				return nil
			})
		},
	}
}

func (a *App) clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item after confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), true, func(rt *Runtime) error {
				p := a.printer(rt)
				if err := requireReady(rt, p); err != nil {
					return err
				}

				rt.Client.RequestDeleteAll()
				if !yes {
					p.Plain(p.T(i18n.MsgConfirmDeleteAll) + " [" + p.T(i18n.MsgYes) + "/" + p.T(i18n.MsgNo) + "]")
					answer, err := a.readLine()
					if err != nil || !isYes(answer, rt.Client.Locale()) {
						rt.Client.CancelDeleteAll()
						return nil
					}
				}
				if err := rt.Client.ConfirmDeleteAll(cmd.Context()); err != nil {
					return err
				}
				a.printList(rt, p)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) printList(rt *Runtime, p *Printer) {
	p.List(a.cfg.GetAppName(), rt.Client.Items(), rt.Client.Edits().Snapshot())
}
