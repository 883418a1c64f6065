package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-shared-list/editsession"
	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/jrsteele09/go-shared-list/preferences"
)

type palette struct {
	text, muted, accent, success, danger lipgloss.Color
}

var palettes = map[preferences.Theme]palette{
	preferences.ThemeLight: {text: "235", muted: "244", accent: "27", success: "28", danger: "160"},
	preferences.ThemeDark:  {text: "252", muted: "242", accent: "75", success: "42", danger: "203"},
}

type styles struct {
	title   lipgloss.Style
	item    lipgloss.Style
	done    lipgloss.Style
	meta    lipgloss.Style
	index   lipgloss.Style
	editing lipgloss.Style
	info    lipgloss.Style
	err     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, theme preferences.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[preferences.ThemeLight]
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(p.accent),
		item:    r.NewStyle().Foreground(p.text),
		done:    r.NewStyle().Foreground(p.muted).Strikethrough(true),
		meta:    r.NewStyle().Foreground(p.muted).Faint(true),
		index:   r.NewStyle().Foreground(p.muted),
		editing: r.NewStyle().Foreground(p.accent).Underline(true),
		info:    r.NewStyle().Foreground(p.success),
		err:     r.NewStyle().Foreground(p.danger).Bold(true),
	}
}

// Printer renders the list and messages in the user's theme and locale.
type Printer struct {
	out    io.Writer
	locale string
	styles styles
}

func NewPrinter(out io.Writer, theme preferences.Theme, locale string) *Printer {
	return &Printer{
		out:    out,
		locale: locale,
		styles: newStyles(lipgloss.NewRenderer(out), theme),
	}
}

// T translates key for the printer's locale.
func (p *Printer) T(key string, args ...interface{}) string {
	return i18n.Text(p.locale, key, args...)
}

// List prints the view, newest first, numbered from 1. edit marks the item being edited.
func (p *Printer) List(title string, view []items.ListItem, edit editsession.Snapshot) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.title.Render(title), p.styles.meta.Render("· "+p.T(i18n.MsgItemCount, len(view))))

	if len(view) == 0 {
		fmt.Fprintln(p.out, p.styles.meta.Render(p.T(i18n.MsgEmpty)))
		return
	}

	width := len(fmt.Sprint(len(view)))
	for i, it := range view {
		check := "[ ]"
		text := p.styles.item.Render(it.Text)
		if it.Completed {
			check = "[x]"
			text = p.styles.done.Render(it.Text)
		}
		if edit.State == editsession.Editing && edit.ItemID == it.ID {
			text = p.styles.editing.Render(edit.Draft) + p.styles.meta.Render(" ("+p.T(i18n.MsgEdit)+")")
		}
		fmt.Fprintf(p.out, "%s %s %s\n", p.styles.index.Render(fmt.Sprintf("%*d.", width, i+1)), check, text)

		meta := p.T(i18n.MsgAdded) + i18n.FormatTimestamp(p.locale, it.CreatedAt.Local())
		if name := strings.TrimSpace(it.CreatorName); name != "" {
			meta += " " + p.T(i18n.MsgBy) + name
		}
		fmt.Fprintf(p.out, "%s    %s\n", strings.Repeat(" ", width), p.styles.meta.Render(meta))
	}
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.styles.info.Render(msg))
}

func (p *Printer) Plain(msg string) {
	fmt.Fprintln(p.out, msg)
}

func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, p.styles.err.Render(err.Error()))
}

// to returns a printer with the same styles that writes to out.
func (p *Printer) to(out io.Writer) *Printer {
	cp := *p
	cp.out = out
	return &cp
}
