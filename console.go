package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/term"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ea44f"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cb2431"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	labelStyle   = lipgloss.NewStyle().Width(12)
)

// console writes user-facing progress. It is kept off stdout so the dumped
// transaction can be piped on its own.
type console struct {
	w        io.Writer
	terminal bool
}

func newConsole(w io.Writer) *console {
	c := &console{w: w}
	if f, ok := w.(*os.File); ok {
		c.terminal = term.IsTerminal(f.Fd())
	}
	return c
}

func (c *console) title(s string) {
	lipgloss.Fprintln(c.w, titleStyle.Render("=== "+s+" ==="))
}

func (c *console) field(label, value string) {
	lipgloss.Fprintln(c.w, labelStyle.Render(label+":")+value)
}

func (c *console) step(n int, format string, args ...any) {
	lipgloss.Fprintln(c.w, stepStyle.Render(fmt.Sprintf("Step %d:", n)), fmt.Sprintf(format, args...))
}

func (c *console) info(format string, args ...any) {
	lipgloss.Fprintln(c.w, fmt.Sprintf(format, args...))
}

func (c *console) link(url string) {
	lipgloss.Fprintf(c.w, "\n  %s\n\n", faintStyle.Render(url))
}

func (c *console) success(format string, args ...any) {
	lipgloss.Fprintln(c.w, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (c *console) warn(format string, args ...any) {
	lipgloss.Fprintln(c.w, warnStyle.Render("WARNING: "+fmt.Sprintf(format, args...)))
}

func (c *console) fail(err error) {
	lipgloss.Fprintln(c.w, errorStyle.Render("Error:"), err.Error())
}

// wait runs work while showing label. On a terminal a spinner animates until
// work returns; elsewhere the label is printed once.
func (c *console) wait(ctx context.Context, label string, work func() error) error {
	if !c.terminal {
		c.info("%s ...", label)
		return work()
	}

	p := tea.NewProgram(
		newWaitModel(label),
		tea.WithContext(ctx),
		tea.WithOutput(c.w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	err := work()
	p.Send(waitDoneMsg{})
	<-done
	return err
}

type waitDoneMsg struct{}

type waitModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newWaitModel(label string) waitModel {
	return waitModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(stepStyle)),
		label:   label,
	}
}

func (m waitModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case waitDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	return tea.NewView(m.spinner.View() + " " + m.label + "\n")
}
