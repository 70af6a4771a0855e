package ui

import (
	"fmt"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

type crash struct {
	message string
	stack   string
}

// Boundary wraps the shell and replaces it with an error screen when
// Update or View panics. r builds a fresh shell.
type Boundary struct {
	build func() tea.Model
	inner tea.Model
	crash *crash
}

func NewBoundary(build func() tea.Model) *Boundary {
	return &Boundary{build: build, inner: build()}
}

func (b *Boundary) fail(r any) {
	b.crash = &crash{message: fmt.Sprint(r), stack: string(debug.Stack())}
	log.Error().Str("panic", b.crash.message).Str("stack", b.crash.stack).Msg("ui: recovered")
}

func (b *Boundary) Init() (cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			b.fail(r)
			cmd = nil
		}
	}()
	return b.inner.Init()
}

func (b *Boundary) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	if b.crash != nil {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "r":
				if c, ok := b.inner.(interface{ Close() }); ok {
					c.Close()
				}
				b.crash = nil
				b.inner = b.build()
				return b, b.Init()
			case "q", "ctrl+c":
				return b, tea.Quit
			}
		}
		return b, nil
	}

	defer func() {
		if r := recover(); r != nil {
			b.fail(r)
			model, cmd = b, nil
		}
	}()
	b.inner, cmd = b.inner.Update(msg)
	return b, cmd
}

func (b *Boundary) View() (view string) {
	if b.crash == nil {
		defer func() {
			if r := recover(); r != nil {
				b.fail(r)
				view = b.crashView()
			}
		}()
		return b.inner.View()
	}
	return b.crashView()
}

func (b *Boundary) Crashed() bool { return b.crash != nil }

func (b *Boundary) crashView() string {
	title := lipgloss.NewStyle().Foreground(DarkTheme.Error).Bold(true).Render("Something went wrong")
	stack := b.crash.stack
	if lines := strings.Split(stack, "\n"); len(lines) > 24 {
		stack = strings.Join(lines[:24], "\n") + "\n..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		b.crash.message,
		"",
		lipgloss.NewStyle().Foreground(DarkTheme.Muted).Render(stack),
		"",
		"r: reload • q: quit",
	)
}
