package ui

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	tea "github.com/charmbracelet/bubbletea"
)

type commandBar struct {
	input string
}

var commandNames = []string{"stake", "earn", "simulate", "refresh", "login", "logout", "copy", "theme", "quit"}

// suggest returns the closest known command, or "" when nothing is close.
func suggest(s string) string {
	best, dist := "", -1
	for _, c := range commandNames {
		d := levenshtein.ComputeDistance(s, c)
		if dist < 0 || d < dist {
			best, dist = c, d
		}
	}
	if dist > max(2, len(s)/2) {
		return ""
	}
	return best
}

func (m *Model) barKey(msg tea.KeyMsg) tea.Cmd {
	b := m.bar
	switch msg.Type {
	case tea.KeyEsc:
		m.bar = nil
	case tea.KeyBackspace:
		if b.input == "" {
			m.bar = nil
		} else {
			b.input = b.input[:len(b.input)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		b.input += string(msg.Runes)
	case tea.KeyEnter:
		m.bar = nil
		return m.runCommand(b.input)
	}
	return nil
}

func (m *Model) runCommand(line string) tea.Cmd {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}

	switch name := fields[0]; name {
	case "stake":
		return m.switchPage(pageStake)
	case "earn":
		return m.switchPage(pageEarn)
	case "simulate":
		return m.switchPage(pageSimulate)
	case "refresh":
		return m.refreshNow(m.pageQueries(m.page)...)
	case "login", "connect":
		if _, ok := m.owner(); ok {
			m.SetStatus("already connected")
			return nil
		}
		return m.openLogin()
	case "logout":
		if _, ok := m.owner(); !ok {
			m.SetError(errNotConnected)
			return nil
		}
		m.logout()
	case "copy":
		m.copyAddress()
	case "theme":
		if len(fields) < 2 {
			m.SetError(fmt.Errorf("usage: theme dark|light"))
			return nil
		}
		if _, ok := Themes[fields[1]]; !ok {
			m.SetError(fmt.Errorf("unknown theme %q", fields[1]))
			return nil
		}
		m.st = newStyles(fields[1])
		m.SetStatus("theme " + fields[1])
	case "quit", "q":
		return tea.Quit
	default:
		if s := suggest(name); s != "" {
			m.SetError(fmt.Errorf("unknown command %q, did you mean %q?", name, s))
		} else {
			m.SetError(fmt.Errorf("unknown command %q", name))
		}
	}
	return nil
}

func (m *Model) barView() string {
	return m.st.input.Render(":" + m.bar.input + "▏")
}
