package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type loginMode int

const (
	loginWallet loginMode = iota
	loginEmail
)

type loginForm struct {
	mode     loginMode
	wallets  []string
	sel      int
	password string
	email    string
	code     string
	busy     bool
	err      string
}

func (m *Model) openLogin() tea.Cmd {
	// a finished code login cannot send another code
	if e := m.deps.Email; e != nil && e.State() == wallet.EmailDone {
		e.Reset()
	}
	f := &loginForm{wallets: m.deps.Session.Wallets()}
	if i := slices.Index(f.wallets, m.deps.Config.Wallet); i >= 0 {
		f.sel = i
	}
	if len(f.wallets) == 0 && m.deps.Email != nil {
		f.mode = loginEmail
	}
	m.login = f
	return nil
}

// codeStage tells whether keystrokes go to the code field.
func (m *Model) codeStage() bool {
	e := m.deps.Email
	switch e.State() {
	case wallet.EmailAwaitingCode, wallet.EmailSubmittingCode:
		return true
	case wallet.EmailError:
		return e.CodeSent()
	}
	return false
}

func (m *Model) loginKey(msg tea.KeyMsg) tea.Cmd {
	f := m.login
	if f.busy {
		return nil
	}

	switch msg.String() {
	case "esc":
		m.login = nil
		return nil
	case "tab":
		if m.deps.Email != nil {
			if f.mode == loginWallet {
				f.mode = loginEmail
			} else {
				f.mode = loginWallet
			}
			f.err = ""
		}
		return nil
	}

	if f.mode == loginWallet {
		return m.walletKey(f, msg)
	}
	return m.emailKey(f, msg)
}

func (m *Model) walletKey(f *loginForm, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyUp:
		if f.sel > 0 {
			f.sel--
		}
	case tea.KeyDown:
		if f.sel < len(f.wallets)-1 {
			f.sel++
		}
	case tea.KeyBackspace:
		if f.password != "" {
			f.password = f.password[:len(f.password)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		f.password += string(msg.Runes)
	case tea.KeyEnter:
		if len(f.wallets) == 0 {
			f.err = "no wallets, create one with: memestake wallet create <name>"
			return nil
		}
		name, pass := f.wallets[f.sel], f.password
		session := m.deps.Session
		f.busy, f.err = true, ""
		return func() tea.Msg {
			return loginMsg{err: session.Login(name, pass)}
		}
	}
	return nil
}

func (m *Model) emailKey(f *loginForm, msg tea.KeyMsg) tea.Cmd {
	e := m.deps.Email
	field := &f.email
	if m.codeStage() {
		field = &f.code
	}

	switch msg.Type {
	case tea.KeyBackspace:
		if *field != "" {
			*field = (*field)[:len(*field)-1]
		}
	case tea.KeyRunes:
		*field += string(msg.Runes)
	case tea.KeyCtrlR:
		// start over with another address
		e.Reset()
		f.email, f.code, f.err = "", "", ""
	case tea.KeyEnter:
		ctx := m.ctx
		f.busy, f.err = true, ""
		if m.codeStage() {
			code := f.code
			return func() tea.Msg { return emailMsg{err: e.LoginWithCode(ctx, code)} }
		}
		email := f.email
		return func() tea.Msg { return emailMsg{err: e.SendCode(ctx, email)} }
	}
	return nil
}

func (m *Model) handleLogin(msg loginMsg) tea.Cmd {
	if m.login == nil {
		return nil
	}
	m.login.busy = false
	if msg.err != nil {
		m.login.err = cmn.ErrorText(msg.err)
		m.login.password = ""
		return nil
	}
	return m.loggedIn()
}

func (m *Model) handleEmail(msg emailMsg) tea.Cmd {
	if m.login == nil {
		return nil
	}
	m.login.busy = false
	if msg.err != nil {
		m.login.err = cmn.ErrorText(msg.err)
		m.login.code = ""
		return nil
	}
	if m.deps.Email.State() == wallet.EmailDone {
		return m.loggedIn()
	}
	return nil
}

func (m *Model) loggedIn() tea.Cmd {
	m.login = nil
	if owner, ok := m.owner(); ok {
		m.SetStatus("Connected " + cmn.ShortAddress(owner))
	}
	return m.refreshNow(m.pageQueries(m.page)...)
}

func (m *Model) loginView() string {
	f := m.login
	var b strings.Builder

	if m.deps.Email != nil {
		wt, et := m.st.tabOff, m.st.tabOff
		if f.mode == loginWallet {
			wt = m.st.tabOn
		} else {
			et = m.st.tabOn
		}
		fmt.Fprintf(&b, "%s%s\n\n", wt.Render("Wallet"), et.Render("Email"))
	}

	if f.mode == loginWallet {
		if len(f.wallets) == 0 {
			b.WriteString(m.st.muted.Render("No wallets yet. Create one with: memestake wallet create <name>"))
			b.WriteString("\n")
		}
		for i, w := range f.wallets {
			if i == f.sel {
				b.WriteString(m.st.value.Render("> "+w) + "\n")
			} else {
				b.WriteString(m.st.label.Render("  "+w) + "\n")
			}
		}
		b.WriteString("\n" + m.row("Password", m.st.input.Render(strings.Repeat("*", len(f.password))+"▏")) + "\n")
	} else {
		e := m.deps.Email
		state := cases.Title(language.English).String(strings.ReplaceAll(e.State().String(), "-", " "))
		b.WriteString(m.row("State", state) + "\n")
		if m.codeStage() {
			b.WriteString(m.row("Email", e.Email()) + "\n")
			b.WriteString(m.row("Code", m.st.input.Render(f.code+"▏")) + "\n")
			b.WriteString(m.st.muted.Render("enter: log in • ctrl+r: use another email") + "\n")
		} else {
			b.WriteString(m.row("Email", m.st.input.Render(f.email+"▏")) + "\n")
			b.WriteString(m.st.muted.Render("enter: send code") + "\n")
		}
	}

	if f.busy {
		b.WriteString("\n" + m.st.warn.Render("Working...") + "\n")
	}
	if f.err != "" {
		b.WriteString("\n" + m.st.err.Render(f.err) + "\n")
	}
	b.WriteString("\n" + m.st.muted.Render("esc: cancel"))
	if m.deps.Email != nil {
		b.WriteString(m.st.muted.Render(" • tab: wallet/email"))
	}
	return m.st.box.Render(b.String())
}
