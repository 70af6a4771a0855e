package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/AlexNa-Holdings/memestake/wallet"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Session is the wallet side of the shell. core.App implements it.
type Session interface {
	Status() wallet.Status
	Primary() (common.Address, bool)
	Login(name, pass string) error
	Logout() common.Address
	Wallets() []string
}

// EmailFlow is the one-time code login. *wallet.EmailLogin implements it.
type EmailFlow interface {
	State() wallet.EmailState
	Email() string
	Err() error
	CodeSent() bool
	SendCode(ctx context.Context, email string) error
	LoginWithCode(ctx context.Context, code string) error
	Reset()
}

type Deps struct {
	Context   context.Context
	Session   Session
	Email     EmailFlow // nil disables email login
	Chain     flow.Chain
	Cache     *cache.Store
	Contracts *staking.Contracts
	Bus       *bus.Bus // nil: no confirmations or notifications
	Config    *cmn.SConfig
	PollEvery time.Duration // 0 disables polling
}

var writeClipboard = clipboard.WriteAll

type Model struct {
	deps Deps
	ctx  context.Context
	st   styles

	page          pageID
	sub           [pageCount]int
	unstakeAssets bool
	panels        map[string]*panel

	login   *loginForm
	bar     *commandBar
	confirm *bus.Message
	busCh   chan *bus.Message

	status    string
	statusErr bool
	width     int
	height    int
}

func New(d Deps) *Model {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Config == nil {
		d.Config = cmn.Config
	}

	m := &Model{
		deps:   d,
		ctx:    d.Context,
		st:     newStyles(d.Config.Theme),
		panels: map[string]*panel{},
		status: "Ready",
		width:  100,
		height: 32,
	}
	m.buildPanels()
	if d.Bus != nil {
		m.busCh = d.Bus.Subscribe("ui", "wallet")
	}
	return m
}

// Close drops the bus subscription. The model is unusable afterwards.
func (m *Model) Close() {
	if m.busCh != nil {
		m.deps.Bus.Unsubscribe(m.busCh)
		m.busCh = nil
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshNow(m.pageQueries(m.page)...), m.listen(), m.tick())
}

func (m *Model) owner() (common.Address, bool) {
	if !m.deps.Session.Status().Authenticated {
		return common.Address{}, false
	}
	return m.deps.Session.Primary()
}

func (m *Model) SetStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) SetError(err error) {
	if err == nil {
		m.SetStatus("")
		return
	}
	m.status = cmn.ErrorText(err)
	m.statusErr = true
}

// refreshNow marks the reads stale and fetches them again.
func (m *Model) refreshNow(qs ...cache.Query) tea.Cmd {
	if len(qs) == 0 {
		return nil
	}
	ks := make([]string, len(qs))
	for i, q := range qs {
		ks[i] = q.Key
	}
	m.deps.Cache.Invalidate(ks...)
	return m.fetch(qs...)
}

func (m *Model) fetch(qs ...cache.Query) tea.Cmd {
	if len(qs) == 0 {
		return nil
	}
	store, ctx := m.deps.Cache, m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: store.Refresh(ctx, qs...)}
	}
}

func (m *Model) tick() tea.Cmd {
	if m.deps.PollEvery <= 0 {
		return nil
	}
	return tea.Tick(m.deps.PollEvery, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m *Model) listen() tea.Cmd {
	ch := m.busCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return busMsg{msg: msg}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case StatusMsg:
		m.status, m.statusErr = msg.Text, msg.IsErr
		return m, nil
	case txSentMsg:
		return m, m.handleSent(msg)
	case txMinedMsg:
		return m, m.handleMined(msg)
	case refreshedMsg:
		if msg.err != nil {
			log.Debug().Err(msg.err).Msg("ui: refresh")
		}
		return m, nil
	case pollMsg:
		return m, tea.Batch(m.fetch(m.pageQueries(m.page)...), m.tick())
	case loginMsg:
		return m, m.handleLogin(msg)
	case emailMsg:
		return m, m.handleEmail(msg)
	case busMsg:
		return m, m.handleBus(msg.msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleBus(msg *bus.Message) tea.Cmd {
	if msg.RespondTo != 0 {
		return m.listen()
	}

	var cmd tea.Cmd
	switch msg.Topic {
	case "ui":
		switch msg.Type {
		case "confirm-tx":
			if m.confirm != nil {
				msg.Respond(false, fmt.Errorf("another transaction is waiting for confirmation"))
				break
			}
			m.confirm = msg
		case "notify":
			if text, ok := msg.Data.(string); ok {
				m.SetStatus(text)
			}
		case "notify-error":
			if text, ok := msg.Data.(string); ok {
				m.status, m.statusErr = text, true
			}
		}
	case "wallet":
		cmd = m.refreshNow(m.pageQueries(m.page)...)
	}
	return tea.Batch(cmd, m.listen())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.confirm != nil {
		return m.confirmKey(msg)
	}
	if m.bar != nil {
		return m.barKey(msg)
	}
	if m.login != nil {
		return m.loginKey(msg)
	}

	p := m.active()
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.NextPage):
		return m.switchPage((m.page + 1) % pageCount)
	case key.Matches(msg, keys.PrevPage):
		return m.switchPage((m.page + pageCount - 1) % pageCount)
	case key.Matches(msg, keys.NextTab), key.Matches(msg, keys.PrevTab):
		if n := len(m.subTabs(m.page)); n > 1 {
			m.sub[m.page] = (m.sub[m.page] + 1) % n
		}
		return m.fetch(m.pageQueries(m.page)...)
	case key.Matches(msg, keys.Submit):
		if _, ok := m.owner(); !ok {
			return m.openLogin()
		}
		if p == nil {
			return nil
		}
		return m.submit(p)
	case key.Matches(msg, keys.Erase):
		if p != nil && p.erase() {
			return m.quoteCmd(p)
		}
		return nil
	case key.Matches(msg, keys.Clear):
		if p != nil {
			p.clear()
		}
		return nil
	case key.Matches(msg, keys.Account):
		if _, ok := m.owner(); ok {
			m.logout()
			return nil
		}
		return m.openLogin()
	case key.Matches(msg, keys.Copy):
		m.copyAddress()
		return nil
	case key.Matches(msg, keys.Toggle):
		if m.page == pageStake && m.sub[pageStake] == 1 && !m.panels["unstake"].machine.Busy() && !m.panels["withdraw"].machine.Busy() {
			m.unstakeAssets = !m.unstakeAssets
			return m.quoteCmd(m.active())
		}
		return nil
	case key.Matches(msg, keys.Refresh):
		return m.refreshNow(m.pageQueries(m.page)...)
	case key.Matches(msg, keys.Command):
		m.bar = &commandBar{}
		return nil
	}

	if msg.Type == tea.KeyRunes && p != nil {
		typed := false
		for _, r := range msg.Runes {
			typed = p.typeRune(r) || typed
		}
		if typed {
			return m.quoteCmd(p)
		}
	}
	return nil
}

// quoteCmd fetches the expected output for p's current amount unless it is
// already known.
func (m *Model) quoteCmd(p *panel) tea.Cmd {
	if p == nil || p.quote == nil {
		return nil
	}
	amount, err := p.amount()
	if err != nil {
		return nil
	}
	q := p.quote(amount)
	if e := m.deps.Cache.Get(q.Key); e.Known && !e.Stale {
		return nil
	}
	return m.fetch(q)
}

func (m *Model) switchPage(p pageID) tea.Cmd {
	m.page = p
	return m.fetch(m.pageQueries(p)...)
}

func (m *Model) logout() {
	prev := m.deps.Session.Logout()
	if m.deps.Email != nil {
		m.deps.Email.Reset()
	}
	for _, p := range m.panels {
		p.clear()
	}
	m.SetStatus("Logged out " + cmn.ShortAddress(prev))
}

func (m *Model) copyAddress() {
	owner, ok := m.owner()
	if !ok {
		m.SetError(errNotConnected)
		return
	}
	if err := writeClipboard(owner.Hex()); err != nil {
		log.Error().Err(err).Msg("clipboard")
		m.SetError(err)
		return
	}
	m.SetStatus("Copied " + owner.Hex())
}

// ---------- view ----------

func (m *Model) View() string {
	var body string
	switch {
	case m.confirm != nil:
		body = m.confirmView()
	case m.login != nil:
		body = m.loginView()
	default:
		body = m.pageView()
	}
	return m.st.app.Render(lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer()))
}

func (m *Model) accountButton() string {
	if owner, ok := m.owner(); ok {
		return cmn.ShortAddress(owner)
	}
	return "Connect"
}

func (m *Model) header() string {
	parts := []string{m.st.appName.Render(cmn.AppName)}
	for i := pageID(0); i < pageCount; i++ {
		if i == m.page {
			parts = append(parts, m.st.tabOn.Render(i.String()))
		} else {
			parts = append(parts, m.st.tabOff.Render(i.String()))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	right := m.st.account.Render(m.accountButton())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.st.bar.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) footer() string {
	if m.bar != nil {
		return m.barView()
	}

	var status string
	if m.statusErr {
		status = m.st.err.Render(m.status)
	} else {
		status = m.st.ok.Render(m.status)
	}

	help := make([]string, 0, len(keys.help()))
	for _, b := range keys.help() {
		h := b.Help()
		help = append(help, h.Key+" "+m.st.muted.Render(h.Desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, m.st.muted.Render(strings.Join(help, " • ")))
}
