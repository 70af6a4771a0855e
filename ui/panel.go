package ui

import (
	"errors"
	"math/big"
	"strings"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

var errNotConnected = errors.New("connect a wallet first")

// panel is one action form: an amount field, the expected output and a
// button that walks a flow.Machine.
type panel struct {
	id      string
	page    pageID
	machine *flow.Machine

	input     string
	inSymbol  string
	outSymbol string
	outLabel  string
	done      string

	balance func(owner common.Address) cache.Query
	quote   func(amount *big.Int) cache.Query
	fixed   func() *big.Int       // amount not typed by the user
	ready   func() (bool, string) // extra gate with the label shown while closed

	err    string
	notice string
}

func (p *panel) typeRune(r rune) bool {
	if p.fixed != nil || p.machine.Busy() {
		return false
	}
	switch {
	case r >= '0' && r <= '9':
	case r == '.':
		if strings.Contains(p.input, ".") {
			return false
		}
	default:
		return false
	}
	p.input += string(r)
	p.err, p.notice = "", ""
	return true
}

func (p *panel) erase() bool {
	if p.input == "" || p.machine.Busy() {
		return false
	}
	p.input = p.input[:len(p.input)-1]
	p.err, p.notice = "", ""
	return true
}

func (p *panel) clear() {
	if p.machine.Busy() {
		return
	}
	p.input = ""
	p.err, p.notice = "", ""
	p.machine.Reset()
}

func (p *panel) amount() (*big.Int, error) {
	if p.fixed != nil {
		v := p.fixed()
		if v == nil || v.Sign() <= 0 {
			return nil, flow.ErrInvalidAmount
		}
		return v, nil
	}
	return cmn.ParseAmount(p.input, cmn.Decimals)
}

func (m *Model) bigValue(key string) (*big.Int, bool) {
	e := m.deps.Cache.Get(key)
	if !e.Known {
		return nil, false
	}
	v, ok := e.Value.(*big.Int)
	return v, ok
}

// allowance is nil for ungated actions and while the read is missing or
// invalidated by an approval that just landed.
func (m *Model) allowance(p *panel, owner common.Address) *big.Int {
	a := p.machine.Action
	if !a.Gated() {
		return nil
	}
	e := m.deps.Cache.Get(staking.AllowanceKey(a.Token, a.Spender, owner))
	if !e.Known || e.Stale {
		return nil
	}
	v, _ := e.Value.(*big.Int)
	return v
}

func (m *Model) quoteOf(p *panel, amount *big.Int) (*big.Int, bool) {
	if p.quote == nil || amount == nil {
		return nil, false
	}
	return m.bigValue(p.quote(amount).Key)
}

// plan picks p's next step without touching its machine.
func (m *Model) plan(p *panel) (flow.Step, *big.Int, error) {
	owner, ok := m.owner()
	if !ok {
		return flow.StepNone, nil, errNotConnected
	}
	amount, err := p.amount()
	if err != nil {
		return flow.StepNone, nil, err
	}
	step, err := p.machine.Plan(amount, m.allowance(p, owner))
	return step, amount, err
}

// button is the label of p's button and whether pressing it does anything.
func (m *Model) button(p *panel) (string, bool) {
	if p.machine.Busy() {
		return p.machine.Label(p.machine.Step()), false
	}
	if _, ok := m.owner(); !ok {
		return "Connect", true
	}
	if p.ready != nil {
		if ok, label := p.ready(); !ok {
			return label, false
		}
	}
	step, _, err := m.plan(p)
	if err != nil {
		return p.machine.Label(flow.StepPrimary), false
	}
	return p.machine.Label(step), true
}

func (m *Model) submit(p *panel) tea.Cmd {
	if p.machine.Busy() {
		return nil
	}
	if p.ready != nil {
		if ok, _ := p.ready(); !ok {
			return nil
		}
	}

	step, amount, err := m.plan(p)
	if err != nil {
		if errors.Is(err, flow.ErrAllowanceUnknown) {
			return m.refreshNow(m.pageQueries(p.page)...)
		}
		if p.input != "" || p.fixed != nil {
			p.err = cmn.ErrorText(err)
		}
		return nil
	}

	owner, _ := m.owner()
	quote, _ := m.quoteOf(p, amount)
	req := flow.Request{Owner: owner, Amount: amount, Quote: quote}

	runID, err := p.machine.Begin(step)
	if err != nil {
		return nil
	}
	p.err, p.notice = "", ""
	return m.dispatch(p, runID, step, req)
}

func (m *Model) dispatch(p *panel, runID string, step flow.Step, req flow.Request) tea.Cmd {
	id, action := p.id, p.machine.Action
	ctx, chain := m.ctx, m.deps.Chain

	return func() tea.Msg {
		call, err := action.CallFor(ctx, chain, step, req)
		if err != nil {
			return txSentMsg{panel: id, runID: runID, err: err}
		}
		hash, err := chain.Send(ctx, req.Owner, call, action.Kind, runID)
		return txSentMsg{panel: id, runID: runID, hash: hash, err: err}
	}
}

func (m *Model) handleSent(msg txSentMsg) tea.Cmd {
	p, ok := m.panels[msg.panel]
	if !ok || p.machine.RunID() != msg.runID {
		return nil
	}
	if msg.err != nil {
		p.machine.Fail(msg.err)
		p.err = cmn.ErrorText(msg.err)
		return nil
	}

	p.machine.Sent(msg.hash)
	kind := p.machine.Action.Kind
	ctx, chain := m.ctx, m.deps.Chain
	return func() tea.Msg {
		r, err := chain.WaitMined(ctx, msg.hash, kind, msg.runID)
		return txMinedMsg{panel: msg.panel, runID: msg.runID, receipt: r, err: err}
	}
}

func (m *Model) handleMined(msg txMinedMsg) tea.Cmd {
	p, ok := m.panels[msg.panel]
	if !ok || p.machine.RunID() != msg.runID {
		return nil
	}
	if msg.err != nil {
		p.machine.Fail(msg.err)
		p.err = cmn.ErrorText(msg.err)
		return nil
	}

	p.machine.Mined(msg.receipt)
	switch p.machine.State() {
	case flow.Failed:
		p.err = cmn.ErrorText(p.machine.Err())
	case flow.Approved:
		p.notice = "✓ Approved"
		return m.refreshNow(m.pageQueries(p.page)...)
	case flow.Done:
		log.Debug().Str("panel", p.id).Str("run", msg.runID).Msg("ui: action done")
		p.input = ""
		p.notice = p.done
		return m.refreshNow(m.pageQueries(p.page)...)
	}
	return nil
}
