package ui

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-runewidth"
)

type pageID int

const (
	pageStake pageID = iota
	pageEarn
	pageSimulate
	pageCount
)

var pageTitles = [pageCount]string{"Stake", "Earn", "Simulate"}

func (p pageID) String() string {
	if p < 0 || p >= pageCount {
		return "?"
	}
	return pageTitles[p]
}

// subTabs of each page, in order.
func (m *Model) subTabs(p pageID) []string {
	s := m.deps.Contracts.Symbols
	switch p {
	case pageStake:
		return []string{"Stake " + s.Native, "Unstake " + s.Receipt}
	case pageEarn:
		return []string{"Deposit " + s.YieldAsset, "Withdrawal " + s.YieldShare}
	}
	return nil
}

func (m *Model) buildPanels() {
	c, r := m.deps.Contracts, m.deps.Chain
	s := c.Symbols

	tokenBalance := func(token common.Address) func(common.Address) cache.Query {
		return func(owner common.Address) cache.Query { return staking.TokenBalance(r, token, owner) }
	}
	quote := func(vault common.Address, a abi.ABI, method string) func(*big.Int) cache.Query {
		return func(amount *big.Int) cache.Query { return staking.Quote(r, a, vault, method, amount) }
	}

	add := func(p *panel) { m.panels[p.id] = p }

	add(&panel{
		id: "stake", page: pageStake, machine: flow.NewMachine(c.Stake()),
		inSymbol: s.Native, outSymbol: s.Receipt, outLabel: "You will receive",
		done:    "✓ Staked",
		balance: func(owner common.Address) cache.Query { return staking.NativeBalance(r, owner) },
		quote:   quote(c.StakingVault, staking.StakingVault, "convertToShares"),
	})
	add(&panel{
		id: "unstake", page: pageStake, machine: flow.NewMachine(c.Unstake()),
		inSymbol: s.Receipt, outSymbol: s.Native, outLabel: "You will receive",
		done:    "✓ Unstaked",
		balance: tokenBalance(c.ReceiptToken),
		quote:   quote(c.StakingVault, staking.StakingVault, "convertToAssets"),
	})
	add(&panel{
		id: "withdraw", page: pageStake, machine: flow.NewMachine(c.Withdraw()),
		inSymbol: s.Native, outSymbol: s.Receipt, outLabel: "Shares burned",
		done:  "✓ Unstaked",
		quote: quote(c.StakingVault, staking.StakingVault, "convertToShares"),
	})
	add(&panel{
		id: "earn-deposit", page: pageEarn, machine: flow.NewMachine(c.EarnDeposit()),
		inSymbol: s.YieldAsset, outSymbol: s.YieldShare, outLabel: "You will receive",
		done:    "✓ Deposited",
		balance: tokenBalance(c.YieldAsset),
		quote:   quote(c.YieldVault, staking.YieldVault, "convertToShares"),
	})
	add(&panel{
		id: "earn-request", page: pageEarn, machine: flow.NewMachine(c.EarnRequestWithdrawal()),
		inSymbol: s.YieldShare, outSymbol: s.YieldAsset, outLabel: "You will receive",
		done:    "✓ Withdrawal requested",
		balance: tokenBalance(c.YieldShare),
		quote:   quote(c.YieldVault, staking.YieldVault, "convertToAssets"),
	})
	add(&panel{
		id: "earn-complete", page: pageEarn, machine: flow.NewMachine(c.EarnCompleteWithdrawal()),
		inSymbol: s.YieldShare, outSymbol: s.YieldAsset, outLabel: "You will receive",
		done:  "✓ Withdrawal completed",
		quote: quote(c.YieldVault, staking.YieldVault, "convertToAssets"),
		fixed: func() *big.Int {
			if pw := m.pending(); pw.Exists() {
				return pw.Shares
			}
			return nil
		},
		ready: func() (bool, string) {
			v := m.withdrawalView()
			return v.CanComplete, v.Label
		},
	})
	add(&panel{
		id: "simulate", page: pageSimulate, machine: flow.NewMachine(c.SimulateYield()),
		inSymbol: s.YieldAsset, outLabel: "Reward",
		done:    "✓ Grant awarded!",
		balance: tokenBalance(c.YieldAsset),
	})
}

func (m *Model) active() *panel {
	switch m.page {
	case pageStake:
		if !m.deps.Contracts.HasStaking() {
			return nil
		}
		if m.sub[pageStake] == 0 {
			return m.panels["stake"]
		}
		if m.unstakeAssets {
			return m.panels["withdraw"]
		}
		return m.panels["unstake"]
	case pageEarn:
		if !m.deps.Contracts.HasYield() {
			return nil
		}
		if m.sub[pageEarn] == 0 {
			return m.panels["earn-deposit"]
		}
		v := m.withdrawalView()
		switch {
		case v.ShowComplete:
			return m.panels["earn-complete"]
		case v.ShowRequest:
			return m.panels["earn-request"]
		}
	case pageSimulate:
		if m.deps.Contracts.HasStrategy() {
			return m.panels["simulate"]
		}
	}
	return nil
}

func (m *Model) pending() *flow.PendingWithdrawal {
	owner, ok := m.owner()
	if !ok {
		return nil
	}
	e := m.deps.Cache.Get(staking.PendingWithdrawalKey(m.deps.Contracts.YieldVault, owner))
	if !e.Known {
		return nil
	}
	pw, _ := e.Value.(*flow.PendingWithdrawal)
	return pw
}

func (m *Model) block() uint64 {
	e := m.deps.Cache.Get(staking.BlockKey)
	n, _ := e.Value.(uint64)
	return n
}

func (m *Model) withdrawalView() flow.WithdrawalState {
	return flow.WithdrawalView(m.pending(), m.block())
}

// pageQueries are the reads a page shows. Account reads are left out
// while nobody is connected.
func (m *Model) pageQueries(pg pageID) []cache.Query {
	c, r := m.deps.Contracts, m.deps.Chain
	owner, connected := m.owner()

	var qs []cache.Query
	balance := func(token common.Address) {
		if connected && token != (common.Address{}) {
			qs = append(qs, staking.TokenBalance(r, token, owner))
		}
	}
	allowance := func(token, spender common.Address) {
		if connected && token != (common.Address{}) && spender != (common.Address{}) {
			qs = append(qs, staking.Allowance(r, token, spender, owner))
		}
	}

	switch pg {
	case pageStake:
		if !c.HasStaking() {
			return nil
		}
		qs = append(qs, staking.Rate(r, staking.StakingVault, c.StakingVault))
		if connected {
			qs = append(qs, staking.NativeBalance(r, owner))
		}
		balance(c.ReceiptToken)
	case pageEarn:
		if !c.HasYield() {
			return nil
		}
		qs = append(qs, staking.Rate(r, staking.YieldVault, c.YieldVault), staking.BlockNumber(r))
		balance(c.YieldAsset)
		balance(c.YieldShare)
		allowance(c.YieldAsset, c.YieldVault)
		if connected {
			qs = append(qs, c.PendingWithdrawal(r, owner))
		}
	case pageSimulate:
		if c.HasYield() {
			qs = append(qs, staking.Rate(r, staking.YieldVault, c.YieldVault))
		}
		if c.HasStrategy() {
			balance(c.YieldAsset)
			allowance(c.YieldAsset, c.Strategy)
		}
	}

	for _, p := range m.panels {
		if p.page != pg || p.quote == nil {
			continue
		}
		if amount, err := p.amount(); err == nil {
			qs = append(qs, p.quote(amount))
		}
	}
	return qs
}

// ---------- views ----------

func (m *Model) row(label, value string) string {
	const w = 18
	pad := w - runewidth.StringWidth(label)
	if pad < 1 {
		pad = 1
	}
	return m.st.label.Render(label+strings.Repeat(" ", pad)) + m.st.value.Render(value)
}

func (m *Model) amountOf(key, symbol string) string {
	v, ok := m.bigValue(key)
	return cmn.DisplayAmount(v, ok) + " " + symbol
}

func (m *Model) rateLine(vault common.Address, share, asset string) string {
	return fmt.Sprintf("1 %s = %s", share, m.amountOf(staking.RateKey(vault), asset))
}

func (m *Model) subTabBar(pg pageID) string {
	tabs := m.subTabs(pg)
	if len(tabs) == 0 {
		return ""
	}
	out := make([]string, len(tabs))
	for i, t := range tabs {
		if i == m.sub[pg] {
			out[i] = m.st.tabOn.Render(t)
		} else {
			out[i] = m.st.tabOff.Render(t)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m *Model) pageView() string {
	c := m.deps.Contracts
	s := c.Symbols
	owner, connected := m.owner()

	var lines []string
	switch m.page {
	case pageStake:
		if !c.HasStaking() {
			return m.st.box.Render(m.st.warn.Render("staking vault is not configured (contracts.staking_vault)"))
		}
		lines = append(lines, m.subTabBar(pageStake), "")
		if connected {
			lines = append(lines, m.row("Staked", m.amountOf(staking.BalanceKey(c.ReceiptToken, owner), s.Receipt)))
		}
		lines = append(lines, m.row("Rate", m.rateLine(c.StakingVault, s.Receipt, s.Native)))
		if m.sub[pageStake] == 1 {
			mode := "shares"
			if m.unstakeAssets {
				mode = "assets"
			}
			lines = append(lines, m.row("Mode", mode+" (m to switch)"))
		}
		lines = append(lines, "")
		lines = append(lines, m.panelView(m.active())...)
		if m.sub[pageStake] == 1 {
			lines = append(lines, "", m.st.muted.Render("Unstake in ~2 blocks"))
		}

	case pageEarn:
		if !c.HasYield() {
			return m.st.box.Render(m.st.warn.Render("yield vault is not configured (contracts.yield_vault)"))
		}
		lines = append(lines, m.subTabBar(pageEarn), "")
		if connected {
			lines = append(lines, m.row("Deposited", m.amountOf(staking.BalanceKey(c.YieldShare, owner), s.YieldShare)))
		}
		lines = append(lines, m.row("Rate", m.rateLine(c.YieldVault, s.YieldShare, s.YieldAsset)), "")

		if m.sub[pageEarn] == 1 && connected {
			v := m.withdrawalView()
			switch {
			case v.Loading:
				lines = append(lines, m.st.muted.Render("Loading withdrawal request..."))
			case v.ShowComplete:
				pw := m.pending()
				lines = append(lines,
					m.row("Requested", cmn.DisplayAmount(pw.Shares, true)+" "+s.YieldShare),
					m.row("Unlock block", fmt.Sprintf("%d", v.UnlockBlock)))
				if !v.CanComplete {
					lines = append(lines, m.row("Blocks left", fmt.Sprintf("%d", v.BlocksLeft)))
				}
				lines = append(lines, "")
			}
		}
		lines = append(lines, m.panelView(m.active())...)
		if m.sub[pageEarn] == 1 {
			lines = append(lines, "", m.st.muted.Render("Withdrawal in ~2 blocks"))
		}

	case pageSimulate:
		if c.HasYield() {
			lines = append(lines, m.row("Exchange rate", m.rateLine(c.YieldVault, s.YieldShare, s.YieldAsset)))
		}
		if !c.HasStrategy() {
			lines = append(lines, m.st.warn.Render("strategy is not configured (contracts.strategy)"))
			break
		}
		lines = append(lines, "", m.st.muted.Render("1. Approve  2. Award Grant"), "")
		lines = append(lines, m.panelView(m.active())...)
	}

	return m.st.box.Render(strings.Join(lines, "\n"))
}

func (m *Model) panelView(p *panel) []string {
	if p == nil {
		return nil
	}

	var lines []string
	if owner, ok := m.owner(); ok && p.balance != nil {
		lines = append(lines, m.row("Available", m.amountOf(p.balance(owner).Key, p.inSymbol)))
	}
	if p.fixed == nil {
		in := p.input
		if in == "" {
			in = m.st.muted.Render("0.0")
		}
		lines = append(lines, m.row("Amount", m.st.input.Render(in+"▏")+" "+p.inSymbol))
	}
	if p.quote != nil {
		out := cmn.Placeholder
		if amount, err := p.amount(); err == nil {
			v, ok := m.quoteOf(p, amount)
			out = cmn.DisplayAmount(v, ok)
		}
		lines = append(lines, m.row(p.outLabel, out+" "+p.outSymbol))
	}

	label, enabled := m.button(p)
	if enabled {
		lines = append(lines, "", m.st.button.Render(label))
	} else {
		lines = append(lines, "", m.st.buttonOff.Render(label))
	}

	if p.err != "" {
		lines = append(lines, m.st.err.Render(p.err))
	} else if p.notice != "" {
		lines = append(lines, m.st.ok.Render(p.notice))
	}
	return lines
}
