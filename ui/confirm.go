package ui

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/AlexNa-Holdings/memestake/cmn"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/params"
	"github.com/shopspring/decimal"
)

func (m *Model) confirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		m.confirm.Respond(true, nil)
		m.confirm = nil
	case "n", "esc":
		m.confirm.Respond(false, nil)
		m.confirm = nil
	}
	return nil
}

func gwei(v *big.Int) string {
	if v == nil {
		return "?"
	}
	return decimal.NewFromBigInt(v, 0).Div(decimal.NewFromInt(params.GWei)).StringFixed(2)
}

func (m *Model) confirmView() string {
	req, ok := m.confirm.Data.(*bus.B_ConfirmTx)
	if !ok {
		return m.st.modal.Render("Confirm transaction?\n\ny: sign • n: reject")
	}

	var b strings.Builder
	b.WriteString(m.st.value.Render("Confirm transaction") + "\n\n")
	b.WriteString(m.row("Action", req.Action) + "\n")
	if req.Method != "" {
		b.WriteString(m.row("Method", req.Method) + "\n")
	}
	b.WriteString(m.row("From", req.From.Hex()) + "\n")
	b.WriteString(m.row("To", req.To.Hex()) + "\n")
	if req.Amount != nil && req.Amount.Sign() > 0 {
		b.WriteString(m.row("Value", cmn.DisplayAmount(req.Amount, true)+" "+m.deps.Contracts.Symbols.Native) + "\n")
	}
	b.WriteString(m.row("Gas limit", fmt.Sprintf("%d", req.Gas)) + "\n")
	b.WriteString(m.row("Max fee", gwei(req.MaxFee)+" gwei") + "\n")
	if req.ChainID != nil {
		b.WriteString(m.row("Chain", req.ChainID.String()) + "\n")
	}
	b.WriteString("\n" + m.st.muted.Render("y: sign • n: reject"))
	return m.st.modal.Render(b.String())
}
