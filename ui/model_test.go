package ui

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/AlexNa-Holdings/memestake/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeEndToEnd(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)
	reads := h.chain.readCount("native")
	require.Equal(t, 1, reads)

	h.press(t, "10")
	p := h.m.panels["stake"]
	assert.Equal(t, "10", p.input)
	assert.Contains(t, h.m.View(), "9.50 igM")

	h.press(t, "enter")

	sent := h.chain.sentCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, stakingVault, sent[0].To)
	assert.Equal(t, "deposit", sent[0].Method)
	assert.Equal(t, e18("10"), sent[0].Value)

	args, err := staking.StakingVault.Methods["deposit"].Inputs.Unpack(sent[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, user, args[0])
	assert.Zero(t, args[1].(*big.Int).Sign(), "no slippage bound by default")

	assert.Equal(t, flow.Done, p.machine.State())
	assert.Empty(t, p.input)
	assert.Equal(t, "✓ Staked", p.notice)
	assert.Greater(t, h.chain.readCount("native"), reads, "balance is read again after the receipt")
}

func TestPlaceholderBeforeFirstRead(t *testing.T) {
	h := newHarness(t, true)

	view := h.m.View()
	assert.Contains(t, view, "1 igM = -- M")
	assert.Contains(t, view, "-- M")
	assert.NotContains(t, view, "0.00")

	h.init(t)
	view = h.m.View()
	assert.Contains(t, view, "1 igM = 1.05 M")
	assert.Contains(t, view, "50.00 M")
	assert.Contains(t, view, "100.00 igM")
}

func TestButtonDisabledForBadInput(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)
	p := h.m.panels["stake"]

	_, ok := h.m.button(p)
	assert.False(t, ok, "empty amount")

	h.press(t, "0")
	_, ok = h.m.button(p)
	assert.False(t, ok, "zero amount")

	h.press(t, "enter")
	assert.Empty(t, h.chain.sentCalls())
	assert.Equal(t, cmn.ErrAmountNotPositive.Error(), p.err)

	h.press(t, ".", ".", "5")
	assert.Equal(t, "0.5", p.input, "second dot is ignored")
	label, ok := h.m.button(p)
	assert.True(t, ok)
	assert.Equal(t, "Stake", label)
}

func TestNoSecondDispatchWhileBusy(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)
	h.press(t, "10")
	p := h.m.panels["stake"]

	_, first := h.m.Update(keyMsg("enter"))
	require.NotNil(t, first)
	assert.Equal(t, flow.Submitting, p.machine.State())

	label, ok := h.m.button(p)
	assert.False(t, ok)
	assert.Equal(t, "Staking...", label)

	_, second := h.m.Update(keyMsg("enter"))
	assert.Nil(t, second)

	h.press(t, "5")
	assert.Equal(t, "10", p.input, "input is frozen while busy")

	h.drain(t, first)
	assert.Len(t, h.chain.sentCalls(), 1)
	assert.Equal(t, flow.Done, p.machine.State())
}

func TestDepositApprovesThenDeposits(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)
	h.press(t, "tab")
	require.Equal(t, pageEarn, h.m.page)
	h.init(t)

	p := h.m.active()
	require.Equal(t, "earn-deposit", p.id)

	h.press(t, "5")
	label, ok := h.m.button(p)
	assert.True(t, ok)
	assert.Equal(t, "Approve", label)
	assert.Contains(t, h.m.View(), "2.50 vigM")

	h.press(t, "enter")
	sent := h.chain.sentCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, "approve", sent[0].Method)
	assert.Equal(t, yieldAsset, sent[0].To)
	assert.Equal(t, flow.Approved, p.machine.State())
	assert.Equal(t, "5", p.input, "input survives the approval")
	assert.Equal(t, e18("5"), h.m.allowance(p, user), "exactly the requested amount")

	label, _ = h.m.button(p)
	assert.Equal(t, "Deposit", label)

	balances, allowances := h.chain.readCount("balanceOf"), h.chain.readCount("allowance")
	h.press(t, "enter")
	sent = h.chain.sentCalls()
	require.Len(t, sent, 2)
	assert.Equal(t, "deposit", sent[1].Method)
	assert.Equal(t, yieldVault, sent[1].To)

	assert.Equal(t, flow.Done, p.machine.State())
	assert.Empty(t, p.input)
	assert.Greater(t, h.chain.readCount("balanceOf"), balances)
	assert.Greater(t, h.chain.readCount("allowance"), allowances)
}

func TestNoApproveWhenAllowed(t *testing.T) {
	h := newHarness(t, true)
	h.chain.allowance[yieldVault] = e18("10")
	h.press(t, "tab")
	h.init(t)

	h.press(t, "10", "enter")
	sent := h.chain.sentCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, "deposit", sent[0].Method)
}

func TestFailureIsShownVerbatim(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)
	h.chain.sendErr = errors.New("user rejected the request")

	h.press(t, "10", "enter")
	p := h.m.panels["stake"]
	assert.Equal(t, flow.Failed, p.machine.State())
	assert.Equal(t, "user rejected the request", p.err)
	assert.Equal(t, "10", p.input)
	assert.Contains(t, h.m.View(), "user rejected the request")

	h.chain.sendErr = nil
	h.chain.revert = true
	h.press(t, "enter")
	assert.Equal(t, flow.Failed, p.machine.State())
	assert.Equal(t, flow.ErrReverted.Error(), p.err)

	h.chain.revert = false
	h.press(t, "enter")
	assert.Equal(t, flow.Done, p.machine.State())
	assert.Empty(t, p.err)
	assert.Len(t, h.chain.sentCalls(), 2)
}

func TestUnstakeModes(t *testing.T) {
	h := newHarness(t, true)
	h.init(t)
	h.press(t, "right")
	assert.Equal(t, "unstake", h.m.active().id)

	h.press(t, "10")
	assert.Contains(t, h.m.View(), "10.50 M")
	h.press(t, "esc")

	h.press(t, "m")
	p := h.m.active()
	require.Equal(t, "withdraw", p.id)

	h.press(t, "10")
	assert.Contains(t, h.m.View(), "9.50 igM")
	h.press(t, "enter")

	sent := h.chain.sentCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, "withdraw", sent[0].Method)
	args, err := staking.StakingVault.Methods["withdraw"].Inputs.Unpack(sent[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, e18("10"), args[0])
	assert.Equal(t, math.MaxBig256, args[3])
}

func TestWithdrawalFollowsUnlockBlock(t *testing.T) {
	h := newHarness(t, true)
	h.press(t, "tab", "right")
	h.init(t)

	p := h.m.active()
	require.Equal(t, "earn-request", p.id)
	label, _ := h.m.button(p)
	assert.Equal(t, "Withdrawal", label)

	h.chain.pending = &flow.PendingWithdrawal{Shares: e18("4"), UnlockBlock: 120}
	h.press(t, "r")

	p = h.m.active()
	require.Equal(t, "earn-complete", p.id)
	label, ok := h.m.button(p)
	assert.False(t, ok)
	assert.Equal(t, "Unlocks at block 120", label)
	view := h.m.View()
	assert.Contains(t, view, "4.00 vigM")
	assert.NotContains(t, view, "Amount", "no request input while a withdrawal is pending")

	h.press(t, "enter")
	assert.Empty(t, h.chain.sentCalls())

	h.chain.block = 120
	h.press(t, "r")
	label, ok = h.m.button(p)
	assert.True(t, ok)
	assert.Equal(t, "Complete withdrawal", label)

	h.press(t, "enter")
	sent := h.chain.sentCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, "completeWithdrawal", sent[0].Method)
	assert.Equal(t, "earn-request", h.m.active().id)
}

func TestSimulateYield(t *testing.T) {
	h := newHarness(t, true)
	h.press(t, "shift+tab")
	require.Equal(t, pageSimulate, h.m.page)
	h.init(t)
	assert.Contains(t, h.m.View(), "1 vigM = 2.00 igM")

	h.press(t, "3")
	p := h.m.active()
	label, _ := h.m.button(p)
	assert.Equal(t, "Approve", label)

	h.press(t, "enter")
	label, _ = h.m.button(p)
	assert.Equal(t, "Award Grant", label)

	h.press(t, "enter")
	sent := h.chain.sentCalls()
	require.Len(t, sent, 2)
	assert.Equal(t, strategy, sent[1].To)
	assert.Equal(t, "adminDepositRewards", sent[1].Method)
	assert.Equal(t, "✓ Grant awarded!", p.notice)
}

func TestConnectCopyLogout(t *testing.T) {
	h := newHarness(t, false)
	h.init(t)

	assert.Contains(t, h.m.header(), "Connect")
	h.press(t, "enter")
	require.NotNil(t, h.m.login)

	h.press(t, "bad", "enter")
	assert.Equal(t, "wrong password or corrupted wallet file", h.m.login.err)
	assert.Empty(t, h.m.login.password)

	h.press(t, "pw", "enter")
	assert.Nil(t, h.m.login)
	assert.Contains(t, h.m.header(), cmn.ShortAddress(user))
	assert.True(t, h.store.Get(staking.NativeBalanceKey(user)).Known)

	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })
	h.press(t, "c")
	assert.Equal(t, user.Hex(), copied)

	h.press(t, "10")
	h.press(t, "l")
	assert.Contains(t, h.m.header(), "Connect")
	assert.Empty(t, h.m.panels["stake"].input)
	assert.False(t, h.store.Get(staking.NativeBalanceKey(user)).Known, "account reads are gone")
}

func TestEmailLogin(t *testing.T) {
	h := newHarness(t, false)
	h.press(t, "l", "tab")
	require.Equal(t, loginEmail, h.m.login.mode)

	h.press(t, "enter")
	assert.Equal(t, "enter an email address", h.m.login.err)

	h.press(t, "me@example.com", "enter")
	assert.True(t, h.m.codeStage())
	assert.Contains(t, h.m.View(), "Awaiting Code Input")

	h.press(t, "000000", "enter")
	assert.Equal(t, "invalid code", h.m.login.err)
	assert.True(t, h.m.codeStage(), "code can be retried")

	h.press(t, "123456", "enter")
	assert.Nil(t, h.m.login)
	_, ok := h.m.owner()
	assert.True(t, ok)
}

func TestEmailLoginAgainAfterLogout(t *testing.T) {
	h := newHarness(t, false)
	h.press(t, "l", "tab", "me@example.com", "enter", "123456", "enter")
	require.Nil(t, h.m.login)
	require.Equal(t, wallet.EmailDone, h.m.deps.Email.State())

	h.press(t, "l")
	assert.Contains(t, h.m.header(), "Connect")
	assert.Equal(t, wallet.EmailInitial, h.m.deps.Email.State())

	h.press(t, "l", "tab", "you@example.com", "enter")
	assert.Empty(t, h.m.login.err)
	assert.True(t, h.m.codeStage())

	h.press(t, "123456", "enter")
	assert.Nil(t, h.m.login)
	_, ok := h.m.owner()
	assert.True(t, ok)
}

func TestOpenLoginRestartsFinishedEmailFlow(t *testing.T) {
	h := newHarness(t, false)
	e := h.m.deps.Email
	require.NoError(t, e.SendCode(context.Background(), "me@example.com"))
	require.NoError(t, e.LoginWithCode(context.Background(), "123456"))
	h.session.authed = false

	h.press(t, "l")
	require.NotNil(t, h.m.login)
	assert.Equal(t, wallet.EmailInitial, e.State())
}

func TestConnectedOnlyReads(t *testing.T) {
	h := newHarness(t, false)
	qs := h.m.pageQueries(pageEarn)
	for _, q := range qs {
		assert.Equal(t, common.Address{}, q.Owner, q.Key)
	}

	h.session.authed = true
	var owned int
	for _, q := range h.m.pageQueries(pageEarn) {
		if q.Owner == user {
			owned++
		}
	}
	assert.Equal(t, 4, owned, "two balances, allowance and pending withdrawal")
}
