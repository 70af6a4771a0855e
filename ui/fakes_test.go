package ui

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/AlexNa-Holdings/memestake/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	stakingVault = common.HexToAddress("0x1000000000000000000000000000000000000001")
	receiptToken = common.HexToAddress("0x1000000000000000000000000000000000000002")
	yieldVault   = common.HexToAddress("0x1000000000000000000000000000000000000003")
	yieldAsset   = common.HexToAddress("0x1000000000000000000000000000000000000004")
	yieldShare   = common.HexToAddress("0x1000000000000000000000000000000000000005")
	strategy     = common.HexToAddress("0x1000000000000000000000000000000000000006")
	user         = common.HexToAddress("0x2000000000000000000000000000000000000001")
)

func e18(s string) *big.Int {
	return decimal.RequireFromString(s).Shift(18).BigInt()
}

func percent(v *big.Int, p int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(p))
	return out.Quo(out, big.NewInt(100))
}

// fakeChain is a deployment where staking shares trade at 0.95 per M and
// yield shares are worth 2 igM.
type fakeChain struct {
	mu sync.Mutex

	reads     map[string]int
	allowance map[common.Address]*big.Int // by spender
	pending   *flow.PendingWithdrawal
	block     uint64

	sent    []eth.Call
	sendErr error
	revert  bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		reads:     map[string]int{},
		allowance: map[common.Address]*big.Int{},
		block:     100,
	}
}

func (f *fakeChain) readCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[method]
}

func (f *fakeChain) sentCalls() []eth.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]eth.Call(nil), f.sent...)
}

func abiOf(to common.Address) abi.ABI {
	switch to {
	case stakingVault:
		return staking.StakingVault
	case yieldVault:
		return staking.YieldVault
	case strategy:
		return staking.Strategy
	}
	return eth.ERC20
}

func (f *fakeChain) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := abiOf(to)
	m, err := a.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	f.reads[m.Name]++

	switch m.Name {
	case "convertToShares":
		amount := args[0].(*big.Int)
		if to == stakingVault {
			return m.Outputs.Pack(percent(amount, 95))
		}
		return m.Outputs.Pack(percent(amount, 50))
	case "convertToAssets":
		amount := args[0].(*big.Int)
		if to == stakingVault {
			return m.Outputs.Pack(percent(amount, 105))
		}
		return m.Outputs.Pack(percent(amount, 200))
	case "balanceOf":
		return m.Outputs.Pack(e18("100"))
	case "allowance":
		v := f.allowance[args[1].(common.Address)]
		if v == nil {
			v = new(big.Int)
		}
		return m.Outputs.Pack(v)
	case "withdrawalRequests":
		if !f.pending.Exists() {
			return m.Outputs.Pack(new(big.Int), new(big.Int))
		}
		return m.Outputs.Pack(f.pending.Shares, new(big.Int).SetUint64(f.pending.UnlockBlock))
	}
	return nil, fmt.Errorf("unexpected call %s", m.Name)
}

func (f *fakeChain) Balance(context.Context, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["native"]++
	return e18("50"), nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block, nil
}

func (f *fakeChain) Send(_ context.Context, _ common.Address, call eth.Call, _, _ string) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, call)

	switch call.Method {
	case "approve":
		args, err := eth.ERC20.Methods["approve"].Inputs.Unpack(call.Data[4:])
		if err != nil {
			return common.Hash{}, err
		}
		f.allowance[args[0].(common.Address)] = args[1].(*big.Int)
	case "completeWithdrawal":
		f.pending = nil
	}
	return common.BigToHash(big.NewInt(int64(len(f.sent)))), nil
}

func (f *fakeChain) WaitMined(_ context.Context, hash common.Hash, _, _ string) (*eth.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	}
	return &eth.Receipt{Hash: hash, Status: status, BlockNumber: f.block}, nil
}

func (f *fakeChain) SignTypedData(context.Context, common.Address, apitypes.TypedData) ([]byte, error) {
	return nil, errors.New("typed data not supported")
}

type fakeSession struct {
	mu      sync.Mutex
	authed  bool
	pass    string
	wallets []string
	store   *cache.Store
}

func (s *fakeSession) Status() wallet.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wallet.Status{Ready: true, Authenticated: s.authed}
}

func (s *fakeSession) Primary() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return user, s.authed
}

func (s *fakeSession) Login(_, pass string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pass != s.pass {
		return wallet.ErrBadPassword
	}
	s.authed = true
	return nil
}

func (s *fakeSession) Logout() common.Address {
	s.mu.Lock()
	s.authed = false
	s.mu.Unlock()
	s.store.ClearOwner(user)
	return user
}

func (s *fakeSession) Wallets() []string { return s.wallets }

// fakeProvider accepts the code "123456" and logs the session in.
type fakeProvider struct {
	session *fakeSession
}

func (p *fakeProvider) SendCode(context.Context, string) error { return nil }

func (p *fakeProvider) VerifyCode(_ context.Context, _, code string) (wallet.Account, error) {
	if code != "123456" {
		return nil, errors.New("invalid code")
	}
	p.session.mu.Lock()
	p.session.authed = true
	p.session.mu.Unlock()
	return nil, nil
}

type harness struct {
	m       *Model
	chain   *fakeChain
	session *fakeSession
	store   *cache.Store
}

func newHarness(t *testing.T, authed bool) *harness {
	t.Helper()

	store, err := cache.New(0)
	require.NoError(t, err)

	cfg := cmn.DefaultConfig()
	chain := newFakeChain()
	session := &fakeSession{authed: authed, pass: "pw", wallets: []string{"main"}, store: store}
	contracts := &staking.Contracts{
		StakingVault: stakingVault,
		ReceiptToken: receiptToken,
		YieldVault:   yieldVault,
		YieldAsset:   yieldAsset,
		YieldShare:   yieldShare,
		Strategy:     strategy,
		ChainID:      big.NewInt(int64(cfg.ChainID)),
		Symbols:      cfg.Symbols,
	}

	m := New(Deps{
		Session:   session,
		Email:     wallet.NewEmailLogin(&fakeProvider{session: session}, nil),
		Chain:     chain,
		Cache:     store,
		Contracts: contracts,
		Config:    cfg,
	})
	return &harness{m: m, chain: chain, session: session, store: store}
}

func (h *harness) init(t *testing.T) {
	t.Helper()
	h.drain(t, h.m.Init())
}

// send feeds msg through Update and runs every command that follows.
func (h *harness) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	_, cmd := h.m.Update(msg)
	h.drain(t, cmd)
}

func (h *harness) drain(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := exec(cmd)
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 500, "update loop does not settle")
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		_, next := h.m.Update(msg)
		queue = append(queue, exec(next)...)
	}
}

func (h *harness) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		h.send(t, keyMsg(k))
	}
}

func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
