package staking

import (
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

const bpsDenominator = 10_000

// MinOut lowers a quote by the slippage tolerance. Without a tolerance
// or a quote there is no bound.
func MinOut(quote *big.Int, bps int) *big.Int {
	if bps <= 0 || quote == nil {
		return new(big.Int)
	}
	v := new(big.Int).Mul(quote, big.NewInt(int64(bpsDenominator-bps)))
	return v.Quo(v, big.NewInt(bpsDenominator))
}

// MaxIn raises a quote by the slippage tolerance, rounding up.
func MaxIn(quote *big.Int, bps int) *big.Int {
	if bps <= 0 || quote == nil {
		return new(big.Int).Set(math.MaxBig256)
	}
	v := new(big.Int).Mul(quote, big.NewInt(int64(bpsDenominator+bps)))
	v.Add(v, big.NewInt(bpsDenominator-1))
	return v.Quo(v, big.NewInt(bpsDenominator))
}

func pack(to common.Address, a abi.ABI, method string, args ...interface{}) (eth.Call, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return eth.Call{}, fmt.Errorf("%s: %w", method, err)
	}
	return eth.Call{To: to, Data: data, Method: method}, nil
}

// Stake sends M to the staking vault for igM.
func (c *Contracts) Stake() *flow.Action {
	return &flow.Action{
		Kind:      "stake",
		Title:     "Stake",
		BusyTitle: "Staking...",
		Payable:   true,
		Build: func(req flow.Request) (eth.Call, error) {
			call, err := pack(c.StakingVault, StakingVault, "deposit", req.Owner, MinOut(req.Quote, c.SlippageBps))
			call.Value = req.Amount
			return call, err
		},
	}
}

// Unstake redeems igM shares for M.
func (c *Contracts) Unstake() *flow.Action {
	return &flow.Action{
		Kind:      "unstake",
		Title:     "Unstake",
		BusyTitle: "Unstaking...",
		Build: func(req flow.Request) (eth.Call, error) {
			return pack(c.StakingVault, StakingVault, "redeem", req.Amount, req.Owner, req.Owner, MinOut(req.Quote, c.SlippageBps))
		},
	}
}

// Withdraw takes an exact amount of M out of the staking vault.
func (c *Contracts) Withdraw() *flow.Action {
	return &flow.Action{
		Kind:      "withdraw",
		Title:     "Unstake",
		BusyTitle: "Unstaking...",
		Build: func(req flow.Request) (eth.Call, error) {
			return pack(c.StakingVault, StakingVault, "withdraw", req.Amount, req.Owner, req.Owner, MaxIn(req.Quote, c.SlippageBps))
		},
	}
}

// EarnDeposit moves igM into the yield vault. It needs an allowance, or a
// signed permit when permits are enabled.
func (c *Contracts) EarnDeposit() *flow.Action {
	a := &flow.Action{
		Kind:      "earn-deposit",
		Title:     "Deposit",
		BusyTitle: "Depositing...",
		Token:     c.YieldAsset,
		Spender:   c.YieldVault,
		Build: func(req flow.Request) (eth.Call, error) {
			return pack(c.YieldVault, YieldVault, "deposit", req.Amount, req.Owner, MinOut(req.Quote, c.SlippageBps))
		},
	}
	if c.UsePermit {
		a.Permit = c.depositWithPermit
	}
	return a
}

func (c *Contracts) EarnRequestWithdrawal() *flow.Action {
	return &flow.Action{
		Kind:      "earn-request",
		Title:     "Withdrawal",
		BusyTitle: "Requesting...",
		Build: func(req flow.Request) (eth.Call, error) {
			return pack(c.YieldVault, YieldVault, "requestWithdrawal", req.Amount)
		},
	}
}

// EarnCompleteWithdrawal takes no amount; callers pass the pending shares
// so the flow has something positive to plan with.
func (c *Contracts) EarnCompleteWithdrawal() *flow.Action {
	return &flow.Action{
		Kind:      "earn-complete",
		Title:     "Complete withdrawal",
		BusyTitle: "Completing...",
		Build: func(flow.Request) (eth.Call, error) {
			return pack(c.YieldVault, YieldVault, "completeWithdrawal")
		},
	}
}

// SimulateYield approves the strategy and deposits rewards into it.
func (c *Contracts) SimulateYield() *flow.Action {
	return &flow.Action{
		Kind:      "simulate",
		Title:     "Award Grant",
		BusyTitle: "Awarding...",
		Token:     c.YieldAsset,
		Spender:   c.Strategy,
		Build: func(req flow.Request) (eth.Call, error) {
			return pack(c.Strategy, Strategy, "adminDepositRewards", req.Amount)
		},
	}
}
