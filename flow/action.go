package flow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Chain is what an action needs from the network. eth.BusClient implements it.
type Chain interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Send(ctx context.Context, from common.Address, call eth.Call, action, runID string) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash, action, runID string) (*eth.Receipt, error)
	SignTypedData(ctx context.Context, address common.Address, td apitypes.TypedData) ([]byte, error)
}

type Request struct {
	Owner  common.Address
	Amount *big.Int
	Quote  *big.Int // expected output, nil when unknown
}

// Action describes one state-changing operation of a page. When Token is
// set the action pulls Amount of Token from the owner and Spender must be
// approved first.
type Action struct {
	Kind      string
	Title     string
	BusyTitle string

	Token   common.Address
	Spender common.Address
	Payable bool

	Build  func(req Request) (eth.Call, error)
	Permit func(ctx context.Context, c Chain, req Request) (eth.Call, error)
}

func (a *Action) Gated() bool {
	return a.Token != (common.Address{})
}

// CallFor builds the transaction for a planned step.
func (a *Action) CallFor(ctx context.Context, c Chain, step Step, req Request) (eth.Call, error) {
	switch step {
	case StepApprove:
		return eth.ApproveCall(a.Token, a.Spender, req.Amount)
	case StepPermit:
		if a.Permit == nil {
			return eth.Call{}, fmt.Errorf("%s: permit not supported", a.Kind)
		}
		return a.Permit(ctx, c, req)
	case StepPrimary:
		if a.Build == nil {
			return eth.Call{}, fmt.Errorf("%s: nothing to build", a.Kind)
		}
		return a.Build(req)
	}
	return eth.Call{}, fmt.Errorf("%s: unknown step %d", a.Kind, step)
}

// NeedsApproval reports whether amount exceeds the current allowance.
func NeedsApproval(allowance, amount *big.Int) bool {
	if amount == nil {
		return false
	}
	if allowance == nil {
		return amount.Sign() > 0
	}
	return amount.Cmp(allowance) > 0
}
