package flow

import (
	"fmt"
	"math/big"
)

// PendingWithdrawal mirrors the vault's withdrawal request of one account.
type PendingWithdrawal struct {
	Shares      *big.Int
	UnlockBlock uint64
}

func (p *PendingWithdrawal) Exists() bool {
	return p != nil && p.Shares != nil && p.Shares.Sign() > 0
}

// WithdrawalState says which half of the withdrawal view to show. The
// request input and the completion button are never shown together.
type WithdrawalState struct {
	Loading      bool
	ShowRequest  bool
	ShowComplete bool
	CanComplete  bool
	UnlockBlock  uint64
	BlocksLeft   uint64
	Label        string
}

// WithdrawalView derives the view from the pending request and the chain
// head. pending is nil while it is not loaded.
func WithdrawalView(pending *PendingWithdrawal, currentBlock uint64) WithdrawalState {
	if pending == nil {
		return WithdrawalState{Loading: true}
	}
	if !pending.Exists() {
		return WithdrawalState{ShowRequest: true}
	}

	v := WithdrawalState{
		ShowComplete: true,
		UnlockBlock:  pending.UnlockBlock,
		CanComplete:  currentBlock >= pending.UnlockBlock,
	}
	if v.CanComplete {
		v.Label = "Complete withdrawal"
	} else {
		v.BlocksLeft = pending.UnlockBlock - currentBlock
		v.Label = fmt.Sprintf("Unlocks at block %d", pending.UnlockBlock)
	}
	return v
}
