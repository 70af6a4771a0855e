package eth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Call is a state-changing contract call before it becomes a transaction.
type Call struct {
	To     common.Address
	Data   []byte
	Value  *big.Int
	Method string
}

type Receipt struct {
	Hash        common.Hash
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == types.ReceiptStatusSuccessful
}
