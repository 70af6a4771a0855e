package bus

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ---------- eth ----------

type B_EthCall struct { // call
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

type B_EthBalance struct { // balance
	Address common.Address
}

type B_EthBlockNumber struct{} // block-number

type B_EthSendTx struct { // send-tx
	Action string // action kind, used for events and confirmation
	RunID  string
	From   common.Address
	To     common.Address
	Amount *big.Int
	Data   []byte
	Method string
}

type B_EthWaitReceipt struct { // wait-receipt
	Action string
	RunID  string
	Hash   common.Hash
}

type B_EthSignTypedData_v4 struct { // sign-typed-data-v4
	Address   common.Address
	TypedData apitypes.TypedData
}

type B_EthHead struct { // head
	Number uint64
}

// ---------- signer ----------

type B_SignerSignTx struct { // sign-tx
	From    common.Address
	ChainID *big.Int
	Tx      *types.Transaction
}

type B_SignerSignTypedData_v4 struct { // sign-typed-data-v4
	Address   common.Address
	TypedData apitypes.TypedData
}

// ---------- ui ----------

type B_ConfirmTx struct { // confirm-tx
	Action  string
	From    common.Address
	To      common.Address
	Method  string
	Amount  *big.Int
	Gas     uint64
	MaxFee  *big.Int
	ChainID *big.Int
}

// ---------- tx ----------

type B_TxEvent struct { // sent, mined, failed
	Action string
	RunID  string
	Hash   common.Hash
	Block  uint64
	Error  string
}

// ---------- wallet ----------

type B_WalletEvent struct { // login, logout
	Address common.Address
	Method  string // "wallet" or "email"
}
