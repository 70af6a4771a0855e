package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// BusClient talks to the eth server through the bus.
type BusClient struct {
	bus *bus.Bus
}

func NewBusClient(b *bus.Bus) *BusClient {
	return &BusClient{bus: b}
}

func (c *BusClient) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	res := c.bus.Fetch(ctx, "eth", "call", &bus.B_EthCall{To: to, Data: data})
	if res.Error != nil {
		return nil, res.Error
	}
	out, ok := res.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("call: unexpected response %T", res.Data)
	}
	return out, nil
}

func (c *BusClient) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	res := c.bus.Fetch(ctx, "eth", "balance", &bus.B_EthBalance{Address: address})
	if res.Error != nil {
		return nil, res.Error
	}
	v, ok := res.Data.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balance: unexpected response %T", res.Data)
	}
	return v, nil
}

func (c *BusClient) BlockNumber(ctx context.Context) (uint64, error) {
	res := c.bus.Fetch(ctx, "eth", "block-number", &bus.B_EthBlockNumber{})
	if res.Error != nil {
		return 0, res.Error
	}
	n, ok := res.Data.(uint64)
	if !ok {
		return 0, fmt.Errorf("block-number: unexpected response %T", res.Data)
	}
	return n, nil
}

func (c *BusClient) Send(ctx context.Context, from common.Address, call Call, action, runID string) (common.Hash, error) {
	res := c.bus.Fetch(ctx, "eth", "send-tx", &bus.B_EthSendTx{
		Action: action,
		RunID:  runID,
		From:   from,
		To:     call.To,
		Amount: call.Value,
		Data:   call.Data,
		Method: call.Method,
	})
	if res.Error != nil {
		return common.Hash{}, res.Error
	}
	h, ok := res.Data.(common.Hash)
	if !ok {
		return common.Hash{}, fmt.Errorf("send-tx: unexpected response %T", res.Data)
	}
	return h, nil
}

func (c *BusClient) WaitMined(ctx context.Context, hash common.Hash, action, runID string) (*Receipt, error) {
	res := c.bus.Fetch(ctx, "eth", "wait-receipt", &bus.B_EthWaitReceipt{Hash: hash, Action: action, RunID: runID})
	if res.Error != nil {
		return nil, res.Error
	}
	r, ok := res.Data.(*Receipt)
	if !ok {
		return nil, fmt.Errorf("wait-receipt: unexpected response %T", res.Data)
	}
	return r, nil
}

func (c *BusClient) SignTypedData(ctx context.Context, address common.Address, td apitypes.TypedData) ([]byte, error) {
	res := c.bus.Fetch(ctx, "eth", "sign-typed-data-v4", &bus.B_EthSignTypedData_v4{Address: address, TypedData: td})
	if res.Error != nil {
		return nil, res.Error
	}
	sig, ok := res.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("sign-typed-data-v4: unexpected response %T", res.Data)
	}
	return sig, nil
}
