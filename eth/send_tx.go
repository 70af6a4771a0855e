package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

func (s *Server) chainID(ctx context.Context) (*big.Int, error) {
	if s.opts.ChainID != nil {
		return s.opts.ChainID, nil
	}
	var id *big.Int
	err := s.rpc(ctx, "eth_chainId", func(ctx context.Context) (err error) {
		id, err = s.backend.ChainID(ctx)
		return err
	})
	return id, err
}

// BuildTx prepares an unsigned transaction: EIP-1559 fees when the chain
// reports a base fee, legacy gas price otherwise.
func (s *Server) BuildTx(ctx context.Context, from, to common.Address, amount *big.Int, data []byte) (*types.Transaction, error) {
	if amount == nil {
		amount = new(big.Int)
	}

	chainID, err := s.chainID(ctx)
	if err != nil {
		return nil, err
	}

	var nonce uint64
	err = s.rpc(ctx, "eth_getTransactionCount", func(ctx context.Context) (err error) {
		nonce, err = s.backend.PendingNonceAt(ctx, from)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("BuildTx: Cannot get nonce")
		return nil, err
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    &to,
		Gas:   0, // Set to 0 for gas estimation
		Value: amount,
		Data:  data,
	}

	var gasLimit uint64
	err = s.rpc(ctx, "eth_estimateGas", func(ctx context.Context) (err error) {
		gasLimit, err = s.backend.EstimateGas(ctx, msg)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("BuildTx: Cannot estimate gas")
		return nil, wrapRevert(err)
	}

	var head *types.Header
	err = s.rpc(ctx, "eth_getBlockByNumber", func(ctx context.Context) (err error) {
		head, err = s.backend.HeaderByNumber(ctx, nil)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("BuildTx: Failed to get the latest header")
		return nil, err
	}

	if head.BaseFee == nil {
		var gasPrice *big.Int
		err = s.rpc(ctx, "eth_gasPrice", func(ctx context.Context) (err error) {
			gasPrice, err = s.backend.SuggestGasPrice(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			To:       &to,
			Value:    amount,
			Data:     data,
		}), nil
	}

	var priorityFee *big.Int
	err = s.rpc(ctx, "eth_maxPriorityFeePerGas", func(ctx context.Context) (err error) {
		priorityFee, err = s.backend.SuggestGasTipCap(ctx)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("BuildTx: Failed to suggest gas tip cap")
		return nil, err
	}

	// max fee = (base fee + tip) * 2
	maxFeePerGas := new(big.Int).Add(head.BaseFee, priorityFee)
	maxFeePerGas.Mul(maxFeePerGas, big.NewInt(2))

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: priorityFee,
		GasFeeCap: maxFeePerGas,
		Gas:       gasLimit,
		To:        &to,
		Value:     amount,
		Data:      data,
	}), nil
}

func (s *Server) sendTx(ctx context.Context, msg *bus.Message) (common.Hash, error) {
	req, ok := msg.Data.(*bus.B_EthSendTx)
	if !ok {
		return common.Hash{}, bus.ErrInvalidMessageData
	}

	tx, err := s.BuildTx(ctx, req.From, req.To, req.Amount, req.Data)
	if err != nil {
		return common.Hash{}, err
	}

	chainID, err := s.chainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	if s.opts.Confirm {
		res := s.bus.Fetch(ctx, "ui", "confirm-tx", &bus.B_ConfirmTx{
			Action:  req.Action,
			From:    req.From,
			To:      req.To,
			Method:  req.Method,
			Amount:  tx.Value(),
			Gas:     tx.Gas(),
			MaxFee:  tx.GasFeeCap(),
			ChainID: chainID,
		})
		if res.Error != nil {
			return common.Hash{}, res.Error
		}
		if confirmed, _ := res.Data.(bool); !confirmed {
			return common.Hash{}, ErrRejected
		}
	}

	res := s.bus.Fetch(ctx, "signer", "sign-tx", &bus.B_SignerSignTx{
		From:    req.From,
		ChainID: chainID,
		Tx:      tx,
	})
	if res.Error != nil {
		return common.Hash{}, res.Error
	}

	signed, ok := res.Data.(*types.Transaction)
	if !ok || signed == nil {
		return common.Hash{}, errors.New("signer returned no transaction")
	}

	err = s.rpc(ctx, "eth_sendRawTransaction", func(ctx context.Context) error {
		return s.backend.SendTransaction(ctx, signed)
	})
	if err != nil {
		log.Error().Err(err).Str("run", req.RunID).Msg("sendTx: Cannot send transaction")
		return common.Hash{}, wrapRevert(err)
	}

	log.Info().Str("run", req.RunID).Str("action", req.Action).Str("hash", signed.Hash().Hex()).Msg("Transaction sent")
	s.bus.Send("tx", "sent", &bus.B_TxEvent{Action: req.Action, RunID: req.RunID, Hash: signed.Hash()})
	s.bus.Send("ui", "notify", fmt.Sprintf("Transaction sent: %s", signed.Hash().Hex()))

	return signed.Hash(), nil
}
