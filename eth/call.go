package eth

import (
	"context"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog/log"
)

func (s *Server) call(ctx context.Context, msg *bus.Message) ([]byte, error) {
	req, ok := msg.Data.(*bus.B_EthCall)
	if !ok {
		return nil, bus.ErrInvalidMessageData
	}

	call_msg := ethereum.CallMsg{
		To:    &req.To,
		From:  req.From,
		Value: req.Value,
		Data:  req.Data,
	}

	var output []byte
	err := s.rpc(ctx, "eth_call", func(ctx context.Context) (err error) {
		output, err = s.backend.CallContract(ctx, call_msg, nil)
		return err
	})
	if err != nil {
		log.Debug().Err(err).Str("to", req.To.Hex()).Msg("call: Cannot call contract")
		return nil, wrapRevert(err)
	}

	return output, nil
}

func (s *Server) balance(ctx context.Context, msg *bus.Message) (*big.Int, error) {
	req, ok := msg.Data.(*bus.B_EthBalance)
	if !ok {
		return nil, bus.ErrInvalidMessageData
	}

	var balance *big.Int
	err := s.rpc(ctx, "eth_getBalance", func(ctx context.Context) (err error) {
		balance, err = s.backend.BalanceAt(ctx, req.Address, nil)
		return err
	})
	return balance, err
}

func (s *Server) blockNumber(ctx context.Context) (uint64, error) {
	if s.opts.Heads != nil {
		if n := s.opts.Heads.Latest(); n > 0 {
			return n, nil
		}
	}

	var n uint64
	err := s.rpc(ctx, "eth_blockNumber", func(ctx context.Context) (err error) {
		n, err = s.backend.BlockNumber(ctx)
		return err
	})
	return n, err
}
