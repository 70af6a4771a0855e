package eth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

func (s *Server) waitReceipt(ctx context.Context, msg *bus.Message) (*Receipt, error) {
	req, ok := msg.Data.(*bus.B_EthWaitReceipt)
	if !ok {
		return nil, bus.ErrInvalidMessageData
	}

	ticker := time.NewTicker(s.opts.ReceiptPoll)
	defer ticker.Stop()

	for {
		var r *types.Receipt
		err := s.rpc(ctx, "eth_getTransactionReceipt", func(ctx context.Context) (err error) {
			r, err = s.backend.TransactionReceipt(ctx, req.Hash)
			return err
		})

		if err == nil && r != nil {
			receipt := &Receipt{
				Hash:    req.Hash,
				Status:  r.Status,
				GasUsed: r.GasUsed,
			}
			if r.BlockNumber != nil {
				receipt.BlockNumber = r.BlockNumber.Uint64()
			}

			ev := &bus.B_TxEvent{Action: req.Action, RunID: req.RunID, Hash: req.Hash, Block: receipt.BlockNumber}
			if receipt.Succeeded() {
				log.Info().Str("run", req.RunID).Str("hash", req.Hash.Hex()).Uint64("block", receipt.BlockNumber).Msg("Transaction mined")
				s.bus.Send("tx", "mined", ev)
			} else {
				ev.Error = "transaction reverted"
				log.Warn().Str("run", req.RunID).Str("hash", req.Hash.Hex()).Msg("Transaction reverted")
				s.bus.Send("tx", "failed", ev)
			}
			return receipt, nil
		}

		if err != nil && !errors.Is(err, ethereum.NotFound) {
			log.Debug().Err(err).Str("hash", req.Hash.Hex()).Msg("waitReceipt: retrying")
		}

		select {
		case <-ctx.Done():
			s.bus.Send("tx", "failed", &bus.B_TxEvent{Action: req.Action, RunID: req.RunID, Hash: req.Hash, Error: ctx.Err().Error()})
			return nil, fmt.Errorf("waiting for %s: %w", req.Hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
