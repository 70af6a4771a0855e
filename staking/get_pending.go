package staking

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

func PendingWithdrawalKey(vault, owner common.Address) string {
	return fmt.Sprintf("withdrawal/%s/%s", vault.Hex(), owner.Hex())
}

func (c *Contracts) PendingWithdrawal(r Reader, owner common.Address) cache.Query {
	return cache.Query{
		Key:   PendingWithdrawalKey(c.YieldVault, owner),
		Owner: owner,
		Fetch: func(ctx context.Context) (any, error) {
			return GetPendingWithdrawal(ctx, r, c.YieldVault, owner)
		},
	}
}

// GetPendingWithdrawal reads withdrawalRequests(owner) of the yield vault.
func GetPendingWithdrawal(ctx context.Context, r Reader, vault, owner common.Address) (*flow.PendingWithdrawal, error) {
	data, err := YieldVault.Pack("withdrawalRequests", owner)
	if err != nil {
		return nil, err
	}

	out, err := r.Call(ctx, vault, data)
	if err != nil {
		log.Error().Err(err).Msg("eth call withdrawalRequests")
		return nil, err
	}

	values, err := YieldVault.Unpack("withdrawalRequests", out)
	if err != nil {
		return nil, fmt.Errorf("withdrawalRequests: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("withdrawalRequests: %d values", len(values))
	}
	shares, ok1 := values[0].(*big.Int)
	unlock, ok2 := values[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("withdrawalRequests: unexpected result types")
	}
	if !unlock.IsUint64() {
		return nil, fmt.Errorf("withdrawalRequests: unlock block %s out of range", unlock)
	}

	return &flow.PendingWithdrawal{Shares: shares, UnlockBlock: unlock.Uint64()}, nil
}
