package staking

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog/log"
)

const BlockKey = "block"

func RateKey(vault common.Address) string {
	return fmt.Sprintf("rate/%s", vault.Hex())
}

func QuoteKey(vault common.Address, method string, amount *big.Int) string {
	return fmt.Sprintf("quote/%s/%s/%s", vault.Hex(), method, amount)
}

// Rate is convertToAssets(1e18): assets for one whole share.
func Rate(r Reader, a abi.ABI, vault common.Address) cache.Query {
	return cache.Query{
		Key: RateKey(vault),
		Fetch: func(ctx context.Context) (any, error) {
			return Convert(ctx, r, a, vault, "convertToAssets", big.NewInt(params.Ether))
		},
	}
}

// Quote previews an action: convertToShares or convertToAssets of amount.
func Quote(r Reader, a abi.ABI, vault common.Address, method string, amount *big.Int) cache.Query {
	return cache.Query{
		Key: QuoteKey(vault, method, amount),
		Fetch: func(ctx context.Context) (any, error) {
			return Convert(ctx, r, a, vault, method, amount)
		},
	}
}

func BlockNumber(r Reader) cache.Query {
	return cache.Query{
		Key: BlockKey,
		Fetch: func(ctx context.Context) (any, error) {
			return r.BlockNumber(ctx)
		},
	}
}

func Convert(ctx context.Context, r Reader, a abi.ABI, vault common.Address, method string, amount *big.Int) (*big.Int, error) {
	data, err := a.Pack(method, amount)
	if err != nil {
		return nil, err
	}

	out, err := r.Call(ctx, vault, data)
	if err != nil {
		log.Error().Err(err).Str("vault", vault.Hex()).Msgf("eth call %s", method)
		return nil, err
	}
	return eth.UnpackUint256(a, method, out)
}

// StrategyRate reads getExchangeRate() of the reward strategy.
func (c *Contracts) StrategyRate(ctx context.Context, r Reader) (*big.Int, error) {
	data, err := Strategy.Pack("getExchangeRate")
	if err != nil {
		return nil, err
	}
	out, err := r.Call(ctx, c.Strategy, data)
	if err != nil {
		return nil, err
	}
	return eth.UnpackUint256(Strategy, "getExchangeRate", out)
}
