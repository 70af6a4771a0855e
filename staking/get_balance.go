package staking

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

func NativeBalanceKey(owner common.Address) string {
	return fmt.Sprintf("native/%s", owner.Hex())
}

func BalanceKey(token, owner common.Address) string {
	return fmt.Sprintf("balance/%s/%s", token.Hex(), owner.Hex())
}

func AllowanceKey(token, spender, owner common.Address) string {
	return fmt.Sprintf("allowance/%s/%s/%s", token.Hex(), spender.Hex(), owner.Hex())
}

// NativeBalance reads the owner's balance of the chain currency.
func NativeBalance(r Reader, owner common.Address) cache.Query {
	return cache.Query{
		Key:   NativeBalanceKey(owner),
		Owner: owner,
		Fetch: func(ctx context.Context) (any, error) {
			b, err := r.Balance(ctx, owner)
			if err != nil {
				log.Error().Err(err).Msg("native balance")
				return nil, err
			}
			return b, nil
		},
	}
}

func TokenBalance(r Reader, token, owner common.Address) cache.Query {
	return cache.Query{
		Key:   BalanceKey(token, owner),
		Owner: owner,
		Fetch: func(ctx context.Context) (any, error) {
			return GetBalance(ctx, r, token, owner)
		},
	}
}

func Allowance(r Reader, token, spender, owner common.Address) cache.Query {
	return cache.Query{
		Key:   AllowanceKey(token, spender, owner),
		Owner: owner,
		Fetch: func(ctx context.Context) (any, error) {
			return GetAllowance(ctx, r, token, spender, owner)
		},
	}
}

func GetBalance(ctx context.Context, r Reader, token, owner common.Address) (*big.Int, error) {
	data, err := eth.ERC20.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}

	out, err := r.Call(ctx, token, data)
	if err != nil {
		log.Error().Err(err).Str("token", token.Hex()).Msg("eth call balanceOf")
		return nil, err
	}
	return eth.UnpackUint256(eth.ERC20, "balanceOf", out)
}

func GetAllowance(ctx context.Context, r Reader, token, spender, owner common.Address) (*big.Int, error) {
	data, err := eth.ERC20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}

	out, err := r.Call(ctx, token, data)
	if err != nil {
		log.Error().Err(err).Str("token", token.Hex()).Msg("eth call allowance")
		return nil, err
	}
	return eth.UnpackUint256(eth.ERC20, "allowance", out)
}
