package staking

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/rs/zerolog/log"
)

const PermitLifetime = 20 * time.Minute

// PermitTypedData is the EIP-2612 Permit message for token.
func PermitTypedData(name string, chainID *big.Int, token, owner, spender common.Address, value, nonce, deadline *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Permit": {
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: token.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    owner.Hex(),
			"spender":  spender.Hex(),
			"value":    value.String(),
			"nonce":    nonce.String(),
			"deadline": deadline.String(),
		},
	}
}

// SplitSignature returns r, s and v (27 or 28) of a 65 byte signature.
func SplitSignature(sig []byte) ([32]byte, [32]byte, uint8, error) {
	var r, s [32]byte
	if len(sig) != 65 {
		return r, s, 0, fmt.Errorf("signature has %d bytes", len(sig))
	}
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	v := sig[64]
	if v < 27 {
		v += 27
	}
	return r, s, v, nil
}

func (c *Contracts) permitNonce(ctx context.Context, r Reader, owner common.Address) (*big.Int, error) {
	data, err := eth.ERC20.Pack("nonces", owner)
	if err != nil {
		return nil, err
	}
	out, err := r.Call(ctx, c.YieldAsset, data)
	if err != nil {
		return nil, err
	}
	return eth.UnpackUint256(eth.ERC20, "nonces", out)
}

func (c *Contracts) tokenName(ctx context.Context, r Reader) (string, error) {
	data, err := eth.ERC20.Pack("name")
	if err != nil {
		return "", err
	}
	out, err := r.Call(ctx, c.YieldAsset, data)
	if err != nil {
		return "", err
	}
	return eth.UnpackString(eth.ERC20, "name", out)
}

// depositWithPermit signs a permit for exactly the amount and builds the
// single depositWithPermit call.
func (c *Contracts) depositWithPermit(ctx context.Context, ch flow.Chain, req flow.Request) (eth.Call, error) {
	name, err := c.tokenName(ctx, ch)
	if err != nil {
		return eth.Call{}, fmt.Errorf("permit: token name: %w", err)
	}
	nonce, err := c.permitNonce(ctx, ch, req.Owner)
	if err != nil {
		return eth.Call{}, fmt.Errorf("permit: nonce: %w", err)
	}
	deadline := big.NewInt(c.clock().Add(PermitLifetime).Unix())

	td := PermitTypedData(name, c.ChainID, c.YieldAsset, req.Owner, c.YieldVault, req.Amount, nonce, deadline)
	sig, err := ch.SignTypedData(ctx, req.Owner, td)
	if err != nil {
		return eth.Call{}, err
	}
	r, s, v, err := SplitSignature(sig)
	if err != nil {
		return eth.Call{}, err
	}

	log.Debug().Str("nonce", nonce.String()).Str("deadline", deadline.String()).Msg("permit signed")
	return pack(c.YieldVault, YieldVault, "depositWithPermit",
		req.Amount, req.Owner, MinOut(req.Quote, c.SlippageBps), deadline, v, r, s)
}
