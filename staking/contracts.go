package staking

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/eth"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Reader is the read side of flow.Chain.
type Reader interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Contracts is the deployment the app works with.
type Contracts struct {
	StakingVault common.Address
	ReceiptToken common.Address
	YieldVault   common.Address
	YieldAsset   common.Address
	YieldShare   common.Address
	Strategy     common.Address

	ChainID     *big.Int
	SlippageBps int
	UsePermit   bool
	Symbols     cmn.SSymbols

	now func() time.Time
}

func FromConfig(c *cmn.SConfig) (*Contracts, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out := &Contracts{
		ChainID:     c.Chain().BigID(),
		SlippageBps: c.SlippageBps,
		UsePermit:   c.UsePermit,
		Symbols:     c.Symbols,
		now:         time.Now,
	}

	// Validate has already checked every address
	out.StakingVault, _ = cmn.ParseAddress(c.Contracts.StakingVault)
	out.ReceiptToken, _ = cmn.ParseAddress(c.Contracts.ReceiptToken)
	out.YieldVault, _ = cmn.ParseAddress(c.Contracts.YieldVault)
	out.YieldAsset, _ = cmn.ParseAddress(c.Contracts.YieldAsset)
	out.YieldShare, _ = cmn.ParseAddress(c.Contracts.YieldShare)
	out.Strategy, _ = cmn.ParseAddress(c.Contracts.Strategy)
	return out, nil
}

func (c *Contracts) HasStaking() bool  { return c.StakingVault != (common.Address{}) }
func (c *Contracts) HasYield() bool    { return c.YieldVault != (common.Address{}) }
func (c *Contracts) HasStrategy() bool { return c.Strategy != (common.Address{}) }

func (c *Contracts) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Resolve fills token addresses left empty in the config from the vaults.
func (c *Contracts) Resolve(ctx context.Context, r Reader) error {
	type lookup struct {
		target *common.Address
		vault  common.Address
		a      abi.ABI
		method string
	}

	lookups := []lookup{}
	if c.HasStaking() && c.ReceiptToken == (common.Address{}) {
		lookups = append(lookups, lookup{&c.ReceiptToken, c.StakingVault, StakingVault, "stM"})
	}
	if c.HasYield() && c.YieldAsset == (common.Address{}) {
		lookups = append(lookups, lookup{&c.YieldAsset, c.YieldVault, YieldVault, "asset"})
	}
	if c.HasYield() && c.YieldShare == (common.Address{}) {
		lookups = append(lookups, lookup{&c.YieldShare, c.YieldVault, YieldVault, "lrt"})
	}

	for _, l := range lookups {
		data, err := l.a.Pack(l.method)
		if err != nil {
			return err
		}
		out, err := r.Call(ctx, l.vault, data)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", l.method, err)
		}
		addr, err := eth.UnpackAddress(l.a, l.method, out)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", l.method, err)
		}
		*l.target = addr
		log.Debug().Str("method", l.method).Str("address", addr.Hex()).Msg("staking: resolved token")
	}
	return nil
}
