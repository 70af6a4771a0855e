package cmn

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type ChainInfo struct {
	ID       int
	Name     string
	Currency string
	RPCURL   string
	WSURL    string
	Explorer string
}

// Chain returns the single chain the app is configured for.
func (c *SConfig) Chain() ChainInfo {
	return ChainInfo{
		ID:       c.ChainID,
		Name:     c.ChainName,
		Currency: c.Currency,
		RPCURL:   c.RPCURL,
		WSURL:    c.WSURL,
		Explorer: c.Explorer,
	}
}

func (ci ChainInfo) BigID() *big.Int {
	return big.NewInt(int64(ci.ID))
}

func (ci ChainInfo) TxURL(hash common.Hash) string {
	if ci.Explorer == "" {
		return ""
	}
	return strings.TrimRight(ci.Explorer, "/") + "/tx/" + hash.Hex()
}

// ParseAddress accepts an empty string as the zero address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

func (c *SConfig) Validate() error {
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is not set")
	}
	for name, s := range map[string]string{
		"staking_vault": c.Contracts.StakingVault,
		"receipt_token": c.Contracts.ReceiptToken,
		"yield_vault":   c.Contracts.YieldVault,
		"yield_asset":   c.Contracts.YieldAsset,
		"yield_share":   c.Contracts.YieldShare,
		"strategy":      c.Contracts.Strategy,
	} {
		if _, err := ParseAddress(s); err != nil {
			return fmt.Errorf("contracts.%s: %w", name, err)
		}
	}
	if c.SlippageBps < 0 || c.SlippageBps >= 10000 {
		return fmt.Errorf("slippage_bps must be in [0, 10000)")
	}
	return nil
}
