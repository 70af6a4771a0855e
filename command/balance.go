package command

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/cache"
	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/core"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func createBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show balances, rates and the pending withdrawal",
		Long: `Show balances, exchange rates and the pending withdrawal of an address.
Without an address the wallet is unlocked and its current address is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwner(cmd, args, func(ctx context.Context, app *core.App, owner common.Address) error {
				return printBalances(ctx, cmd.OutOrStdout(), app, owner)
			})
		},
	}
}

func printBalances(ctx context.Context, out io.Writer, app *core.App, owner common.Address) error {
	c, s := app.Contracts, app.Contracts.Symbols

	type line struct {
		label  string
		query  cache.Query
		symbol string
	}
	lines := []line{
		{"Balance", staking.NativeBalance(app.Chain, owner), s.Native},
	}
	if c.HasStaking() {
		lines = append(lines,
			line{"Staked", staking.TokenBalance(app.Chain, c.ReceiptToken, owner), s.Receipt},
			line{"Staking rate", staking.Rate(app.Chain, staking.StakingVault, c.StakingVault), s.Native + " per " + s.Receipt},
		)
	}
	if c.HasYield() {
		lines = append(lines,
			line{"Earn asset", staking.TokenBalance(app.Chain, c.YieldAsset, owner), s.YieldAsset},
			line{"Deposited", staking.TokenBalance(app.Chain, c.YieldShare, owner), s.YieldShare},
			line{"Yield rate", staking.Rate(app.Chain, staking.YieldVault, c.YieldVault), s.YieldAsset + " per " + s.YieldShare},
		)
	}

	qs := make([]cache.Query, 0, len(lines)+2)
	for _, l := range lines {
		qs = append(qs, l.query)
	}
	if c.HasYield() {
		qs = append(qs, c.PendingWithdrawal(app.Chain, owner), staking.BlockNumber(app.Chain))
	}
	if err := app.Cache.Refresh(ctx, qs...); err != nil {
		log.Warn().Err(err).Msg("balance: some reads failed")
		fmt.Fprintf(out, "warning: %s\n\n", cmn.ErrorText(err))
	}

	fmt.Fprintf(out, "%-14s %s\n", "Address", owner.Hex())
	for _, l := range lines {
		e := app.Cache.Get(l.query.Key)
		v, _ := e.Value.(*big.Int)
		fmt.Fprintf(out, "%-14s %s %s\n", l.label, cmn.DisplayAmount(v, e.Known), l.symbol)
	}

	if c.HasYield() {
		pending, _ := app.Cache.Get(staking.PendingWithdrawalKey(c.YieldVault, owner)).Value.(*flow.PendingWithdrawal)
		block, _ := app.Cache.Get(staking.BlockKey).Value.(uint64)
		printWithdrawal(out, flow.WithdrawalView(pending, block), pending, s.YieldShare)
	}
	return nil
}

func printWithdrawal(out io.Writer, v flow.WithdrawalState, pending *flow.PendingWithdrawal, symbol string) {
	switch {
	case v.Loading:
		fmt.Fprintf(out, "%-14s %s\n", "Withdrawal", cmn.Placeholder)
	case v.ShowRequest:
		fmt.Fprintf(out, "%-14s none\n", "Withdrawal")
	default:
		fmt.Fprintf(out, "%-14s %s %s\n", "Withdrawal", cmn.DisplayAmount(pending.Shares, true), symbol)
		if v.CanComplete {
			fmt.Fprintf(out, "%-14s ready, run 'memestake earn complete'\n", "")
		} else {
			fmt.Fprintf(out, "%-14s unlocks at block %d (%d blocks left)\n", "", v.UnlockBlock, v.BlocksLeft)
		}
	}
}
