package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/core"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var errNoStaking = errors.New("staking vault is not configured (contracts.staking_vault)")

func createStakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stake <amount>",
		Short: "Stake M for igM",
		Long: `Stake an amount of M in the staking vault and receive igM.

EXAMPLES:
  memestake stake 10
  memestake stake 0.5 --yes
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmountArg(args[0])
			if err != nil {
				return err
			}
			return withAccount(cmd, func(ctx context.Context, app *core.App, owner common.Address) error {
				c := app.Contracts
				if !c.HasStaking() {
					return errNoStaking
				}
				quote, err := staking.Convert(ctx, app.Chain, staking.StakingVault, c.StakingVault, "convertToShares", amount)
				if err != nil {
					return fmt.Errorf("quote: %s", cmn.ErrorText(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "You will receive ~%s %s\n", cmn.DisplayAmount(quote, true), c.Symbols.Receipt)

				req := flow.Request{Owner: owner, Amount: amount, Quote: quote}
				return runAction(ctx, cmd.OutOrStdout(), app, c.Stake(), req, nil)
			})
		},
	}
}

func createUnstakeCmd() *cobra.Command {
	var assets bool

	cmd := &cobra.Command{
		Use:   "unstake <amount>",
		Short: "Unstake igM for M",
		Long: `Redeem igM shares for M. With --assets the amount is the M to receive
and the vault burns whatever shares it takes.

Unstaked M arrives in about 2 blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmountArg(args[0])
			if err != nil {
				return err
			}
			return withAccount(cmd, func(ctx context.Context, app *core.App, owner common.Address) error {
				c, s := app.Contracts, app.Contracts.Symbols
				if !c.HasStaking() {
					return errNoStaking
				}

				action, method, label, symbol := c.Unstake(), "convertToAssets", "You will receive", s.Native
				if assets {
					action, method, label, symbol = c.Withdraw(), "convertToShares", "Shares burned", s.Receipt
				}

				quote, err := staking.Convert(ctx, app.Chain, staking.StakingVault, c.StakingVault, method, amount)
				if err != nil {
					return fmt.Errorf("quote: %s", cmn.ErrorText(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s ~%s %s\n", label, cmn.DisplayAmount(quote, true), symbol)

				req := flow.Request{Owner: owner, Amount: amount, Quote: quote}
				return runAction(ctx, cmd.OutOrStdout(), app, action, req, nil)
			})
		},
	}

	cmd.Flags().BoolVar(&assets, "assets", false, "amount is in M instead of igM")

	return cmd
}
