package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/core"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func createSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <amount>",
		Short: "Award igM as yield to the vault through the reward strategy",
		Long: `Approve the reward strategy for an amount of igM and deposit it as
rewards, which raises the value of every vigM share. Needs an account with
the strategy's admin role.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmountArg(args[0])
			if err != nil {
				return err
			}
			return withAccount(cmd, func(ctx context.Context, app *core.App, owner common.Address) error {
				c := app.Contracts
				if !c.HasStrategy() || !c.HasYield() {
					return errors.New("reward strategy is not configured (contracts.strategy)")
				}

				if rate, err := c.StrategyRate(ctx, app.Chain); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Exchange rate before: %s\n", cmn.DisplayAmount(rate, true))
				}

				req := flow.Request{Owner: owner, Amount: amount}
				if err := runAction(ctx, cmd.OutOrStdout(), app, c.SimulateYield(), req, allowanceOf(app, c.YieldAsset, c.Strategy, owner)); err != nil {
					return err
				}

				if rate, err := c.StrategyRate(ctx, app.Chain); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Exchange rate after:  %s\n", cmn.DisplayAmount(rate, true))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Grant awarded!")
				return nil
			})
		},
	}
}
