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

var (
	errNoYield           = errors.New("yield vault is not configured (contracts.yield_vault)")
	errPending           = errors.New("a withdrawal is already pending, complete it first")
	errNothingToComplete = errors.New("no pending withdrawal")
)

func createEarnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "earn",
		Short: "Deposit igM into the yield vault and withdraw it",
	}

	cmd.AddCommand(createEarnDepositCmd())
	cmd.AddCommand(createEarnRequestCmd())
	cmd.AddCommand(createEarnCompleteCmd())
	cmd.AddCommand(createEarnStatusCmd())

	return cmd
}

func createEarnDepositCmd() *cobra.Command {
	var permit bool

	cmd := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit igM for vigM",
		Long: `Deposit igM into the yield vault. When the vault may not pull the amount
yet, an approve for exactly that amount is sent first. With --permit a
signed permit replaces the approve.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmountArg(args[0])
			if err != nil {
				return err
			}
			return withAccount(cmd, func(ctx context.Context, app *core.App, owner common.Address) error {
				c := app.Contracts
				if !c.HasYield() {
					return errNoYield
				}
				if permit {
					c.UsePermit = true
				}

				quote, err := staking.Convert(ctx, app.Chain, staking.YieldVault, c.YieldVault, "convertToShares", amount)
				if err != nil {
					return fmt.Errorf("quote: %s", cmn.ErrorText(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "You will receive ~%s %s\n", cmn.DisplayAmount(quote, true), c.Symbols.YieldShare)

				req := flow.Request{Owner: owner, Amount: amount, Quote: quote}
				return runAction(ctx, cmd.OutOrStdout(), app, c.EarnDeposit(), req, allowanceOf(app, c.YieldAsset, c.YieldVault, owner))
			})
		},
	}

	cmd.Flags().BoolVar(&permit, "permit", false, "sign a permit instead of sending approve")

	return cmd
}

func createEarnRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <shares>",
		Short: "Request a withdrawal of vigM",
		Long: `Request a withdrawal of vigM shares. The igM can be claimed with
'memestake earn complete' once the unlock block is reached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmountArg(args[0])
			if err != nil {
				return err
			}
			return withAccount(cmd, func(ctx context.Context, app *core.App, owner common.Address) error {
				c := app.Contracts
				if !c.HasYield() {
					return errNoYield
				}

				pending, err := staking.GetPendingWithdrawal(ctx, app.Chain, c.YieldVault, owner)
				if err != nil {
					return err
				}
				if pending.Exists() {
					return errPending
				}

				quote, err := staking.Convert(ctx, app.Chain, staking.YieldVault, c.YieldVault, "convertToAssets", amount)
				if err != nil {
					return fmt.Errorf("quote: %s", cmn.ErrorText(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "You will receive ~%s %s\n", cmn.DisplayAmount(quote, true), c.Symbols.YieldAsset)

				req := flow.Request{Owner: owner, Amount: amount, Quote: quote}
				return runAction(ctx, cmd.OutOrStdout(), app, c.EarnRequestWithdrawal(), req, nil)
			})
		},
	}
}

func createEarnCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Claim an unlocked withdrawal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccount(cmd, func(ctx context.Context, app *core.App, owner common.Address) error {
				c := app.Contracts
				if !c.HasYield() {
					return errNoYield
				}

				pending, block, err := readWithdrawal(ctx, app, owner)
				if err != nil {
					return err
				}
				v := flow.WithdrawalView(pending, block)
				if !v.ShowComplete {
					return errNothingToComplete
				}
				if !v.CanComplete {
					return fmt.Errorf("withdrawal unlocks at block %d, %d blocks left", v.UnlockBlock, v.BlocksLeft)
				}

				req := flow.Request{Owner: owner, Amount: pending.Shares}
				return runAction(ctx, cmd.OutOrStdout(), app, c.EarnCompleteWithdrawal(), req, nil)
			})
		},
	}
}

func createEarnStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [address]",
		Short: "Show the pending withdrawal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwner(cmd, args, func(ctx context.Context, app *core.App, owner common.Address) error {
				if !app.Contracts.HasYield() {
					return errNoYield
				}
				pending, block, err := readWithdrawal(ctx, app, owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %d\n", "Block", block)
				printWithdrawal(cmd.OutOrStdout(), flow.WithdrawalView(pending, block), pending, app.Contracts.Symbols.YieldShare)
				return nil
			})
		},
	}
}

func readWithdrawal(ctx context.Context, app *core.App, owner common.Address) (*flow.PendingWithdrawal, uint64, error) {
	pending, err := staking.GetPendingWithdrawal(ctx, app.Chain, app.Contracts.YieldVault, owner)
	if err != nil {
		return nil, 0, err
	}
	block, err := app.Chain.BlockNumber(ctx)
	if err != nil {
		return nil, 0, err
	}
	return pending, block, nil
}
