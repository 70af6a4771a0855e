package command

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/core"
	"github.com/AlexNa-Holdings/memestake/flow"
	"github.com/AlexNa-Holdings/memestake/staking"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func parseAmountArg(s string) (*big.Int, error) {
	v, err := cmn.ParseAmount(s, cmn.Decimals)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

// withAccount starts the services, unlocks the wallet and runs fn as its
// primary account.
func withAccount(cmd *cobra.Command, fn func(ctx context.Context, app *core.App, owner common.Address) error) error {
	app, err := startApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if err := unlock(app); err != nil {
		return err
	}
	owner, ok := app.Primary()
	if !ok {
		return ErrNoWallet
	}
	return fn(cmd.Context(), app, owner)
}

// withOwner runs a read-only fn for the address in args, or for the
// unlocked wallet when there is none.
func withOwner(cmd *cobra.Command, args []string, fn func(ctx context.Context, app *core.App, owner common.Address) error) error {
	if len(args) == 0 {
		return withAccount(cmd, fn)
	}

	owner, err := cmn.ParseAddress(args[0])
	if err != nil {
		return err
	}
	if owner == (common.Address{}) {
		return fmt.Errorf("address must not be empty")
	}
	app, err := startApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(cmd.Context(), app, owner)
}

// allowanceOf reads what spender may pull of token for owner. It is called
// again after an approval lands.
func allowanceOf(app *core.App, token, spender, owner common.Address) func(ctx context.Context) (*big.Int, error) {
	return func(ctx context.Context) (*big.Int, error) {
		return staking.GetAllowance(ctx, app.Chain, token, spender, owner)
	}
}

// runAction drives a to completion and reports every step on out.
func runAction(ctx context.Context, out io.Writer, app *core.App, a *flow.Action, req flow.Request, allowance func(ctx context.Context) (*big.Int, error)) error {
	m := flow.NewMachine(a)
	chain := app.Config.Chain()

	r, err := flow.Run(ctx, app.Chain, m, req, allowance, func(m *flow.Machine) {
		switch m.State() {
		case flow.Approving, flow.Submitting:
			if m.Hash() == (common.Hash{}) {
				fmt.Fprintf(out, "%s\n", m.Label(m.Step()))
			} else {
				fmt.Fprintf(out, "  sent %s\n", m.Hash().Hex())
			}
		case flow.Confirming:
			fmt.Fprintf(out, "  sent %s\n", m.Hash().Hex())
		case flow.Approved:
			fmt.Fprintf(out, "  approved in block %d\n", m.Receipt().BlockNumber)
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %s", a.Title, cmn.ErrorText(err))
	}

	fmt.Fprintf(out, "%s done in block %d\n", a.Title, r.BlockNumber)
	if url := chain.TxURL(r.Hash); url != "" {
		fmt.Fprintf(out, "  %s\n", url)
	}
	return nil
}
