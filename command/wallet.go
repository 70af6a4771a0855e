package command

import (
	"errors"
	"fmt"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/wallet"
	"github.com/spf13/cobra"
)

func createWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage wallets",
	}

	cmd.AddCommand(createWalletCreateCmd())
	cmd.AddCommand(createWalletRestoreCmd())
	cmd.AddCommand(createWalletListCmd())
	cmd.AddCommand(createWalletAddressesCmd())

	return cmd
}

func createWalletCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a wallet with a new mnemonic",
		Long: `Create a wallet with a new 24 word mnemonic.

The mnemonic is printed once. Write it down: it is the only way to restore
the wallet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase, err := wallet.NewPhrase()
			if err != nil {
				return err
			}
			w, err := createWallet(args[0], phrase)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created wallet %s\n", w.Name)
			fmt.Fprintf(out, "Address: %s\n\n", w.CurrentAddress().Address.Hex())
			fmt.Fprintf(out, "Mnemonic:\n%s\n", phrase)
			return nil
		},
	}
}

func createWalletRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore a wallet from its mnemonic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase, err := readPassword("Mnemonic: ")
			if err != nil {
				return err
			}
			w, err := createWallet(args[0], phrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored wallet %s\nAddress: %s\n", w.Name, w.CurrentAddress().Address.Hex())
			return nil
		},
	}
}

func createWallet(name, phrase string) (*wallet.Wallet, error) {
	if wallet.Exists(cmn.WalletsFolder(), name) {
		return nil, wallet.ErrWalletExists
	}

	pass, err := readPassword("New password: ")
	if err != nil {
		return nil, err
	}
	if pass == "" {
		return nil, errors.New("password must not be empty")
	}
	again, err := readPassword("Repeat password: ")
	if err != nil {
		return nil, err
	}
	if pass != again {
		return nil, errors.New("passwords do not match")
	}

	return wallet.Create(cmn.WalletsFolder(), name, pass, phrase)
}

func createWalletListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := wallet.List(cmn.WalletsFolder())
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No wallets. Create one with 'memestake wallet create <name>'.")
				return nil
			}
			for _, n := range names {
				mark := " "
				if n == cmn.Config.Wallet {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, n)
			}
			return nil
		},
	}
}

func createWalletAddressesCmd() *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "addresses [name]",
		Short: "Show the addresses of a wallet",
		Long: `Show the addresses of a wallet. The current address, marked with *,
is the one transactions are sent from.

EXAMPLES:
  memestake wallet addresses main
  memestake wallet addresses main --add
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cmn.Config.Wallet
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				names := wallet.List(cmn.WalletsFolder())
				if len(names) != 1 {
					return ErrNoWallet
				}
				name = names[0]
			}

			pass, err := readPassword(fmt.Sprintf("Password for %s: ", name))
			if err != nil {
				return err
			}
			w, err := wallet.Open(cmn.WalletsFolder(), name, pass)
			if err != nil {
				return err
			}

			if add {
				if len(w.Signers) == 0 {
					return errors.New("wallet has no signers")
				}
				if _, err := w.AddAddress(w.Signers[0].Name); err != nil {
					return err
				}
				if err := w.Save(); err != nil {
					return err
				}
			}

			current := w.CurrentAddress()
			for _, a := range w.Addresses {
				mark := " "
				if a == current {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s  %s\n", mark, a.Name, a.Address.Hex(), a.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "derive the next address first")

	return cmd
}
