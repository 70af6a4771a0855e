package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigShowCmd())
	cmd.AddCommand(createConfigSetCmd())

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective config",
		Long: `Display the effective configuration: the config file with MEMESTAKE_*
environment variables and command line flags applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(cmn.Config)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", cmn.ConfPath)
			fmt.Fprintf(out, "# log: %s\n", cmn.LogPath)
			_, err = out.Write(data)
			return err
		},
	}
}

type setter = func(c *cmn.SConfig, v string) error

func setString(field func(c *cmn.SConfig) *string) setter {
	return func(c *cmn.SConfig, v string) error { *field(c) = v; return nil }
}

func setInt(field func(c *cmn.SConfig) *int) setter {
	return func(c *cmn.SConfig, v string) (err error) {
		*field(c), err = strconv.Atoi(v)
		return err
	}
}

func setBool(field func(c *cmn.SConfig) *bool) setter {
	return func(c *cmn.SConfig, v string) (err error) {
		*field(c), err = strconv.ParseBool(v)
		return err
	}
}

func setDuration(field func(c *cmn.SConfig) *time.Duration) setter {
	return func(c *cmn.SConfig, v string) (err error) {
		*field(c), err = time.ParseDuration(v)
		return err
	}
}

// settable are the keys config set accepts, one per config file key.
var settable = map[string]setter{
	"verbosity": setString(func(c *cmn.SConfig) *string { return &c.Verbosity }),
	"theme": func(c *cmn.SConfig, v string) error {
		if v != "dark" && v != "light" {
			return fmt.Errorf("theme must be dark or light")
		}
		c.Theme = v
		return nil
	},
	"chain_id":       setInt(func(c *cmn.SConfig) *int { return &c.ChainID }),
	"chain_name":     setString(func(c *cmn.SConfig) *string { return &c.ChainName }),
	"currency":       setString(func(c *cmn.SConfig) *string { return &c.Currency }),
	"rpc_url":        setString(func(c *cmn.SConfig) *string { return &c.RPCURL }),
	"ws_url":         setString(func(c *cmn.SConfig) *string { return &c.WSURL }),
	"explorer":       setString(func(c *cmn.SConfig) *string { return &c.Explorer }),
	"rpc_rate_limit": setInt(func(c *cmn.SConfig) *int { return &c.RPCRateLimit }),
	"poll_interval":  setDuration(func(c *cmn.SConfig) *time.Duration { return &c.PollInterval }),
	"receipt_poll":   setDuration(func(c *cmn.SConfig) *time.Duration { return &c.ReceiptPoll }),
	"tx_timeout":     setDuration(func(c *cmn.SConfig) *time.Duration { return &c.TxTimeout }),
	"bus_timeout":    setDuration(func(c *cmn.SConfig) *time.Duration { return &c.BusTimeout }),
	"cache_size":     setInt(func(c *cmn.SConfig) *int { return &c.CacheSize }),
	"slippage_bps":   setInt(func(c *cmn.SConfig) *int { return &c.SlippageBps }),
	"use_permit":     setBool(func(c *cmn.SConfig) *bool { return &c.UsePermit }),
	"confirm_tx":     setBool(func(c *cmn.SConfig) *bool { return &c.ConfirmTx }),
	"sound_file":     setString(func(c *cmn.SConfig) *string { return &c.SoundFile }),
	"metrics_addr":   setString(func(c *cmn.SConfig) *string { return &c.MetricsAddr }),
	"email_auth_url": setString(func(c *cmn.SConfig) *string { return &c.EmailAuthURL }),
	"wallet":         setString(func(c *cmn.SConfig) *string { return &c.Wallet }),

	"contracts.staking_vault": setString(func(c *cmn.SConfig) *string { return &c.Contracts.StakingVault }),
	"contracts.receipt_token": setString(func(c *cmn.SConfig) *string { return &c.Contracts.ReceiptToken }),
	"contracts.yield_vault":   setString(func(c *cmn.SConfig) *string { return &c.Contracts.YieldVault }),
	"contracts.yield_asset":   setString(func(c *cmn.SConfig) *string { return &c.Contracts.YieldAsset }),
	"contracts.yield_share":   setString(func(c *cmn.SConfig) *string { return &c.Contracts.YieldShare }),
	"contracts.strategy":      setString(func(c *cmn.SConfig) *string { return &c.Contracts.Strategy }),

	"symbols.native":      setString(func(c *cmn.SConfig) *string { return &c.Symbols.Native }),
	"symbols.receipt":     setString(func(c *cmn.SConfig) *string { return &c.Symbols.Receipt }),
	"symbols.yield_asset": setString(func(c *cmn.SConfig) *string { return &c.Symbols.YieldAsset }),
	"symbols.yield_share": setString(func(c *cmn.SConfig) *string { return &c.Symbols.YieldShare }),
}

func createConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a value in the config file",
		Long: `Change a value in the config file. Environment variables and flags are
not written back.

EXAMPLES:
  memestake config set slippage_bps 50
  memestake config set contracts.staking_vault 0x...
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			set, ok := settable[key]
			if !ok {
				return fmt.Errorf("unknown config key %q", args[0])
			}

			cmn.Config = cmn.DefaultConfig()
			if err := cmn.RestoreConfig(cmn.ConfPath); err != nil {
				return err
			}
			if err := set(cmn.Config, args[1]); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if err := cmn.Config.Validate(); err != nil {
				return err
			}

			cmn.ConfigChanged = true
			if err := cmn.SaveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, args[1])
			return nil
		},
	}
}
