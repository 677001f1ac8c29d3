package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Show and change ~/.w3bind/config.json (or $W3BIND_CONFIG_DIR).

Settable keys:
  default_network      network used when --network is not given
  default_wallet       wallet used by send and simulate
  network_mode         mainnet or testnet
  log_level            trace, debug, info, warn or error
  poll_interval        seconds between log polls on HTTP endpoints
  gas_limit_fallback   gas limit used when estimation fails
  explorer_api_key     key for contract add --explorer
  rpc_algorithm        fastest or failover, for networks with several endpoints`,
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Change one setting",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		v, _ := cfg.Get(args[0])
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %q", args[0], v)))
		return nil
	},
}

var configSetNetworkCmd = &cobra.Command{
	Use:   "set-network <name> <rpc-url> [chain-id]",
	Short: "Add or override the RPC endpoint of a network",
	Long: `Point a network name at an RPC endpoint. The name may be a built-in
network (overriding its public endpoints) or a new one such as a local node.

Examples:
  w3bind config set-network anvil http://127.0.0.1:8545 31337
  w3bind config set-network ethereum wss://eth-mainnet.example/ws/KEY`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var chainID uint64
		if len(args) == 3 {
			var err error
			if chainID, err = strconv.ParseUint(args[2], 10, 64); err != nil {
				return fmt.Errorf("invalid chain id %q", args[2])
			}
		}
		if err := cfg.SetNetwork(args[0], args[1], chainID); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC for %s set to %s", ui.ChainName(args[0]), args[1])))
		return nil
	},
}

var configRemoveNetworkCmd = &cobra.Command{
	Use:   "remove-network <name>",
	Short: "Remove a custom RPC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveNetwork(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Custom RPC for %s removed", args[0])))
		return nil
	},
}

// customNetworks lists configured endpoints sorted by name.
func customNetworks() []string {
	names := make([]string, 0, len(cfg.Networks))
	for name := range cfg.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configSetNetworkCmd, configRemoveNetworkCmd)
}
