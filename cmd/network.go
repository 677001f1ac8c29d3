package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List and select networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and configured networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "#", Width: 3},
			{Title: "Name", Width: 16},
			{Title: "Display", Width: 20},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 10},
			{Title: "Testnet", Width: 16},
			{Title: "RPC", Width: 40},
		})

		networks := chainRegistry().All()
		for i, c := range networks {
			rpc := ""
			if custom, ok := cfg.Network(c.Name); ok {
				rpc = ui.Val(custom.RPCURL)
			} else if rpcs := c.RPCs(cfg.NetworkMode); len(rpcs) > 0 {
				rpc = ui.Meta(rpcs[0])
			}
			t.AddRow(ui.Row{
				fmt.Sprintf("%d", i+1),
				ui.ChainName(c.Name),
				c.DisplayName,
				fmt.Sprintf("%d", c.ChainID),
				c.NativeCurrency,
				c.TestnetName,
				rpc,
			})
		}

		n := len(networks)
		for _, name := range customNetworks() {
			if _, err := chainRegistry().GetByName(name); err == nil {
				continue
			}
			custom, _ := cfg.Network(name)
			n++
			chainID := "—"
			if custom.ChainID != 0 {
				chainID = fmt.Sprintf("%d", custom.ChainID)
			}
			t.AddRow(ui.Row{fmt.Sprintf("%d", n), ui.ChainName(name), "custom", chainID, "", "", ui.Val(custom.RPCURL)})
		}

		fmt.Println(t.Render())
		fmt.Printf("%s\n", ui.Meta(fmt.Sprintf("%d networks, %s mode, default %s", n, cfg.NetworkMode, cfg.DefaultNetwork)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.

When combined with --testnet or --mainnet the network mode is also persisted.

Examples:
  w3bind network use base              # set default network, keep current mode
  w3bind network use base --testnet    # also persist testnet mode
  w3bind network use anvil             # a network added with config set-network`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, ok := cfg.Network(name); !ok {
			if _, err := chainRegistry().GetByName(name); err != nil {
				return fmt.Errorf("unknown network %q, run `w3bind network list` or add it with `w3bind config set-network`", name)
			}
		}

		if err := cfg.Set("default_network", name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s (%s)", ui.ChainName(cfg.DefaultNetwork), cfg.NetworkMode)))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
