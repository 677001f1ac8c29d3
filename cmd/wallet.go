package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/Mohsinsiddi/w3bind/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag string
	walletYes     bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage signing and watch-only wallets",
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key as a signing wallet",
	Long: `Import a hex private key. The key is stored in the OS keychain, or in
an encrypted file keyring under the config directory when no keychain is
available; only the address is written to wallets.json.

The key is read from --key, or from stdin when --key is omitted or "-".
For CI, set W3BIND_KEY to use a key without storing it.

Examples:
  w3bind wallet import ops --key 0xac09...ff80
  pass show deploy-key | w3bind wallet import deployer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		key := walletKeyFlag
		if key == "" || key == "-" {
			fmt.Fprint(os.Stderr, "Private key: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading key: %w", err)
			}
			key = strings.TrimSpace(line)
		}

		mgr := newWalletManager()
		w, err := mgr.AddWithKey(name, key)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q imported: %s", name, ui.Addr(w.Address.Hex()))))
		fmt.Println(ui.Hint(fmt.Sprintf("Set as default with: w3bind wallet default %s", name)))
		return nil
	},
}

var walletWatchCmd = &cobra.Command{
	Use:   "watch <name> <address|ens-name>",
	Short: "Add a watch-only wallet",
	Long: `Add an address without a key. Watch-only wallets can be used as the
sender for simulate, but cannot send transactions. An ENS name is resolved
once, on the active network, and the address is stored.

Examples:
  w3bind wallet watch treasury 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045
  w3bind wallet watch vitalik vitalik.eth --network ethereum`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		addr, err := resolveAddress(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		mgr := newWalletManager()
		if err := mgr.Add(name, &wallet.Wallet{
			Address: addr,
			Type:    wallet.TypeWatchOnly,
		}); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(addr.Hex()))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets, err := newWalletManager().List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: w3bind wallet import <name>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault || w.Name == cfg.DefaultWallet {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.Val(w.Name),
				ui.Addr(w.Address.Hex()),
				ui.Meta(w.Type),
				def,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletYes && !ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove wallet %q and its key?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				return fmt.Errorf("%w (see: w3bind wallet list)", err)
			}
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (omit or \"-\" to read from stdin)")
	walletRemoveCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip the confirmation prompt")

	walletCmd.AddCommand(walletImportCmd, walletWatchCmd, walletListCmd, walletRemoveCmd, walletDefaultCmd)
}
