package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/contract"
	contractsync "github.com/Mohsinsiddi/w3bind/internal/sync"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	contractBuiltin   string
	contractExplorer  string
	contractSyncEvery time.Duration
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Manage the local contract registry",
}

// ── contract add ──────────────────────────────────────────────────────────────

var contractAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Register a contract",
	Long: `Register a contract in the local registry so commands can use it
with --contract <name>. Entries are keyed by name and network.

ABI source (pick one):
  --abi <file|url>        Raw ABI JSON array or Hardhat/Foundry artifact
  --builtin <id>          Bundled ABI (see: w3bind contract builtins)
  --explorer <api-url>    Verified ABI from an Etherscan-compatible API
                          (key from config explorer_api_key)

Examples:
  w3bind contract add usdc 0xA0b8...eB48 --builtin erc20 --network ethereum
  w3bind contract add allocations 0x9484...0b39 --builtin allocation-manager
  w3bind contract add vault 0x1234... --abi ./out/Vault.sol/Vault.json
  w3bind contract add weth 0xC02a...6Cc2 --explorer https://api.etherscan.io`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, addr := args[0], args[1]
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid address %q", addr)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()
		parsed, source, err := contractABI(ctx, addr)
		if err != nil {
			return err
		}

		reg, err := openRegistry()
		if err != nil {
			return err
		}
		entry := &contract.Entry{
			Name:    name,
			Network: activeNetwork(),
			Address: common.HexToAddress(addr),
			ABI:     parsed,
			Source:  source,
		}
		if err := reg.Add(entry); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Contract %q registered on %s: %s", name, ui.ChainName(entry.Network), ui.Addr(entry.Address.Hex()))))
		fmt.Println(ui.Meta(fmt.Sprintf("%d functions, %d events, %d errors from %s",
			len(parsed.Members(abi.KindFunction)), len(parsed.Members(abi.KindEvent)), len(parsed.Members(abi.KindError)), source)))
		fmt.Println(ui.Hint(fmt.Sprintf("Try: w3bind members -c %s", name)))
		return nil
	},
}

// contractABI loads the ABI named by exactly one of --abi, --builtin or
// --explorer and returns it with a description of its source.
func contractABI(ctx context.Context, addr string) (*abi.ABI, string, error) {
	set := 0
	for _, s := range []string{abiFlag, contractBuiltin, contractExplorer} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, "", errors.New("pass exactly one of --abi, --builtin or --explorer")
	}

	f, err := newFetcher()
	if err != nil {
		return nil, "", err
	}
	switch {
	case contractBuiltin != "":
		source := contract.BuiltinPrefix + contractBuiltin
		a, err := f.Load(ctx, source)
		return a, source, err
	case contractExplorer != "":
		a, err := f.FetchFromExplorer(ctx, contractExplorer, addr)
		return a, contractExplorer, err
	}
	a, err := f.Load(ctx, abiFlag)
	return a, abiFlag, err
}

// ── contract list ─────────────────────────────────────────────────────────────

var contractListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		entries := reg.All()
		if len(entries) == 0 {
			fmt.Println(ui.Meta("No contracts registered."))
			fmt.Println(ui.Hint("Add one with: w3bind contract add <name> <address> --builtin erc20"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name"},
			{Title: "Network"},
			{Title: "Address"},
			{Title: "Members", Width: 8},
			{Title: "Source", Width: 32},
		})
		for _, e := range entries {
			t.AddRow(ui.Row{
				e.Name,
				ui.ChainName(e.Network),
				ui.Addr(e.Address.Hex()),
				fmt.Sprintf("%d", e.ABI.Len()),
				e.Source,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d contracts in %s", len(entries), cfg.ContractsPath())))
		return nil
	},
}

// ── contract show ─────────────────────────────────────────────────────────────

var contractShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a registered contract and its members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := lookupContract(args[0])
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"Name", e.Name},
			{"Network", ui.ChainName(e.Network)},
			{"Address", ui.Addr(e.Address.Hex())},
			{"Source", e.Source},
		}
		if n, err := chainRegistry().GetByName(e.Network); err == nil {
			if u := n.AddressURL(cfg.NetworkMode, e.Address.Hex()); u != "" {
				pairs = append(pairs, [2]string{"Explorer", ui.Meta(u)})
			}
		}
		fmt.Println(ui.KeyValueBlock("Contract", pairs))
		for _, kind := range []abi.Kind{abi.KindFunction, abi.KindEvent, abi.KindError} {
			if entries := e.ABI.Members(kind); len(entries) > 0 {
				fmt.Println(membersTable(kind, entries))
			}
		}
		return nil
	},
}

// ── contract remove ───────────────────────────────────────────────────────────

var contractRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a contract from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		network := activeNetwork()
		if err := reg.Remove(args[0], network); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Contract %q removed from %s", args[0], network)))
		return nil
	},
}

// ── contract sync ─────────────────────────────────────────────────────────────

var contractSyncCmd = &cobra.Command{
	Use:   "sync <manifest>",
	Short: "Import contracts from a deployments manifest",
	Long: `Register every contract listed in a deployments manifest, a JSON file
or URL of the form:

  {"contracts": {"<name>": {"<network>": {"address": "0x...", "abi": "<source>"}}}}

Each abi source is builtin:<id>, an http(s) URL or a file path; relative
paths are resolved against the manifest's directory. Entries that cannot be
imported are reported and skipped.

Examples:
  w3bind contract sync ./deployments.json
  w3bind contract sync https://example.com/deployments.json --every 5m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		f, err := newFetcher()
		if err != nil {
			return err
		}
		s := contractsync.New(reg, f, logger.Named("sync"))

		if contractSyncEvery > 0 {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			fmt.Println(ui.Meta(fmt.Sprintf("Syncing %s every %s, Ctrl+C to stop", args[0], contractSyncEvery)))
			return s.Watch(ctx, args[0], contractSyncEvery)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.TxConfirmTimeout)
		defer cancel()
		report, err := s.Run(ctx, args[0])
		if err != nil {
			return err
		}
		for _, k := range report.Added {
			fmt.Println(ui.Success(k))
		}
		if report.Failed != nil {
			fmt.Println(ui.Warn(report.Failed.Error()))
		}
		fmt.Println(ui.Meta(fmt.Sprintf("%d contracts imported into %s", len(report.Added), cfg.ContractsPath())))
		return nil
	},
}

// ── contract builtins ─────────────────────────────────────────────────────────

var contractBuiltinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the bundled contract ABIs",
	RunE: func(cmd *cobra.Command, args []string) error {
		builtins, err := contract.LoadBuiltins()
		if err != nil {
			return err
		}
		t := ui.NewTable([]ui.Column{
			{Title: "ID"},
			{Title: "Name"},
			{Title: "Members", Width: 8},
			{Title: "Description"},
		})
		for _, b := range builtins.All() {
			t.AddRow(ui.Row{b.ID, b.Name, fmt.Sprintf("%d", b.ABI.Len()), b.Description})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Hint("Use: --abi builtin:<id>, or w3bind contract add <name> <addr> --builtin <id>"))
		return nil
	},
}

func init() {
	contractAddCmd.Flags().StringVar(&contractBuiltin, "builtin", "", "bundled ABI id")
	contractAddCmd.Flags().StringVar(&contractExplorer, "explorer", "", "Etherscan-compatible API base URL to fetch a verified ABI from")
	contractSyncCmd.Flags().DurationVar(&contractSyncEvery, "every", 0, "keep running and re-sync at this interval")

	contractCmd.AddCommand(
		contractAddCmd,
		contractListCmd,
		contractShowCmd,
		contractRemoveCmd,
		contractSyncCmd,
		contractBuiltinsCmd,
	)
}
