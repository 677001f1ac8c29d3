package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3bind/cmd.Version=1.2.3" .
var Version = ui.Version

var (
	cfgDir   string
	cfg      *config.Config
	logger   hclog.Logger
	verbose  bool
	logLevel string
	testnet  bool
	mainnet  bool

	networkFlag  string
	rpcFlag      string
	abiFlag      string
	contractFlag string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3bind",
	Short: "Talk to any EVM contract through its ABI",
	Long: `w3bind: read, write, simulate and watch any EVM contract from its ABI.

  Point it at an ABI (a file, a URL, a bundled interface or a registered
  contract) and call members by name or by full signature. Overloaded
  members are resolved by signature, arguments are parsed from their ABI
  types, and results are decoded into typed values.

ABI sources:
  --abi ./out/Token.sol/Token.json   Raw ABI array or Hardhat/Foundry artifact
  --abi builtin:erc20                Bundled interface (see: w3bind contract builtins)
  --abi https://example.com/abi.json Remote ABI or artifact
  --contract usdc                    Contract saved with: w3bind contract add

Global flags --testnet and --mainnet override the configured network mode
for a single invocation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testnet {
			cfg.NetworkMode = "testnet"
		}
		if mainnet {
			cfg.NetworkMode = "mainnet"
		}
		if logLevel != "" && hclog.LevelFromString(logLevel) == hclog.NoLevel {
			return fmt.Errorf("unknown log level %q (use trace, debug, info, warn or error)", logLevel)
		}
		logger = newLogger(os.Stderr)
		logger.Debug("config loaded", "dir", cfg.Dir(), "network", activeNetwork(), "mode", cfg.NetworkMode)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", "", "config directory (default: $W3BIND_CONFIG_DIR or ~/.w3bind)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default from config)")
	pf.BoolVar(&testnet, "testnet", false, "use testnet endpoints")
	pf.BoolVar(&mainnet, "mainnet", false, "use mainnet endpoints")
	rootCmd.MarkFlagsMutuallyExclusive("testnet", "mainnet")

	pf.StringVarP(&networkFlag, "network", "n", "", "network name (default from config)")
	pf.StringVar(&rpcFlag, "rpc", "", "RPC endpoint, overrides --network resolution (http, ws or ipc)")
	pf.StringVar(&abiFlag, "abi", "", "ABI source: file, URL or builtin:<id>")
	pf.StringVarP(&contractFlag, "contract", "c", "", "registered contract name (see: w3bind contract list)")

	rootCmd.AddCommand(
		membersCmd,
		callCmd,
		sendCmd,
		simulateCmd,
		watchCmd,
		encodeCmd,
		decodeCmd,
		selectorCmd,
		contractCmd,
		walletCmd,
		configCmd,
		networkCmd,
	)
}
