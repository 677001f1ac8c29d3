package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	callFrom  string
	callBlock uint64
)

var callCmd = &cobra.Command{
	Use:   "call <address> <member> [args...]",
	Short: "Call a view or pure contract function",
	Long: `Call a read-only (view/pure) function and decode its outputs.

The member is a name, or a full signature when the name is overloaded.
Arguments are parsed from their ABI types: integers in decimal or 0x hex,
true/false, 0x-prefixed bytes, addresses, and JSON for arrays and tuples.

Examples:
  w3bind call 0xA0b8...eB48 balanceOf 0xd8dA...6045 --abi builtin:erc20
  w3bind call 0x9484...0b39 "getMaxMagnitudes(address,address[])" 0xOp '["0xS1","0xS2"]' \
      --abi builtin:allocation-manager
  w3bind call -c allocations "paused(uint8)" 2
  w3bind call -c usdc totalSupply --block 19000000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()

		t, err := resolveTarget(ctx, args, true)
		if err != nil {
			return err
		}
		backend, err := dial(ctx, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		r, err := t.factory(logger, backend).BindRead(t.Member)
		if err != nil {
			return err
		}
		entry := r.Entry()
		values, err := codec.ParseArgs(entry.Inputs, t.Args)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Signature(), err)
		}

		opts := &binding.CallOpts{}
		if callFrom != "" {
			if !common.IsHexAddress(callFrom) {
				return fmt.Errorf("invalid --from address %q", callFrom)
			}
			opts.From = common.HexToAddress(callFrom)
		}
		if cmd.Flags().Changed("block") {
			opts.BlockNumber = new(big.Int).SetUint64(callBlock)
		}

		spin := ui.NewSpinner(os.Stderr, fmt.Sprintf("Calling %s on %s...", entry.Name, activeNetwork()))
		spin.Start()
		res, err := r.Call(ctx, opts, values...)
		spin.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Contract", ui.Addr(t.Label)},
			{"Function", ui.Val(entry.Signature())},
			{"Network", fmt.Sprintf("%s (%s)", activeNetwork(), cfg.NetworkMode)},
		}
		for _, p := range valuePairs(entry.Outputs, res.Values) {
			pairs = append(pairs, [2]string{p[0], ui.Val(p[1])})
		}
		fmt.Println(ui.KeyValueBlock("Contract Call", pairs))
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callFrom, "from", "", "caller address for msg.sender-dependent views")
	callCmd.Flags().Uint64Var(&callBlock, "block", 0, "block number to read at (default: latest)")
}
