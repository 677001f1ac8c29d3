package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/Mohsinsiddi/w3bind/internal/chain"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	simFrom   string
	simWallet string
	simValue  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <address> <member> [args...]",
	Short: "Dry-run a function call without broadcasting",
	Long: `Execute any function, including state-changing ones, against the
current chain state without sending a transaction. Shows the decoded return
values and the gas the call would use, or the decoded revert reason.

The sender is --from, else the selected wallet's address (watch-only wallets
work; nothing is signed).

Examples:
  w3bind simulate -c usdc transfer 0xd8dA...6045 1000000 --from 0xHolder
  w3bind simulate 0xVault deposit --abi ./Vault.json --value 1ether --wallet ops
  w3bind simulate -c allocations "modifyAllocations(address,((address,uint32),address[],uint64[])[])" \
      0xOp '[[["0xAvs",1],["0xStrat"],[100]]]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()

		t, err := resolveTarget(ctx, args, true)
		if err != nil {
			return err
		}
		from, err := simulationSender()
		if err != nil {
			return err
		}

		backend, err := dial(ctx, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		s, err := t.factory(logger, backend).BindSimulate(t.Member)
		if err != nil {
			return err
		}
		entry := s.Entry()
		values, err := codec.ParseArgs(entry.Inputs, t.Args)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Signature(), err)
		}

		opts := &binding.TransactOpts{From: from}
		if simValue != "" {
			if opts.Value, err = chain.ParseValue(simValue); err != nil {
				return err
			}
		}

		spin := ui.NewSpinner(os.Stderr, fmt.Sprintf("Simulating %s...", entry.Name))
		spin.Start()
		sim, err := s.Simulate(ctx, opts, values...)
		spin.Stop()

		var revert *binding.RevertError
		if errors.As(err, &revert) {
			fmt.Println(ui.KeyValueBlock("Simulation Reverted", revertPairs(revert)))
			return err
		}
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Contract", ui.Addr(t.Label)},
			{"Function", ui.Val(entry.Signature())},
			{"From", ui.Addr(from.Hex())},
			{"Gas", ui.Val(fmt.Sprintf("%d", sim.Gas))},
			{"Calldata", hexutil.Encode(sim.Call.Calldata())},
		}
		for _, p := range valuePairs(entry.Outputs, sim.Result.Values) {
			pairs = append(pairs, [2]string{p[0], ui.Val(p[1])})
		}
		fmt.Println(ui.KeyValueBlock("Simulation", pairs))
		fmt.Println(ui.Success("Call would succeed"))
		return nil
	},
}

func simulationSender() (common.Address, error) {
	if simFrom != "" {
		if !common.IsHexAddress(simFrom) {
			return common.Address{}, fmt.Errorf("invalid --from address %q", simFrom)
		}
		return common.HexToAddress(simFrom), nil
	}
	if simWallet == "" && cfg.DefaultWallet == "" {
		return common.Address{}, nil
	}
	w, err := pickWallet(newWalletManager(), simWallet)
	if err != nil {
		return common.Address{}, err
	}
	return w.Address, nil
}

func revertPairs(re *binding.RevertError) [][2]string {
	var pairs [][2]string
	switch {
	case re.Custom != nil:
		pairs = append(pairs, [2]string{"Error", ui.Val(re.Custom.Signature())})
		pairs = append(pairs, valuePairs(re.Custom.Inputs, re.Args)...)
	case re.PanicCode != nil:
		pairs = append(pairs, [2]string{"Panic", ui.Val(fmt.Sprintf("0x%x", re.PanicCode))})
		if re.Reason != "" {
			pairs = append(pairs, [2]string{"Reason", re.Reason})
		}
	case re.Reason != "":
		pairs = append(pairs, [2]string{"Reason", ui.Val(re.Reason)})
	default:
		pairs = append(pairs, [2]string{"Reason", ui.Meta("none given")})
	}
	if len(re.Data) > 0 {
		pairs = append(pairs, [2]string{"Data", hexutil.Encode(re.Data)})
	}
	return pairs
}

func init() {
	simulateCmd.Flags().StringVar(&simFrom, "from", "", "sender address")
	simulateCmd.Flags().StringVarP(&simWallet, "wallet", "w", "", "use this wallet's address as sender")
	simulateCmd.Flags().StringVar(&simValue, "value", "", "native value to attach: wei, or with unit suffix")
	simulateCmd.MarkFlagsMutuallyExclusive("from", "wallet")
}
