package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	decodeInput   bool
	decodeError   bool
	decodeReturns string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [member] <hex>",
	Short: "Decode return data, calldata or revert data",
	Long: `Decode hex data against an ABI. No RPC call is made.

  decode <member> <hex>            return data of member
  decode --input [member] <hex>    calldata; without member the function is
                                   found by the selector
  decode --error <hex>             revert data: Error(string), Panic(uint256)
                                   or a custom error declared in the ABI

Without --abi/--contract, pass a full signature and, for return data, the
output types with --returns.

Examples:
  w3bind decode balanceOf 0x00...0de0b6b3a7640000 --abi builtin:erc20
  w3bind decode --input 0xa9059cbb000000...0de0b6b3a7640000 --abi builtin:erc20
  w3bind decode "getReserves()" 0x... --returns "uint112,uint112,uint32"
  w3bind decode --error 0x08c379a0... -c allocations`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hexutil.Decode(args[len(args)-1])
		if err != nil {
			return fmt.Errorf("invalid hex data: %w", err)
		}
		member := ""
		if len(args) == 2 {
			member = args[0]
		}

		t, _, err := resolveSource(cmd.Context(), nil, false)
		switch {
		case errors.Is(err, errNoABI) && member != "":
			t, err = adhocTarget([]string{member}, decodeReturns)
			if err == nil {
				member = t.Member
			}
		case errors.Is(err, errNoABI) && decodeError:
			t, err = &target{}, nil
		}
		if err != nil {
			return err
		}

		if decodeError {
			fmt.Println(ui.KeyValueBlock("Decoded Revert", revertPairs(binding.DecodeRevert(t.ABI, data))))
			return nil
		}

		var entry abi.Entry
		if member == "" {
			if !decodeInput {
				return errors.New("member required to decode return data")
			}
			if entry, err = functionBySelector(t.ABI, data); err != nil {
				return err
			}
		} else if entry, err = resolveFunction(t.ABI, member); err != nil {
			return err
		}

		f := t.factory(logger, nil)
		title, params := "Decoded Return Data", entry.Outputs
		var res *binding.Result
		if decodeInput {
			title, params = "Decoded Calldata", entry.Inputs
			res, err = f.UnpackInputs(entry.Signature(), data)
		} else {
			res, err = f.UnpackOutputs(entry.Signature(), data)
		}
		if err != nil {
			return err
		}

		pairs := [][2]string{{"Function", ui.Val(entry.Signature())}}
		if decodeInput {
			pairs = append(pairs, [2]string{"Selector", entry.SelectorHex()})
		}
		pairs = append(pairs, valuePairs(params, res.Values)...)
		fmt.Println(ui.KeyValueBlock(title, pairs))
		return nil
	},
}

// functionBySelector finds the function whose selector prefixes calldata.
func functionBySelector(a *abi.ABI, calldata []byte) (abi.Entry, error) {
	if len(calldata) < 4 {
		return abi.Entry{}, fmt.Errorf("calldata too short for a selector (%d bytes)", len(calldata))
	}
	for _, e := range a.Members(abi.KindFunction) {
		sel := e.Selector()
		if bytes.Equal(sel[:], calldata[:4]) {
			return e, nil
		}
	}
	return abi.Entry{}, fmt.Errorf("no function with selector %s in ABI", hexutil.Encode(calldata[:4]))
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeInput, "input", false, "decode calldata (function inputs) instead of return data")
	decodeCmd.Flags().BoolVar(&decodeError, "error", false, "decode revert data")
	decodeCmd.Flags().StringVar(&decodeReturns, "returns", "", "output types for an ad-hoc signature, e.g. \"uint256,bool\"")
	decodeCmd.MarkFlagsMutuallyExclusive("input", "error")
}
