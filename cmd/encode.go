package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var encodeWords bool

var encodeCmd = &cobra.Command{
	Use:   "encode <member> [args...]",
	Short: "Encode calldata for a function call",
	Long: `Build ABI-encoded calldata for a member and its arguments. No RPC
call is made.

With --abi or --contract the member is resolved against that ABI (name or
full signature). Without an ABI the member must be a full signature and is
encoded as given.

Useful for building calldata for multisigs, timelocks, or a manual eth_call.

Examples:
  w3bind encode "transfer(address,uint256)" 0xRecipient 1000000000000000000
  w3bind encode approve 0xSpender 1000000 --abi builtin:erc20
  w3bind encode "getMaxMagnitudes(address[],address)" '["0xOp1","0xOp2"]' 0xStrategy \
      --abi builtin:allocation-manager --words`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTarget(cmd.Context(), args, false)
		if errors.Is(err, errNoABI) {
			t, err = adhocTarget(args, "")
		}
		if err != nil {
			return err
		}

		entry, err := resolveFunction(t.ABI, t.Member)
		if err != nil {
			return err
		}
		values, err := codec.ParseArgs(entry.Inputs, t.Args)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Signature(), err)
		}
		calldata, err := t.factory(logger, nil).PackCall(entry.Signature(), values...)
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Signature", entry.Signature()},
			{"Selector", entry.SelectorHex()},
		}
		pairs = append(pairs, valuePairs(entry.Inputs, values)...)
		pairs = append(pairs,
			[2]string{"Calldata", ui.Val(hexutil.Encode(calldata))},
			[2]string{"Bytes", fmt.Sprintf("%d", len(calldata))},
		)
		if encodeWords {
			for i, w := range splitHexWords(hexutil.Encode(calldata[4:])[2:]) {
				pairs = append(pairs, [2]string{fmt.Sprintf("Word[%d]", i), "0x" + w})
			}
		}

		fmt.Println(ui.KeyValueBlock("Encoded Calldata", pairs))
		return nil
	},
}

// resolveFunction resolves a function name or signature in a.
func resolveFunction(a *abi.ABI, member string) (abi.Entry, error) {
	name, sig := abi.ParseMember(member)
	return a.Resolve(abi.KindFunction, name, sig)
}

// adhocTarget builds a target whose ABI is the single function described by
// the signature in args[0]. returns, if set, is its output list such as
// "(uint256,bool)".
func adhocTarget(args []string, returns string) (*target, error) {
	if len(args) == 0 || !strings.Contains(args[0], "(") {
		return nil, errNoABI
	}
	entry, err := signatureEntry(args[0], returns)
	if err != nil {
		return nil, err
	}
	a, err := abi.New([]abi.Entry{entry})
	if err != nil {
		return nil, err
	}
	return &target{ABI: a, Member: entry.Signature(), Args: args[1:]}, nil
}

// signatureEntry parses "name(type, ...)" into a nonpayable function entry.
func signatureEntry(sig, returns string) (abi.Entry, error) {
	name, inputs, err := abi.CanonicalInputs(sig)
	if err != nil {
		return abi.Entry{}, err
	}
	if name == "" {
		return abi.Entry{}, fmt.Errorf("signature %q has no function name", sig)
	}
	entry := abi.Entry{Kind: abi.KindFunction, Name: name, Mutability: abi.NonPayable}
	if entry.Inputs, err = typeListParams(inputs); err != nil {
		return abi.Entry{}, err
	}
	if returns != "" {
		if !strings.HasPrefix(strings.TrimSpace(returns), "(") {
			returns = "(" + returns + ")"
		}
		_, outputs, err := abi.CanonicalInputs(returns)
		if err != nil {
			return abi.Entry{}, fmt.Errorf("--returns: %w", err)
		}
		if entry.Outputs, err = typeListParams(outputs); err != nil {
			return abi.Entry{}, err
		}
	}
	return entry, nil
}

// typeListParams turns a canonical "(t1,t2)" list into unnamed params.
func typeListParams(list string) ([]abi.Param, error) {
	parts, err := abi.SplitTypeList(list[1 : len(list)-1])
	if err != nil {
		return nil, err
	}
	params := make([]abi.Param, len(parts))
	for i, p := range parts {
		typ, err := abi.NewType(p, nil)
		if err != nil {
			return nil, err
		}
		params[i] = abi.Param{Type: typ}
	}
	return params, nil
}

// splitHexWords splits a hex string into 64-char (32-byte) words.
func splitHexWords(hex string) []string {
	var words []string
	for i := 0; i+64 <= len(hex); i += 64 {
		words = append(words, hex[i:i+64])
	}
	if rem := len(hex) % 64; rem > 0 {
		words = append(words, hex[len(hex)-rem:])
	}
	return words
}

func init() {
	encodeCmd.Flags().BoolVar(&encodeWords, "words", false, "also print the argument payload as 32-byte words")
}
