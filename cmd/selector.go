package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/contract"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var selectorCmd = &cobra.Command{
	Use:   "selector <signature-or-selector>",
	Short: "Compute a selector and topic, or look one up",
	Long: `Compute the 4-byte selector and the event topic of a signature, or
look up a selector or topic in an ABI.

Parameter names are dropped and type aliases expanded before hashing, so
"transfer(address to, uint amount)" hashes as transfer(address,uint256).

Lookups search --abi/--contract when given, else every bundled ABI.

Examples:
  w3bind selector "transfer(address,uint256)"          # → 0xa9059cbb
  w3bind selector "Transfer(address indexed, address indexed, uint256)"
  w3bind selector 0xa9059cbb                            # → transfer(address,uint256)
  w3bind selector 0x0b7f8473 -c allocations`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.TrimSpace(args[0])

		if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
			hash, err := hexutil.Decode(strings.ToLower(input))
			if err != nil || (len(hash) != 4 && len(hash) != 32) {
				return fmt.Errorf("%q is not a 4-byte selector or 32-byte topic", input)
			}
			sources, err := lookupSources(cmd)
			if err != nil {
				return err
			}
			pairs := [][2]string{{"Hash", input}}
			for _, m := range lookupHash(sources, hash) {
				pairs = append(pairs, [2]string{m[0], ui.Val(m[1])})
			}
			if len(pairs) == 1 {
				pairs = append(pairs, [2]string{"Match", ui.Meta("none in the searched ABIs")})
			}
			fmt.Println(ui.KeyValueBlock("Selector Lookup", pairs))
			return nil
		}

		sig, err := normalizeSignature(input)
		if err != nil {
			return err
		}
		hash := abi.Keccak256([]byte(sig))
		fmt.Println(ui.KeyValueBlock("Selector", [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val(hexutil.Encode(hash[:4]))},
			{"Topic", hexutil.Encode(hash)},
		}))
		return nil
	},
}

// normalizeSignature removes parameter names and expands aliases.
// "transfer(address to, uint amount)" → "transfer(address,uint256)"
func normalizeSignature(sig string) (string, error) {
	name, inputs, err := abi.CanonicalInputs(sig)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("signature %q has no name", sig)
	}
	return name + inputs, nil
}

// computeEventTopic returns the hex topic of a canonical event signature.
func computeEventTopic(sig string) string {
	return hexutil.Encode(abi.Keccak256([]byte(sig)))
}

type namedABI struct {
	name string
	abi  *abi.ABI
}

// lookupSources is the ABI from the flags, else every bundled ABI.
func lookupSources(cmd *cobra.Command) ([]namedABI, error) {
	t, _, err := resolveSource(cmd.Context(), nil, false)
	if err == nil {
		label := t.Label
		if label == "" {
			label = abiFlag
		}
		return []namedABI{{label, t.ABI}}, nil
	}
	if !errors.Is(err, errNoABI) {
		return nil, err
	}
	builtins, err := contract.LoadBuiltins()
	if err != nil {
		return nil, err
	}
	var out []namedABI
	for _, b := range builtins.All() {
		out = append(out, namedABI{contract.BuiltinPrefix + b.ID, b.ABI})
	}
	return out, nil
}

// lookupHash matches a selector against functions and errors, or a topic
// against events. Each match is labelled with its source.
func lookupHash(sources []namedABI, hash []byte) [][2]string {
	var out [][2]string
	add := func(src namedABI, e abi.Entry) {
		out = append(out, [2]string{fmt.Sprintf("%s %s", src.name, e.Kind), e.Signature()})
	}
	for _, src := range sources {
		switch len(hash) {
		case 4:
			sel := [4]byte(hash)
			for _, e := range src.abi.Members(abi.KindFunction) {
				if e.Selector() == sel {
					add(src, e)
				}
			}
			if e, ok := src.abi.ErrorBySelector(sel); ok {
				add(src, e)
			}
		case 32:
			if e, ok := src.abi.EventByTopic(common.BytesToHash(hash)); ok {
				add(src, e)
			}
		}
	}
	return out
}
