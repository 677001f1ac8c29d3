package abi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the concatenation of data with legacy Keccak-256.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// InputSignature returns the parenthesised canonical input type list,
// e.g. "(address,address[])".
func (e Entry) InputSignature() string {
	return TupleOf(e.Inputs).String()
}

// Signature returns the canonical signature: name plus the recursively
// expanded input types. Unnamed members use their kind as the name.
func (e Entry) Signature() string {
	name := e.Name
	if !e.Kind.Named() {
		name = string(e.Kind)
	}
	return name + e.InputSignature()
}

// Selector returns the 4-byte selector of a function or error.
func (e Entry) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], Keccak256([]byte(e.Signature())))
	return sel
}

// SelectorHex returns the selector as 0x-prefixed hex.
func (e Entry) SelectorHex() string {
	sel := e.Selector()
	return "0x" + hex.EncodeToString(sel[:])
}

// Topic returns the topic0 hash of an event. Anonymous events have no
// topic0 and report false.
func (e Entry) Topic() (common.Hash, bool) {
	if e.Kind != KindEvent || e.Anonymous {
		return common.Hash{}, false
	}
	return common.BytesToHash(Keccak256([]byte(e.Signature()))), true
}

// Indexed returns the indexed inputs of an event in declared order.
func (e Entry) Indexed() []Param {
	var out []Param
	for _, p := range e.Inputs {
		if p.Indexed {
			out = append(out, p)
		}
	}
	return out
}

// NonIndexed returns the inputs of an event that live in the log data.
func (e Entry) NonIndexed() []Param {
	var out []Param
	for _, p := range e.Inputs {
		if !p.Indexed {
			out = append(out, p)
		}
	}
	return out
}

// String renders a human readable description, e.g.
// "function paused(uint8) view returns (bool)".
func (e Entry) String() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(" ")
	sb.WriteString(e.Signature())
	if e.Kind == KindFunction {
		if e.Mutability != NonPayable && e.Mutability != "" {
			sb.WriteString(" " + string(e.Mutability))
		}
		if len(e.Outputs) > 0 {
			sb.WriteString(" returns " + TupleOf(e.Outputs).String())
		}
	}
	if e.Anonymous {
		sb.WriteString(" anonymous")
	}
	return sb.String()
}

// CanonicalInputs normalises a user supplied signature to its canonical
// input list. It accepts "name(address to, uint amount)", "(address,uint256)"
// and bare "address,uint256", and returns the name part (possibly empty)
// together with the canonical "(address,uint256)".
func CanonicalInputs(sig string) (name, inputs string, err error) {
	sig = strings.TrimSpace(sig)
	open := strings.Index(sig, "(")
	if open < 0 {
		return "", "", fmt.Errorf("%w: signature %q has no parameter list", ErrInvalidType, sig)
	}
	name = strings.TrimSpace(sig[:open])

	closeIdx := matchingParen(sig, open)
	if closeIdx < 0 {
		return "", "", fmt.Errorf("%w: unbalanced signature %q", ErrInvalidType, sig)
	}

	parts, err := SplitTypeList(sig[open+1 : closeIdx])
	if err != nil {
		return "", "", err
	}
	types := make([]string, len(parts))
	for i, p := range parts {
		t, err := NewType(typeField(p), nil)
		if err != nil {
			return "", "", err
		}
		types[i] = t.String()
	}
	return name, "(" + strings.Join(types, ",") + ")", nil
}

// typeField strips a parameter name and location keywords from one
// parameter declaration: "(address a, uint b)[] memory xs" -> "(address a, uint b)[]".
func typeField(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, "(") {
		end := matchingParen(p, 0)
		if end < 0 {
			return p
		}
		rest := p[end+1:]
		suffix := rest
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			suffix = rest[:i]
		}
		return p[:end+1] + suffix
	}
	if fields := strings.Fields(p); len(fields) > 0 {
		return fields[0]
	}
	return p
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
