package codec

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseArg converts a command-line argument to a host value of type t.
// Integers are decimal or 0x hex, bytes are 0x hex, and arrays and tuples are
// JSON arrays (tuples may also be JSON objects keyed by component name).
func ParseArg(t *abi.Type, s string) (any, error) {
	return parseArg("arg", t, strings.TrimSpace(s))
}

// ParseArgs parses one string per param.
func ParseArgs(params []abi.Param, args []string) ([]any, error) {
	if len(args) != len(params) {
		return nil, fail("args", ErrTypeMismatch, "expected %d arguments, got %d", len(params), len(args))
	}
	out := make([]any, len(args))
	for i, p := range params {
		v, err := parseArg(indexPath("args", i), p.Type, strings.TrimSpace(args[i]))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(path string, t *abi.Type, s string) (any, error) {
	switch t.Kind {
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 0)
		if !ok {
			return nil, fail(path, ErrTypeMismatch, "invalid integer %q", s)
		}
		return n, nil
	case abi.BoolTy:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fail(path, ErrTypeMismatch, "invalid bool %q", s)
		}
		return b, nil
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fail(path, ErrTypeMismatch, "invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.FixedBytesTy, abi.BytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fail(path, ErrTypeMismatch, "invalid hex %q: %v", s, err)
		}
		if t.Kind == abi.FixedBytesTy && len(b) != t.Size {
			return nil, fail(path, ErrTypeMismatch, "%s expects %d bytes, got %d", t, t.Size, len(b))
		}
		return b, nil
	case abi.StringTy:
		return s, nil
	}
	return parseJSON(path, t, json.RawMessage(s))
}

// parseJSON handles composite arguments. Scalars inside may be JSON strings,
// numbers or booleans.
func parseJSON(path string, t *abi.Type, raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fail(path, ErrTypeMismatch, "empty value for %s", t)
	}

	switch t.Kind {
	case abi.ArrayTy, abi.SliceTy:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fail(path, ErrTypeMismatch, "%s expects a JSON array: %v", t, err)
		}
		if t.Kind == abi.ArrayTy && len(items) != t.Size {
			return nil, fail(path, ErrTypeMismatch, "%s expects %d elements, got %d", t, t.Size, len(items))
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := parseJSON(indexPath(path, i), t.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case abi.TupleTy:
		items := make([]json.RawMessage, len(t.Components))
		if raw[0] == '{' {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, fail(path, ErrTypeMismatch, "%s expects a JSON object or array: %v", t, err)
			}
			for i, c := range t.Components {
				item, ok := obj[c.Name]
				if !ok || c.Name == "" {
					return nil, fail(fieldPath(path, c.Name, i), ErrTypeMismatch, "missing tuple component")
				}
				items[i] = item
			}
		} else {
			var list []json.RawMessage
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, fail(path, ErrTypeMismatch, "%s expects a JSON object or array: %v", t, err)
			}
			if len(list) != len(items) {
				return nil, fail(path, ErrTypeMismatch, "%s expects %d components, got %d", t, len(items), len(list))
			}
			copy(items, list)
		}
		out := make([]any, len(items))
		for i, c := range t.Components {
			v, err := parseJSON(fieldPath(path, c.Name, i), c.Type, items[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	// Scalar inside a composite.
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fail(path, ErrTypeMismatch, "invalid JSON string: %v", err)
		}
		return parseArg(path, t, s)
	}
	return parseArg(path, t, string(raw))
}
