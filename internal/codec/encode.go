// Package codec implements the contract ABI wire format: 32-byte head slots
// for static values, offsets into a tail region for dynamic ones.
package codec

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/ethereum/go-ethereum/common"
)

const wordSize = 32

var tt256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Encode encodes v as a single-element argument list of type t.
func Encode(t *abi.Type, v any) ([]byte, error) {
	return encodeSequence("value", []*abi.Type{t}, nil, []any{v})
}

// EncodeArgs encodes values against the ordered params, as they appear after
// a selector in calldata or in the data field of a log.
func EncodeArgs(params []abi.Param, values []any) ([]byte, error) {
	if len(values) != len(params) {
		return nil, fail("args", ErrTypeMismatch, "expected %d arguments, got %d", len(params), len(values))
	}
	return encodeSequence("args", abi.Types(params), nil, values)
}

// encodeSequence lays out values as one head/tail block. names, when set,
// label tuple components in error paths; otherwise elements are indexed.
func encodeSequence(path string, types []*abi.Type, names []string, values []any) ([]byte, error) {
	headSize := 0
	for _, t := range types {
		headSize += t.HeadSize()
	}

	head := make([]byte, 0, headSize)
	var tail []byte
	for i, t := range types {
		p := indexPath(path, i)
		if names != nil {
			p = fieldPath(path, names[i], i)
		}
		enc, err := encodeValue(p, t, values[i])
		if err != nil {
			return nil, err
		}
		if t.IsDynamic() {
			head = append(head, wordOf(big.NewInt(int64(headSize+len(tail))))...)
			tail = append(tail, enc...)
			continue
		}
		head = append(head, enc...)
	}
	return append(head, tail...), nil
}

// encodeValue returns the in-place encoding of a static value, or the tail
// encoding of a dynamic one.
func encodeValue(path string, t *abi.Type, v any) ([]byte, error) {
	switch t.Kind {
	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, fail(path, ErrTypeMismatch, "%s: %v", t, err)
		}
		if !fitsInt(t, n) {
			return nil, fail(path, ErrTypeMismatch, "%s does not fit in %s", n, t)
		}
		return wordOf(n), nil

	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, fail(path, ErrTypeMismatch, "bool expects a Go bool, got %T", v)
		}
		if b {
			return wordOf(big.NewInt(1)), nil
		}
		return make([]byte, wordSize), nil

	case abi.AddressTy:
		addr, err := toAddress(v)
		if err != nil {
			return nil, fail(path, ErrTypeMismatch, "%v", err)
		}
		return common.LeftPadBytes(addr.Bytes(), wordSize), nil

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, fail(path, ErrTypeMismatch, "%s: %v", t, err)
		}
		if len(b) != t.Size {
			return nil, fail(path, ErrTypeMismatch, "%s expects %d bytes, got %d", t, t.Size, len(b))
		}
		return common.RightPadBytes(b, wordSize), nil

	case abi.BytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, fail(path, ErrTypeMismatch, "bytes: %v", err)
		}
		return packBytes(b), nil

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fail(path, ErrTypeMismatch, "string expects a Go string, got %T", v)
		}
		return packBytes([]byte(s)), nil

	case abi.ArrayTy:
		elems, ok := toSlice(v)
		if !ok {
			return nil, fail(path, ErrTypeMismatch, "%s expects a slice or array, got %T", t, v)
		}
		if len(elems) != t.Size {
			return nil, fail(path, ErrTypeMismatch, "%s expects %d elements, got %d", t, t.Size, len(elems))
		}
		return encodeSequence(path, repeat(t.Elem, len(elems)), nil, elems)

	case abi.SliceTy:
		elems, ok := toSlice(v)
		if !ok {
			return nil, fail(path, ErrTypeMismatch, "%s expects a slice or array, got %T", t, v)
		}
		body, err := encodeSequence(path, repeat(t.Elem, len(elems)), nil, elems)
		if err != nil {
			return nil, err
		}
		return append(wordOf(big.NewInt(int64(len(elems)))), body...), nil

	case abi.TupleTy:
		values, err := tupleValues(path, t, v)
		if err != nil {
			return nil, err
		}
		types := make([]*abi.Type, len(t.Components))
		names := make([]string, len(t.Components))
		for i, c := range t.Components {
			types[i] = c.Type
			names[i] = c.Name
		}
		return encodeSequence(path, types, names, values)
	}
	return nil, fail(path, ErrTypeMismatch, "unsupported type %s", t)
}

func repeat(t *abi.Type, n int) []*abi.Type {
	out := make([]*abi.Type, n)
	for i := range out {
		out[i] = t
	}
	return out
}

// packBytes is the length-prefixed, right padded tail of bytes and string.
func packBytes(b []byte) []byte {
	padded := (len(b) + wordSize - 1) / wordSize * wordSize
	out := make([]byte, wordSize+padded)
	copy(out, wordOf(big.NewInt(int64(len(b)))))
	copy(out[wordSize:], b)
	return out
}

// wordOf renders n as a 32-byte two's complement word.
func wordOf(n *big.Int) []byte {
	if n.Sign() < 0 {
		n = new(big.Int).Add(n, tt256)
	}
	return n.FillBytes(make([]byte, wordSize))
}

func fitsInt(t *abi.Type, n *big.Int) bool {
	if t.Kind == abi.UintTy {
		return n.Sign() >= 0 && n.BitLen() <= t.Size
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Sign() >= 0 {
		return n.Cmp(limit) < 0
	}
	return n.Cmp(new(big.Int).Neg(limit)) >= 0
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		return x, nil
	case big.Int:
		return &x, nil
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(x), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, fmt.Errorf("cannot use %T as an integer", v)
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x != nil {
			return *x, nil
		}
	case [20]byte:
		return common.Address(x), nil
	case []byte:
		if len(x) == common.AddressLength {
			return common.BytesToAddress(x), nil
		}
		return common.Address{}, fmt.Errorf("address expects 20 bytes, got %d", len(x))
	case string:
		if common.IsHexAddress(x) {
			return common.HexToAddress(x), nil
		}
		return common.Address{}, fmt.Errorf("invalid address %q", x)
	}
	return common.Address{}, fmt.Errorf("cannot use %T as an address", v)
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case common.Hash:
		return x.Bytes(), nil
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(x, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q", x)
		}
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// tupleValues accepts []any in component order, map[string]any keyed by
// component name, or a struct whose exported fields follow component order.
func tupleValues(path string, t *abi.Type, v any) ([]any, error) {
	n := len(t.Components)
	if m, ok := v.(map[string]any); ok {
		out := make([]any, n)
		for i, c := range t.Components {
			val, ok := m[c.Name]
			if c.Name == "" || !ok {
				return nil, fail(fieldPath(path, c.Name, i), ErrTypeMismatch, "missing tuple component")
			}
			out[i] = val
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		var out []any
		for i := 0; i < rv.NumField(); i++ {
			if rv.Type().Field(i).IsExported() {
				out = append(out, rv.Field(i).Interface())
			}
		}
		if len(out) != n {
			return nil, fail(path, ErrTypeMismatch, "%s has %d components, struct %s has %d exported fields", t, n, rv.Type(), len(out))
		}
		return out, nil
	}

	elems, ok := toSlice(v)
	if !ok {
		return nil, fail(path, ErrTypeMismatch, "%s expects []any, map or struct, got %T", t, v)
	}
	if len(elems) != n {
		return nil, fail(path, ErrTypeMismatch, "%s expects %d components, got %d", t, n, len(elems))
	}
	return elems, nil
}
