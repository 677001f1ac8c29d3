package codec

import (
	"math/big"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Decode reads the value of type t whose head slot starts at offset within
// data, the enclosing head/tail block. It returns the value and the offset
// of the next head slot.
func Decode(t *abi.Type, data []byte, offset int) (any, int, error) {
	hs := t.HeadSize()
	if offset < 0 || offset+hs > len(data) {
		return nil, 0, fail("value", ErrTruncatedData, "need %d bytes at offset %d, have %d", hs, offset, len(data))
	}
	if !t.IsDynamic() {
		v, err := decodeStatic("value", t, data[offset:offset+hs])
		return v, offset + hs, err
	}
	at, err := readOffset("value", data, offset, offset+wordSize)
	if err != nil {
		return nil, 0, err
	}
	v, err := decodeDynamic("value", t, data[at:])
	return v, offset + hs, err
}

// DecodeArgs decodes a complete argument block, such as call return data or
// the data field of a log, against the ordered params.
func DecodeArgs(params []abi.Param, data []byte) ([]any, error) {
	return decodeSequence("args", abi.Types(params), nil, data)
}

// decodeSequence decodes one head/tail block. Offsets of dynamic members must
// point past the head, stay within the block and strictly increase.
func decodeSequence(path string, types []*abi.Type, names []string, data []byte) ([]any, error) {
	headSize := 0
	for _, t := range types {
		headSize += t.HeadSize()
	}
	if len(data) < headSize {
		return nil, fail(path, ErrTruncatedData, "head needs %d bytes, have %d", headSize, len(data))
	}

	out := make([]any, len(types))
	pos, last := 0, -1
	for i, t := range types {
		p := indexPath(path, i)
		if names != nil {
			p = fieldPath(path, names[i], i)
		}
		hs := t.HeadSize()
		if !t.IsDynamic() {
			v, err := decodeStatic(p, t, data[pos:pos+hs])
			if err != nil {
				return nil, err
			}
			out[i] = v
			pos += hs
			continue
		}

		at, err := readOffset(p, data, pos, headSize)
		if err != nil {
			return nil, err
		}
		if at <= last {
			return nil, fail(p, ErrMalformedOffset, "offset %d does not follow previous offset %d", at, last)
		}
		last = at
		v, err := decodeDynamic(p, t, data[at:])
		if err != nil {
			return nil, err
		}
		out[i] = v
		pos += hs
	}
	return out, nil
}

// readOffset reads the tail offset stored at pos and checks that it lies in
// [min, len(data)).
func readOffset(path string, data []byte, pos, min int) (int, error) {
	word := new(big.Int).SetBytes(data[pos : pos+wordSize])
	if !word.IsInt64() || word.Int64() >= int64(len(data)) {
		return 0, fail(path, ErrMalformedOffset, "offset %s outside %d byte block", word, len(data))
	}
	at := int(word.Int64())
	if at < min {
		return 0, fail(path, ErrMalformedOffset, "offset %d points into the head region (%d bytes)", at, min)
	}
	return at, nil
}

// readLength reads a length prefix and checks that n units of unit bytes
// follow it in data.
func readLength(path string, data []byte, unit int) (int, error) {
	if len(data) < wordSize {
		return 0, fail(path, ErrTruncatedData, "missing length word")
	}
	word := new(big.Int).SetBytes(data[:wordSize])
	avail := int64(len(data) - wordSize)
	if !word.IsInt64() || word.Int64() > avail || word.Int64()*int64(unit) > avail {
		return 0, fail(path, ErrTruncatedData, "length %s exceeds %d available bytes", word, avail)
	}
	return int(word.Int64()), nil
}

// decodeDynamic decodes a dynamic value whose tail starts at data[0].
func decodeDynamic(path string, t *abi.Type, data []byte) (any, error) {
	switch t.Kind {
	case abi.BytesTy, abi.StringTy:
		n, err := readLength(path, data, 1)
		if err != nil {
			return nil, err
		}
		b := make([]byte, n)
		copy(b, data[wordSize:wordSize+n])
		if t.Kind == abi.StringTy {
			return string(b), nil
		}
		return b, nil

	case abi.SliceTy:
		n, err := readLength(path, data, t.Elem.HeadSize())
		if err != nil {
			return nil, err
		}
		return decodeSequence(path, repeat(t.Elem, n), nil, data[wordSize:])

	case abi.ArrayTy:
		return decodeSequence(path, repeat(t.Elem, t.Size), nil, data)

	case abi.TupleTy:
		return decodeTuple(path, t, data)
	}
	return nil, fail(path, ErrTypeMismatch, "%s is not dynamic", t)
}

func decodeTuple(path string, t *abi.Type, data []byte) ([]any, error) {
	types := make([]*abi.Type, len(t.Components))
	names := make([]string, len(t.Components))
	for i, c := range t.Components {
		types[i] = c.Type
		names[i] = c.Name
	}
	return decodeSequence(path, types, names, data)
}

// decodeStatic decodes a static value from its in-place encoding.
func decodeStatic(path string, t *abi.Type, word []byte) (any, error) {
	switch t.Kind {
	case abi.UintTy:
		n := new(big.Int).SetBytes(word)
		if n.BitLen() > t.Size {
			return nil, fail(path, ErrTypeMismatch, "value exceeds %s", t)
		}
		return nativeUint(t.Size, n), nil

	case abi.IntTy:
		n := new(big.Int).SetBytes(word)
		if word[0]&0x80 != 0 {
			n.Sub(n, tt256)
		}
		if !fitsInt(t, n) {
			return nil, fail(path, ErrTypeMismatch, "value exceeds %s", t)
		}
		return nativeInt(t.Size, n), nil

	case abi.BoolTy:
		for _, b := range word[:wordSize-1] {
			if b != 0 {
				return nil, fail(path, ErrTypeMismatch, "invalid bool encoding")
			}
		}
		switch word[wordSize-1] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, fail(path, ErrTypeMismatch, "invalid bool encoding")

	case abi.AddressTy:
		if !allZero(word[:wordSize-common.AddressLength]) {
			return nil, fail(path, ErrTypeMismatch, "dirty high bytes in address")
		}
		return common.BytesToAddress(word[wordSize-common.AddressLength:]), nil

	case abi.FixedBytesTy:
		if !allZero(word[t.Size:wordSize]) {
			return nil, fail(path, ErrTypeMismatch, "dirty padding in %s", t)
		}
		b := make([]byte, t.Size)
		copy(b, word[:t.Size])
		return b, nil

	case abi.ArrayTy:
		return decodeSequence(path, repeat(t.Elem, t.Size), nil, word)

	case abi.TupleTy:
		return decodeTuple(path, t, word)
	}
	return nil, fail(path, ErrTypeMismatch, "%s is not static", t)
}

func allZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// nativeUint maps widths up to 64 bits to the smallest Go type holding them.
func nativeUint(bits int, n *big.Int) any {
	switch {
	case bits <= 8:
		return uint8(n.Uint64())
	case bits <= 16:
		return uint16(n.Uint64())
	case bits <= 32:
		return uint32(n.Uint64())
	case bits <= 64:
		return n.Uint64()
	}
	return n
}

func nativeInt(bits int, n *big.Int) any {
	switch {
	case bits <= 8:
		return int8(n.Int64())
	case bits <= 16:
		return int16(n.Int64())
	case bits <= 32:
		return int32(n.Int64())
	case bits <= 64:
		return n.Int64()
	}
	return n
}
