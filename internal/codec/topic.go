package codec

import (
	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/ethereum/go-ethereum/common"
)

// TopicValue encodes an indexed event argument as a log topic. Value types
// occupy the topic directly; string and bytes are replaced by the keccak256
// of their contents, arrays and tuples by the keccak256 of their padded
// in-place encoding.
func TopicValue(t *abi.Type, v any) (common.Hash, error) {
	switch {
	case t.IsValueType():
		word, err := encodeValue("topic", t, v)
		if err != nil {
			return common.Hash{}, err
		}
		return common.BytesToHash(word), nil

	case t.Kind == abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return common.Hash{}, fail("topic", ErrTypeMismatch, "string expects a Go string, got %T", v)
		}
		return common.BytesToHash(abi.Keccak256([]byte(s))), nil

	case t.Kind == abi.BytesTy:
		b, err := toBytes(v)
		if err != nil {
			return common.Hash{}, fail("topic", ErrTypeMismatch, "bytes: %v", err)
		}
		return common.BytesToHash(abi.Keccak256(b)), nil
	}

	pre, err := topicPreimage("topic", t, v)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(abi.Keccak256(pre)), nil
}

// topicPreimage is the in-place encoding used to hash indexed composites:
// every element padded to a word multiple, no offsets and no length prefixes.
func topicPreimage(path string, t *abi.Type, v any) ([]byte, error) {
	switch t.Kind {
	case abi.StringTy, abi.BytesTy:
		var b []byte
		if s, ok := v.(string); ok && t.Kind == abi.StringTy {
			b = []byte(s)
		} else {
			var err error
			if b, err = toBytes(v); err != nil {
				return nil, fail(path, ErrTypeMismatch, "%s: %v", t, err)
			}
		}
		padded := (len(b) + wordSize - 1) / wordSize * wordSize
		return common.RightPadBytes(b, padded), nil

	case abi.ArrayTy, abi.SliceTy:
		elems, ok := toSlice(v)
		if !ok {
			return nil, fail(path, ErrTypeMismatch, "%s expects a slice or array, got %T", t, v)
		}
		if t.Kind == abi.ArrayTy && len(elems) != t.Size {
			return nil, fail(path, ErrTypeMismatch, "%s expects %d elements, got %d", t, t.Size, len(elems))
		}
		var out []byte
		for i, e := range elems {
			b, err := topicPreimage(indexPath(path, i), t.Elem, e)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil

	case abi.TupleTy:
		values, err := tupleValues(path, t, v)
		if err != nil {
			return nil, err
		}
		var out []byte
		for i, c := range t.Components {
			b, err := topicPreimage(fieldPath(path, c.Name, i), c.Type, values[i])
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	}
	return encodeValue(path, t, v)
}

// DecodeTopic recovers an indexed argument from its topic. Value types decode
// to their host value; hashed dynamic values come back as the common.Hash
// they were hashed to, since the preimage is not recoverable.
func DecodeTopic(t *abi.Type, topic common.Hash) (any, error) {
	if !t.IsValueType() {
		return topic, nil
	}
	return decodeStatic("topic", t, topic[:])
}
