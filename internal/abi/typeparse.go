package abi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidType is returned for type strings that are not valid ABI types.
var ErrInvalidType = errors.New("invalid abi type")

// MaxStaticSize bounds the in-place encoding of one static array or tuple,
// and the offset table of a fixed-length array of dynamic elements.
const MaxStaticSize = 1 << 24

// NewType parses an ABI type string. components supplies the tuple members
// when the base type is "tuple"; tuple literals such as "(address,uint96)[]"
// are also accepted and yield unnamed components.
func NewType(s string, components []Param) (*Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty type", ErrInvalidType)
	}

	// Array suffixes bind from the right: "uint8[2][]" is a slice of uint8[2].
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		elem, err := NewType(s[:open], components)
		if err != nil {
			return nil, err
		}
		dim := s[open+1 : len(s)-1]
		if dim == "" {
			return &Type{Kind: SliceTy, Elem: elem}, nil
		}
		n, ok := decimal(dim)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("%w: bad array length in %q", ErrInvalidType, s)
		}
		t := &Type{Kind: ArrayTy, Size: n, Elem: elem}
		if err := checkSize(t); err != nil {
			return nil, err
		}
		return t, nil
	}

	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return nil, fmt.Errorf("%w: unbalanced tuple %q", ErrInvalidType, s)
		}
		parts, err := SplitTypeList(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		comps := make([]Param, len(parts))
		for i, p := range parts {
			t, err := NewType(typeField(p), nil)
			if err != nil {
				return nil, err
			}
			comps[i] = Param{Type: t}
		}
		t := &Type{Kind: TupleTy, Components: comps}
		if err := checkSize(t); err != nil {
			return nil, err
		}
		return t, nil
	}

	switch {
	case s == "tuple":
		if len(components) == 0 {
			return nil, fmt.Errorf("%w: tuple without components", ErrInvalidType)
		}
		t := &Type{Kind: TupleTy, Components: components}
		if err := checkSize(t); err != nil {
			return nil, err
		}
		return t, nil
	case s == "bool":
		return &Type{Kind: BoolTy}, nil
	case s == "address":
		return &Type{Kind: AddressTy}, nil
	case s == "string":
		return &Type{Kind: StringTy}, nil
	case s == "bytes":
		return &Type{Kind: BytesTy}, nil
	case strings.HasPrefix(s, "bytes"):
		n, ok := decimal(s[len("bytes"):])
		if !ok || n < 1 || n > 32 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		return &Type{Kind: FixedBytesTy, Size: n}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := intWidth(s[len("uint"):])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		return &Type{Kind: UintTy, Size: bits}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := intWidth(s[len("int"):])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		return &Type{Kind: IntTy, Size: bits}, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidType, s)
}

// MustNewType is like NewType but panics on error. Intended for literals.
func MustNewType(s string) *Type {
	t, err := NewType(s, nil)
	if err != nil {
		panic(err)
	}
	return t
}

func intWidth(suffix string) (int, error) {
	if suffix == "" {
		return 256, nil
	}
	bits, ok := decimal(suffix)
	if !ok {
		return 0, fmt.Errorf("width %q", suffix)
	}
	if bits < 8 || bits > 256 || bits%8 != 0 {
		return 0, fmt.Errorf("width %d", bits)
	}
	return bits, nil
}

// decimal parses a canonical unsigned decimal: digits only, no leading
// zero, at most nine digits.
func decimal(s string) (int, bool) {
	if s == "" || len(s) > 9 || (s[0] == '0' && len(s) > 1) {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// checkSize rejects arrays and tuples whose encoding would exceed
// MaxStaticSize. Elements and components are assumed checked already.
func checkSize(t *Type) error {
	switch t.Kind {
	case ArrayTy:
		unit := 32
		if !t.Elem.IsDynamic() {
			unit = max(t.Elem.HeadSize(), 1)
		}
		if t.Size > MaxStaticSize/unit {
			return fmt.Errorf("%w: %s[%d] exceeds %d bytes", ErrInvalidType, t.Elem, t.Size, MaxStaticSize)
		}
	case TupleTy:
		n := 0
		for _, c := range t.Components {
			if c.Type == nil {
				continue
			}
			n += c.Type.HeadSize()
			if n > MaxStaticSize {
				return fmt.Errorf("%w: tuple exceeds %d bytes", ErrInvalidType, MaxStaticSize)
			}
		}
	}
	return nil
}

// SplitTypeList splits a comma separated type list at top-level commas only,
// so "(a,b)[],c" yields ["(a,b)[]", "c"].
func SplitTypeList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidType, s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidType, s)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts, nil
}
