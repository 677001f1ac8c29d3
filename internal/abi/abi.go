// Package abi models a contract interface: its members, their parameter
// types, canonical signatures, selectors and topics, and the resolution of a
// member name (possibly overloaded) to a single entry.
package abi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
)

const (
	maxIndexed          = 3
	maxIndexedAnonymous = 4
)

// ABI is an ordered, immutable list of interface members.
type ABI struct {
	entries []Entry
}

// New validates entries and builds an ABI. All problems are reported at
// once in the returned error.
func New(entries []Entry) (*ABI, error) {
	var (
		result  *multierror.Error
		seen    = make(map[string]bool)
		special = make(map[Kind]bool)
		out     = make([]Entry, len(entries))
	)
	copy(out, entries)

	for i := range out {
		e := &out[i]
		if e.Kind == "" {
			e.Kind = KindFunction
		}
		if err := validateEntry(e); err != nil {
			result = multierror.Append(result, fmt.Errorf("entry %d (%s): %w", i, describe(e), err))
			continue
		}

		if !e.Kind.Named() {
			if special[e.Kind] {
				result = multierror.Append(result, fmt.Errorf("entry %d: more than one %s", i, e.Kind))
			}
			special[e.Kind] = true
			continue
		}
		key := string(e.Kind) + " " + e.Signature()
		if seen[key] {
			result = multierror.Append(result, fmt.Errorf("entry %d: duplicate %s", i, key))
		}
		seen[key] = true
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &ABI{entries: out}, nil
}

// MustNew is like New but panics on error.
func MustNew(entries []Entry) *ABI {
	a, err := New(entries)
	if err != nil {
		panic(err)
	}
	return a
}

func describe(e *Entry) string {
	if e.Name != "" {
		return string(e.Kind) + " " + e.Name
	}
	return string(e.Kind)
}

func validateEntry(e *Entry) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Kind.Named() && e.Name == "" {
		return fmt.Errorf("%s without a name", e.Kind)
	}
	if err := validateParams("input", e.Inputs); err != nil {
		return err
	}
	if err := validateParams("output", e.Outputs); err != nil {
		return err
	}

	switch e.Kind {
	case KindFunction:
		if e.Mutability == "" {
			e.Mutability = NonPayable
		}
		if !e.Mutability.Valid() {
			return fmt.Errorf("unknown state mutability %q", e.Mutability)
		}
	case KindConstructor, KindFallback:
		if e.Mutability == "" {
			e.Mutability = NonPayable
		}
		if e.Mutability != NonPayable && e.Mutability != Payable {
			return fmt.Errorf("%s cannot be %s", e.Kind, e.Mutability)
		}
	case KindReceive:
		if e.Mutability == "" {
			e.Mutability = Payable
		}
		if e.Mutability != Payable || len(e.Inputs) > 0 {
			return fmt.Errorf("receive must be payable and take no inputs")
		}
	case KindEvent:
		limit := maxIndexed
		if e.Anonymous {
			limit = maxIndexedAnonymous
		}
		if n := len(e.Indexed()); n > limit {
			return fmt.Errorf("%d indexed inputs, at most %d allowed", n, limit)
		}
	}

	if e.Kind != KindFunction && len(e.Outputs) > 0 {
		return fmt.Errorf("%s cannot declare outputs", e.Kind)
	}
	if e.Kind != KindEvent {
		for _, p := range e.Inputs {
			if p.Indexed {
				return fmt.Errorf("input %q marked indexed outside an event", p.Name)
			}
		}
	}
	return nil
}

func validateParams(what string, params []Param) error {
	for i, p := range params {
		if p.Type == nil {
			return fmt.Errorf("%s %d (%q) has no type", what, i, p.Name)
		}
		if err := validateType(p.Type); err != nil {
			return fmt.Errorf("%s %d (%q): %w", what, i, p.Name, err)
		}
	}
	return nil
}

func validateType(t *Type) error {
	switch t.Kind {
	case UintTy, IntTy:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("%w: integer width %d", ErrInvalidType, t.Size)
		}
	case FixedBytesTy:
		if t.Size < 1 || t.Size > 32 {
			return fmt.Errorf("%w: bytes%d", ErrInvalidType, t.Size)
		}
	case BoolTy, AddressTy, BytesTy, StringTy:
	case ArrayTy:
		if t.Size <= 0 {
			return fmt.Errorf("%w: array length %d", ErrInvalidType, t.Size)
		}
		fallthrough
	case SliceTy:
		if t.Elem == nil {
			return fmt.Errorf("%w: array without element type", ErrInvalidType)
		}
		if err := validateType(t.Elem); err != nil {
			return err
		}
		return checkSize(t)
	case TupleTy:
		if len(t.Components) == 0 {
			return fmt.Errorf("%w: empty tuple", ErrInvalidType)
		}
		if err := validateParams("component", t.Components); err != nil {
			return err
		}
		return checkSize(t)
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidType, t.Kind)
	}
	return nil
}

// Entries returns a copy of all members in declaration order.
func (a *ABI) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of members.
func (a *ABI) Len() int { return len(a.entries) }

// Members returns all members of the given kind in declaration order.
func (a *ABI) Members(kind Kind) []Entry {
	var out []Entry
	for _, e := range a.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ErrorBySelector finds a declared custom error by its selector.
func (a *ABI) ErrorBySelector(sel [4]byte) (Entry, bool) {
	for _, e := range a.entries {
		if e.Kind == KindError && e.Selector() == sel {
			return e, true
		}
	}
	return Entry{}, false
}

// EventByTopic finds a non-anonymous event by its topic0.
func (a *ABI) EventByTopic(topic common.Hash) (Entry, bool) {
	for _, e := range a.entries {
		if t, ok := e.Topic(); ok && t == topic {
			return e, true
		}
	}
	return Entry{}, false
}
