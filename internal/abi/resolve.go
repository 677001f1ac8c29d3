package abi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Resolution errors.
var (
	ErrUnknownMember   = errors.New("unknown member")
	ErrAmbiguousMember = errors.New("ambiguous member")
)

// ResolveError describes a failed member lookup.
type ResolveError struct {
	Kind       Kind
	Name       string
	Signature  string   // disambiguator supplied by the caller, if any
	Candidates []string // canonical signatures sharing Name
	Err        error
}

func (e *ResolveError) Error() string {
	target := string(e.Kind)
	if e.Name != "" {
		target += fmt.Sprintf(" %q", e.Name)
	}
	if e.Signature != "" {
		target += " with signature " + e.Signature
	}
	msg := fmt.Sprintf("%s: %s", e.Err, target)
	if len(e.Candidates) > 0 {
		msg += " (candidates: " + strings.Join(e.Candidates, ", ") + ")"
	}
	return msg
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ParseMember splits the combined member notation "name(types)" into name
// and signature. A bare name yields an empty signature.
func ParseMember(member string) (name, signature string) {
	member = strings.TrimSpace(member)
	if i := strings.Index(member, "("); i >= 0 {
		return strings.TrimSpace(member[:i]), member
	}
	return member, ""
}

// Resolve locates the member of the given kind and name. When several
// overloads share the name, signature must pick one; it may be a full or
// parameter-only signature, or a selector (functions, errors) or topic
// (events) in hex. Resolution only looks at inputs, never at outputs.
//
// Constructor, fallback and receive are resolved by kind alone.
func (a *ABI) Resolve(kind Kind, name, signature string) (Entry, error) {
	var candidates []Entry
	for _, e := range a.entries {
		if e.Kind != kind {
			continue
		}
		if kind.Named() && e.Name != name {
			continue
		}
		candidates = append(candidates, e)
	}

	fail := func(err error, cands []Entry) (Entry, error) {
		re := &ResolveError{Kind: kind, Name: name, Signature: signature, Err: err}
		for _, c := range cands {
			re.Candidates = append(re.Candidates, c.Signature())
		}
		return Entry{}, re
	}

	if len(candidates) == 0 {
		return fail(ErrUnknownMember, nil)
	}

	signature = strings.TrimSpace(signature)
	if signature == "" {
		if len(candidates) > 1 {
			return fail(ErrAmbiguousMember, candidates)
		}
		return candidates[0], nil
	}

	match, err := signatureMatcher(signature)
	if err != nil {
		re := &ResolveError{Kind: kind, Name: name, Signature: signature, Err: fmt.Errorf("%w: %v", ErrUnknownMember, err)}
		return Entry{}, re
	}
	for _, c := range candidates {
		if match(c) {
			return c, nil
		}
	}
	return fail(ErrUnknownMember, candidates)
}

// signatureMatcher builds a predicate from a user supplied disambiguator.
func signatureMatcher(sig string) (func(Entry) bool, error) {
	if strings.HasPrefix(sig, "0x") || strings.HasPrefix(sig, "0X") {
		raw, err := hex.DecodeString(sig[2:])
		if err != nil {
			return nil, fmt.Errorf("bad hex selector %q", sig)
		}
		switch len(raw) {
		case 4:
			return func(e Entry) bool {
				sel := e.Selector()
				return e.Kind != KindEvent && string(sel[:]) == string(raw)
			}, nil
		case 32:
			return func(e Entry) bool {
				t, ok := e.Topic()
				return ok && string(t[:]) == string(raw)
			}, nil
		}
		return nil, fmt.Errorf("selector %q must be 4 or 32 bytes", sig)
	}

	if !strings.Contains(sig, "(") {
		sig = "(" + sig + ")"
	}
	name, inputs, err := CanonicalInputs(sig)
	if err != nil {
		return nil, err
	}
	return func(e Entry) bool {
		if name != "" && e.Kind.Named() && name != e.Name {
			return false
		}
		return e.InputSignature() == inputs
	}, nil
}
