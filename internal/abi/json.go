package abi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

type jsonParam struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	InternalType string      `json:"internalType,omitempty"`
	Components   []jsonParam `json:"components,omitempty"`
	Indexed      bool        `json:"indexed,omitempty"`
}

type jsonEntry struct {
	Type            string      `json:"type"`
	Name            string      `json:"name,omitempty"`
	Inputs          []jsonParam `json:"inputs"`
	Outputs         []jsonParam `json:"outputs,omitempty"`
	StateMutability string      `json:"stateMutability,omitempty"`
	Anonymous       bool        `json:"anonymous,omitempty"`

	// Pre-0.4.16 compilers emitted these instead of stateMutability.
	Constant *bool `json:"constant,omitempty"`
	Payable  *bool `json:"payable,omitempty"`
}

// Parse decodes either a raw ABI JSON array or a Hardhat/Foundry artifact
// object with an "abi" key, and validates it.
func Parse(data []byte) (*ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty ABI document")
	}

	if data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("invalid artifact JSON: %w", err)
		}
		if len(artifact.ABI) < 2 || artifact.ABI[0] != '[' {
			return nil, fmt.Errorf("JSON object is not an ABI array and has no \"abi\" key")
		}
		data = artifact.ABI
	}

	var raw []jsonEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid ABI JSON: expected an array of member definitions: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, je := range raw {
		e, err := je.toEntry()
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s %s): %w", i, je.Type, je.Name, err)
		}
		entries = append(entries, e)
	}
	return New(entries)
}

// LoadFile reads and parses an ABI or artifact file.
func LoadFile(path string) (*ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ABI file %s: %w", path, err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func (je jsonEntry) toEntry() (Entry, error) {
	kind := Kind(je.Type)
	if kind == "" {
		kind = KindFunction
	}
	inputs, err := toParams(je.Inputs)
	if err != nil {
		return Entry{}, err
	}
	outputs, err := toParams(je.Outputs)
	if err != nil {
		return Entry{}, err
	}

	mut := Mutability(je.StateMutability)
	if mut == "" {
		switch {
		case je.Payable != nil && *je.Payable:
			mut = Payable
		case je.Constant != nil && *je.Constant:
			mut = View
		}
	}

	return Entry{
		Kind:       kind,
		Name:       je.Name,
		Inputs:     inputs,
		Outputs:    outputs,
		Mutability: mut,
		Anonymous:  je.Anonymous,
	}, nil
}

func toParams(raw []jsonParam) ([]Param, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Param, len(raw))
	for i, jp := range raw {
		comps, err := toParams(jp.Components)
		if err != nil {
			return nil, err
		}
		t, err := NewType(jp.Type, comps)
		if err != nil {
			return nil, fmt.Errorf("param %d (%q): %w", i, jp.Name, err)
		}
		out[i] = Param{Name: jp.Name, Type: t, InternalType: jp.InternalType, Indexed: jp.Indexed}
	}
	return out, nil
}

// MarshalJSON renders the ABI in the standard JSON array form.
func (a *ABI) MarshalJSON() ([]byte, error) {
	out := make([]jsonEntry, len(a.entries))
	for i, e := range a.entries {
		je := jsonEntry{
			Type:      string(e.Kind),
			Name:      e.Name,
			Inputs:    fromParams(e.Inputs),
			Outputs:   fromParams(e.Outputs),
			Anonymous: e.Anonymous,
		}
		if e.Kind != KindEvent && e.Kind != KindError {
			je.StateMutability = string(e.Mutability)
		}
		if je.Inputs == nil {
			je.Inputs = []jsonParam{}
		}
		out[i] = je
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses a standard JSON ABI array into a.
func (a *ABI) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}

func fromParams(params []Param) []jsonParam {
	if len(params) == 0 {
		return nil
	}
	out := make([]jsonParam, len(params))
	for i, p := range params {
		typ, comps := jsonType(p.Type)
		out[i] = jsonParam{
			Name:         p.Name,
			Type:         typ,
			InternalType: p.InternalType,
			Components:   comps,
			Indexed:      p.Indexed,
		}
	}
	return out
}

// jsonType renders t the way compilers do: tuples become "tuple" plus a
// components list, keeping any array suffixes.
func jsonType(t *Type) (string, []jsonParam) {
	switch t.Kind {
	case TupleTy:
		return "tuple", fromParams(t.Components)
	case ArrayTy:
		inner, comps := jsonType(t.Elem)
		return fmt.Sprintf("%s[%d]", inner, t.Size), comps
	case SliceTy:
		inner, comps := jsonType(t.Elem)
		return inner + "[]", comps
	}
	return t.String(), nil
}
