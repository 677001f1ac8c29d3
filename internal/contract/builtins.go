package contract

import (
	"embed"
	"fmt"
	"sort"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
)

//go:embed abis/*.json
var abiFS embed.FS

// Builtin is a contract interface whose ABI is embedded in the binary.
type Builtin struct {
	ID          string // machine key, e.g. "erc20"
	Name        string // human label
	Description string // one-line summary shown in `contract builtins`
	ABI         *abi.ABI
}

var builtinFiles = []struct {
	id, file, name, description string
}{
	{"erc20", "erc20.json", "ERC-20", "Fungible token: balances, allowances, transfers"},
	{"erc721", "erc721.json", "ERC-721", "Non-fungible token: ownership, approvals, overloaded safeTransferFrom"},
	{"allocation-manager", "allocation_manager.json", "AllocationManager",
		"Restaking allocations: overloaded getMaxMagnitudes and paused, nested operator-set tuples"},
}

// Builtins is the set of embedded ABIs, keyed by ID.
type Builtins struct {
	byID map[string]Builtin
}

// LoadBuiltins parses every embedded ABI.
func LoadBuiltins() (*Builtins, error) {
	b := &Builtins{byID: make(map[string]Builtin, len(builtinFiles))}
	for _, f := range builtinFiles {
		data, err := abiFS.ReadFile("abis/" + f.file)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", f.id, err)
		}
		parsed, err := abi.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", f.id, err)
		}
		b.byID[f.id] = Builtin{ID: f.id, Name: f.name, Description: f.description, ABI: parsed}
	}
	return b, nil
}

// Get returns a built-in by ID. ok is false if not found.
func (b *Builtins) Get(id string) (Builtin, bool) {
	bi, ok := b.byID[id]
	return bi, ok
}

// All returns all built-ins sorted by ID.
func (b *Builtins) All() []Builtin {
	out := make([]Builtin, 0, len(b.byID))
	for _, bi := range b.byID {
		out = append(out, bi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
