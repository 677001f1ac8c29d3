// Package contract keeps named contracts (address plus ABI per network) and
// the ABIs shipped inside the binary, and turns either into bindings.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/ethereum/go-ethereum/common"
)

// ErrContractNotFound is returned when a contract is not found.
var ErrContractNotFound = errors.New("contract not found")

// Entry is a stored contract.
type Entry struct {
	Name    string         `json:"name"`
	Network string         `json:"network"`
	Address common.Address `json:"address"`
	ABI     *abi.ABI       `json:"abi"`
	Source  string         `json:"source,omitempty"` // where the ABI came from
}

// Bind returns a binding factory for the entry's ABI at its address.
func (e *Entry) Bind(opts ...binding.Option) *binding.Factory {
	return binding.New(e.ABI, append([]binding.Option{binding.WithAddress(e.Address)}, opts...)...)
}

// Registry stores and retrieves contract entries.
type Registry struct {
	path      string
	contracts map[string]*Entry // key: "name@network"
}

// NewRegistry creates a Registry backed by a JSON file.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:      path,
		contracts: make(map[string]*Entry),
	}
}

// Path returns the backing file.
func (r *Registry) Path() string { return r.path }

// Load reads stored contracts from disk. A missing file is an empty registry.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", r.path, err)
	}

	for _, e := range entries {
		if e.ABI == nil {
			return fmt.Errorf("parsing %s: contract %s has no ABI", r.path, key(e.Name, e.Network))
		}
		r.contracts[key(e.Name, e.Network)] = e
	}
	return nil
}

// Save writes all contracts to disk.
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r.All(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}

// Add adds or updates a contract entry.
func (r *Registry) Add(e *Entry) error {
	if e.Name == "" {
		return errors.New("contract name is required")
	}
	if e.ABI == nil {
		return fmt.Errorf("contract %s: ABI is required", e.Name)
	}
	r.contracts[key(e.Name, e.Network)] = e
	return nil
}

// Get returns a contract by name and network.
func (r *Registry) Get(name, network string) (*Entry, error) {
	e, ok := r.contracts[key(name, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrContractNotFound, name, network)
	}
	return e, nil
}

// GetByName returns all entries for a contract name across all networks.
func (r *Registry) GetByName(name string) []*Entry {
	var out []*Entry
	for _, e := range r.All() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// All returns all registered contracts sorted by name, then network.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, 0, len(r.contracts))
	for _, e := range r.contracts {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Network < out[j].Network
	})
	return out
}

// Remove deletes a contract entry.
func (r *Registry) Remove(name, network string) error {
	k := key(name, network)
	if _, ok := r.contracts[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrContractNotFound, name, network)
	}
	delete(r.contracts, k)
	return nil
}

func key(name, network string) string {
	return name + "@" + network
}
