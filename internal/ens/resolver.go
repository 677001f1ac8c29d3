// Package ens resolves ENS names through the read pipeline.
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

// RegistryAddress is the ENS registry, the same on Ethereum mainnet and Sepolia.
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// ErrNotFound is returned when a name or address has no record.
var ErrNotFound = errors.New("ens: no record")

const registryJSON = `[
  {"type":"function","name":"resolver","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}
]`

const resolverJSON = `[
  {"type":"function","name":"addr","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"name","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]}
]`

var (
	registryABI = mustParse(registryJSON)
	resolverABI = mustParse(resolverJSON)
)

func mustParse(s string) *abi.ABI {
	a, err := abi.Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return a
}

// Resolver looks up forward and reverse records.
type Resolver struct {
	tr       binding.Transport
	registry *binding.Contract
	logger   hclog.Logger
}

// NewResolver creates a Resolver against the registry at RegistryAddress.
func NewResolver(tr binding.Transport, logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{
		tr:       tr,
		registry: bind(registryABI, RegistryAddress, tr, logger),
		logger:   logger,
	}
}

func bind(a *abi.ABI, addr common.Address, tr binding.Transport, l hclog.Logger) *binding.Contract {
	return binding.New(a, binding.WithAddress(addr), binding.WithTransport(tr), binding.WithLogger(l)).Bind()
}

// Resolve returns the address a name points to. Names are lowercased before
// hashing; full UTS-46 normalisation is not applied.
func (r *Resolver) Resolve(ctx context.Context, name string) (common.Address, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	node := Namehash(name)

	res, err := r.resolverFor(ctx, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", name, err)
	}
	out, err := res.Read(ctx, "addr", nil, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS resolver: %w", err)
	}
	addr, err := binding.ResultValue[common.Address](out, 0)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no address record for %q", ErrNotFound, name)
	}
	r.logger.Debug("resolved ENS name", "name", name, "address", addr)
	return addr, nil
}

// ReverseLookup returns the primary name recorded for addr.
func (r *Resolver) ReverseLookup(ctx context.Context, addr common.Address) (string, error) {
	node := Namehash(strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x")) + ".addr.reverse")

	res, err := r.resolverFor(ctx, node)
	if err != nil {
		return "", fmt.Errorf("%s: %w", addr.Hex(), err)
	}
	out, err := res.Read(ctx, "name", nil, node)
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	name, err := binding.ResultValue[string](out, 0)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("%w: no reverse name for %s", ErrNotFound, addr.Hex())
	}
	return name, nil
}

func (r *Resolver) resolverFor(ctx context.Context, node common.Hash) (*binding.Contract, error) {
	out, err := r.registry.Read(ctx, "resolver", nil, node)
	if err != nil {
		return nil, fmt.Errorf("querying ENS registry: %w", err)
	}
	addr, err := binding.ResultValue[common.Address](out, 0)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%w: no resolver set", ErrNotFound)
	}
	return bind(resolverABI, addr, r.tr, r.logger), nil
}

// Namehash implements the EIP-137 namehash algorithm.
// namehash("") = 0x00...00
// namehash("eth") = keccak256(namehash("") + keccak256("eth"))
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = common.BytesToHash(abi.Keccak256(node[:], abi.Keccak256([]byte(labels[i]))))
	}
	return node
}

// IsName reports whether s looks like an ENS name rather than a hex address.
func IsName(s string) bool {
	if common.IsHexAddress(s) || strings.HasPrefix(s, "0x") {
		return false
	}
	i := strings.LastIndexByte(s, '.')
	return i > 0 && i < len(s)-1
}
