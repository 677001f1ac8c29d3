package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/Mohsinsiddi/w3bind/internal/chain"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/contract"
	"github.com/Mohsinsiddi/w3bind/internal/ens"
	"github.com/Mohsinsiddi/w3bind/internal/rpc"
	"github.com/Mohsinsiddi/w3bind/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

// newLogger builds the CLI logger. -v wins over --log-level, which wins
// over the config file.
func newLogger(out io.Writer) hclog.Logger {
	level := cfg.Level()
	if logLevel != "" {
		level = hclog.LevelFromString(logLevel)
	}
	if verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "w3bind",
		Level:  level,
		Output: out,
	})
}

var chainRegistry = sync.OnceValue(chain.NewRegistry)

// activeNetwork is --network, else the configured default.
func activeNetwork() string {
	if networkFlag != "" {
		return strings.ToLower(networkFlag)
	}
	return cfg.DefaultNetwork
}

// resolveEndpoint picks the RPC endpoint: --rpc, then a custom network from
// config, then the best of the built-in endpoints for the current mode.
func resolveEndpoint(ctx context.Context, network string, l hclog.Logger) (string, error) {
	if rpcFlag != "" {
		return rpcFlag, nil
	}
	if n, ok := cfg.Network(network); ok {
		return n.RPCURL, nil
	}
	n, err := chainRegistry().GetByName(network)
	if err != nil {
		return "", fmt.Errorf("%w (add one with: w3bind config set-network %s <rpc-url>)", err, network)
	}
	rpcs := n.RPCs(cfg.NetworkMode)
	if len(rpcs) == 0 {
		return "", fmt.Errorf("no %s RPC endpoint known for %s, pass --rpc", cfg.NetworkMode, network)
	}
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return "", err
	}
	return rpc.NewSelector(algo, rpc.WithLogger(l.Named("rpc"))).Select(ctx, rpcs)
}

// dial connects to the active network.
func dial(ctx context.Context, l hclog.Logger) (chain.Backend, error) {
	network := activeNetwork()
	endpoint, err := resolveEndpoint(ctx, network, l)
	if err != nil {
		return nil, err
	}
	l.Debug("dialing", "network", network, "endpoint", endpoint)
	return chain.Dial(ctx, endpoint,
		chain.WithLogger(l.Named("rpc")),
		chain.WithPollInterval(cfg.Poll()),
	)
}

// txURL links hash on the active network's explorer, or returns "".
func txURL(hash string) string {
	n, err := chainRegistry().GetByName(activeNetwork())
	if err != nil {
		return ""
	}
	return n.TxURL(cfg.NetworkMode, hash)
}

func newFetcher() (*contract.Fetcher, error) {
	builtins, err := contract.LoadBuiltins()
	if err != nil {
		return nil, err
	}
	return contract.NewFetcher(builtins, cfg.ExplorerAPIKey), nil
}

func openRegistry() (*contract.Registry, error) {
	reg := contract.NewRegistry(cfg.ContractsPath())
	if err := reg.Load(); err != nil {
		return nil, fmt.Errorf("loading contracts: %w", err)
	}
	return reg, nil
}

// lookupContract finds a registered contract on the active network, falling
// back to the only entry with that name on any network.
func lookupContract(name string) (*contract.Entry, error) {
	reg, err := openRegistry()
	if err != nil {
		return nil, err
	}
	e, err := reg.Get(name, activeNetwork())
	if err == nil {
		return e, nil
	}
	if all := reg.GetByName(name); len(all) == 1 {
		return all[0], nil
	}
	return nil, err
}

// target is what a command operates on: an ABI, optionally an address, and
// the member named on the command line with its raw arguments.
type target struct {
	ABI     *abi.ABI
	Address common.Address
	HasAddr bool
	Label   string // contract name or address, for display
	Member  string
	Args    []string
}

var errNoABI = errors.New("no ABI: pass --abi <file|url|builtin:id> or --contract <name>")

// resolveTarget interprets args as "[address] <member> [args...]". With
// --contract the address comes from the registry and args start at the
// member; a leading "-" placeholder is accepted and skipped.
func resolveTarget(ctx context.Context, args []string, needAddress bool) (*target, error) {
	t, rest, err := resolveSource(ctx, args, needAddress)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, errors.New("member name or signature required")
	}
	t.Member, t.Args = rest[0], rest[1:]
	return t, nil
}

// resolveSource loads the ABI and address and returns the unconsumed args.
func resolveSource(ctx context.Context, args []string, needAddress bool) (*target, []string, error) {
	t := &target{}
	if contractFlag != "" {
		e, err := lookupContract(contractFlag)
		if err != nil {
			return nil, nil, err
		}
		t.ABI, t.Address, t.HasAddr, t.Label = e.ABI, e.Address, true, e.Name
		if len(args) > 0 && args[0] == "-" {
			args = args[1:]
		}
	} else if needAddress && len(args) > 0 && args[0] == "-" {
		// No contract; the binding layer rejects this for everything but
		// event queries.
		t.Label = "any contract"
		args = args[1:]
	} else if needAddress {
		if len(args) == 0 {
			return nil, nil, errors.New("contract address required")
		}
		addr, err := resolveAddress(ctx, args[0])
		if err != nil {
			return nil, nil, err
		}
		t.Address, t.HasAddr = addr, true
		t.Label = addr.Hex()
		if ens.IsName(args[0]) {
			t.Label = args[0] + " (" + addr.Hex() + ")"
		}
		args = args[1:]
	}

	if abiFlag != "" {
		f, err := newFetcher()
		if err != nil {
			return nil, nil, err
		}
		parsed, err := f.Load(ctx, abiFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("loading ABI: %w", err)
		}
		t.ABI = parsed
	}
	if t.ABI == nil {
		return nil, nil, errNoABI
	}
	return t, args, nil
}

// resolveAddress accepts a hex address or an ENS name, resolved on the
// active network.
func resolveAddress(ctx context.Context, s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	if !ens.IsName(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	backend, err := dial(ctx, logger)
	if err != nil {
		return common.Address{}, err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(ctx, config.RPCTimeout)
	defer cancel()
	return ens.NewResolver(backend, logger.Named("ens")).Resolve(ctx, s)
}

// factory binds t with the CLI's logger and config defaults.
func (t *target) factory(l hclog.Logger, tr binding.Transport, extra ...binding.Option) *binding.Factory {
	opts := []binding.Option{
		binding.WithLogger(l),
		binding.WithGasFallback(cfg.GasLimitFallback),
	}
	if t.HasAddr {
		opts = append(opts, binding.WithAddress(t.Address))
	}
	if tr != nil {
		opts = append(opts, binding.WithTransport(tr))
	}
	return binding.New(t.ABI, append(opts, extra...)...)
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.OpenKeystore(cfg.KeyringDir())),
	)
}

// pickWallet returns the named wallet, else the configured default, else
// the manager's default.
func pickWallet(mgr *wallet.Manager, name string) (*wallet.Wallet, error) {
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name != "" {
		return mgr.Get(name)
	}
	if w := mgr.Default(); w != nil {
		return w, nil
	}
	return nil, errors.New("no wallet selected: pass --wallet or run: w3bind wallet import <name>")
}

// valuePairs renders decoded values as key/value rows labelled by name and
// type, falling back to the position for unnamed values.
func valuePairs(params []abi.Param, values []any) [][2]string {
	pairs := make([][2]string, len(values))
	for i, v := range values {
		label := fmt.Sprintf("[%d]", i)
		if i < len(params) {
			if params[i].Name != "" {
				label = params[i].Name
			}
			label += " (" + params[i].Type.String() + ")"
		}
		pairs[i] = [2]string{label, codec.Format(v)}
	}
	return pairs
}
