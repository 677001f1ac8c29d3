// Package binding turns a contract ABI into callables: reads, transactions,
// dry runs and event subscriptions, each resolving its member once and doing
// the encode, dispatch and decode work per invocation.
package binding

import (
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

// Factory binds the members of one ABI. It holds configuration only and is
// safe for concurrent use.
type Factory struct {
	abi         *abi.ABI
	address     common.Address
	transport   Transport
	logger      hclog.Logger
	metrics     *Metrics
	gasFallback uint64
	cacheSize   int
}

// Option configures a Factory.
type Option func(*Factory)

// WithAddress sets the contract address calls are sent to. Without one,
// event watchers match logs from any contract.
func WithAddress(addr common.Address) Option {
	return func(f *Factory) { f.address = addr }
}

// WithTransport sets the chain connection. The factory never closes it.
func WithTransport(t Transport) Option {
	return func(f *Factory) { f.transport = t }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l hclog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics enables pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

// WithGasFallback sets the gas limit used when estimation fails without
// reverting. Zero disables the fallback.
func WithGasFallback(gas uint64) Option {
	return func(f *Factory) { f.gasFallback = gas }
}

// WithCacheSize bounds the resolution cache of Bind. Defaults to 128.
func WithCacheSize(n int) Option {
	return func(f *Factory) {
		if n > 0 {
			f.cacheSize = n
		}
	}
}

// New creates a factory for contractABI. The ABI is immutable, so the
// factory can be shared freely.
func New(contractABI *abi.ABI, opts ...Option) *Factory {
	f := &Factory{
		abi:       contractABI,
		logger:    hclog.NewNullLogger(),
		cacheSize: 128,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ABI returns the bound interface.
func (f *Factory) ABI() *abi.ABI { return f.abi }

// Address returns the configured contract address.
func (f *Factory) Address() common.Address { return f.address }

// resolve looks up member ("name" or "name(types)") of the given kind.
func (f *Factory) resolve(op string, kind abi.Kind, member string) (abi.Entry, error) {
	name, sig := abi.ParseMember(member)
	entry, err := f.abi.Resolve(kind, name, sig)
	if err != nil {
		return abi.Entry{}, &CallError{Op: op, Member: member, Stage: ErrResolutionFailed, Err: err}
	}
	return entry, nil
}

// BindRead binds a pure or view function.
func (f *Factory) BindRead(member string) (*Reader, error) {
	entry, err := f.resolve(OpRead, abi.KindFunction, member)
	if err != nil {
		return nil, err
	}
	if !entry.Mutability.ReadOnly() {
		return nil, &CallError{
			Op: OpRead, Member: member, Stage: ErrResolutionFailed,
			Err: fmt.Errorf("%w: %s is %s, read needs view or pure", ErrMutabilityMismatch, entry.Signature(), entry.Mutability),
		}
	}
	return &Reader{f: f, entry: entry}, nil
}

// BindWrite binds a nonpayable or payable function.
func (f *Factory) BindWrite(member string) (*Writer, error) {
	entry, err := f.resolve(OpWrite, abi.KindFunction, member)
	if err != nil {
		return nil, err
	}
	if entry.Mutability.ReadOnly() {
		return nil, &CallError{
			Op: OpWrite, Member: member, Stage: ErrResolutionFailed,
			Err: fmt.Errorf("%w: %s is %s and cannot be sent as a transaction", ErrMutabilityMismatch, entry.Signature(), entry.Mutability),
		}
	}
	return &Writer{f: f, entry: entry}, nil
}

// BindSimulate binds a function of any mutability for dry runs.
func (f *Factory) BindSimulate(member string) (*Simulator, error) {
	entry, err := f.resolve(OpSimulate, abi.KindFunction, member)
	if err != nil {
		return nil, err
	}
	return &Simulator{f: f, entry: entry}, nil
}

// BindWatch binds an event.
func (f *Factory) BindWatch(member string) (*Watcher, error) {
	entry, err := f.resolve(OpWatch, abi.KindEvent, member)
	if err != nil {
		return nil, err
	}
	return &Watcher{f: f, entry: entry}, nil
}

// PackCall resolves member and returns its calldata for args.
func (f *Factory) PackCall(member string, args ...any) ([]byte, error) {
	entry, err := f.resolve(OpSimulate, abi.KindFunction, member)
	if err != nil {
		return nil, err
	}
	call, err := f.prepare(OpSimulate, member, entry, args)
	if err != nil {
		return nil, err
	}
	return call.Calldata(), nil
}

// UnpackOutputs decodes return data of member.
func (f *Factory) UnpackOutputs(member string, data []byte) (*Result, error) {
	entry, err := f.resolve(OpRead, abi.KindFunction, member)
	if err != nil {
		return nil, err
	}
	return decodeResult(OpRead, member, entry.Outputs, data)
}

// UnpackInputs decodes calldata of member, with or without the selector.
func (f *Factory) UnpackInputs(member string, calldata []byte) (*Result, error) {
	entry, err := f.resolve(OpRead, abi.KindFunction, member)
	if err != nil {
		return nil, err
	}
	sel := entry.Selector()
	if len(calldata) >= 4 && string(calldata[:4]) == string(sel[:]) {
		calldata = calldata[4:]
	}
	return decodeResult(OpRead, member, entry.Inputs, calldata)
}

// prepare builds the BoundCall for one invocation. Every pipeline encodes
// through here, so a simulation sends the exact calldata a write would.
func (f *Factory) prepare(op, member string, entry abi.Entry, args []any) (BoundCall, error) {
	payload, err := codec.EncodeArgs(entry.Inputs, args)
	if err != nil {
		return BoundCall{}, &CallError{Op: op, Member: member, Stage: ErrEncodingFailed, Err: err}
	}
	return BoundCall{
		To:       f.address,
		Entry:    entry,
		Selector: entry.Selector(),
		Payload:  payload,
		Outputs:  entry.Outputs,
	}, nil
}

// connected checks what every dispatch needs. Event queries stop here; the
// other pipelines also need an address, see ready.
func (f *Factory) connected(op, member string) error {
	if f.transport == nil {
		return fmt.Errorf("%s %s: %w", op, member, ErrNoTransport)
	}
	return nil
}

func (f *Factory) ready(op, member string) error {
	if err := f.connected(op, member); err != nil {
		return err
	}
	if !f.hasAddress() {
		return fmt.Errorf("%s %s: %w", op, member, ErrNoAddress)
	}
	return nil
}

func (f *Factory) hasAddress() bool { return f.address != (common.Address{}) }

func (f *Factory) done(op, member string, start time.Time, err error) {
	f.metrics.observe(op, start, err)
	if err != nil {
		f.logger.Debug("call failed", "op", op, "member", member, "error", err)
	}
}
