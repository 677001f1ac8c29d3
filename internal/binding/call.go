package binding

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// BoundCall is one resolved and encoded request. It is built per invocation
// and never shared.
type BoundCall struct {
	To       common.Address
	Entry    abi.Entry
	Selector [4]byte
	Payload  []byte
	Outputs  []abi.Param
}

// Calldata returns selector followed by payload.
func (c BoundCall) Calldata() []byte {
	out := make([]byte, 0, 4+len(c.Payload))
	out = append(out, c.Selector[:]...)
	return append(out, c.Payload...)
}

// Result holds decoded values in declaration order.
type Result struct {
	Values []any
	Names  []string
}

// Len returns the number of values.
func (r *Result) Len() int { return len(r.Values) }

// Get returns the value of the output or input called name.
func (r *Result) Get(name string) (any, bool) {
	for i, n := range r.Names {
		if n == name && n != "" {
			return r.Values[i], true
		}
	}
	return nil, false
}

// ResultValue returns value i of r converted to T.
func ResultValue[T any](r *Result, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(r.Values) {
		return zero, fmt.Errorf("result has %d values, index %d out of range", len(r.Values), i)
	}
	v, ok := r.Values[i].(T)
	if !ok {
		return zero, fmt.Errorf("result value %d is %T, not %T", i, r.Values[i], zero)
	}
	return v, nil
}

func decodeResult(op, member string, params []abi.Param, data []byte) (*Result, error) {
	values, err := codec.DecodeArgs(params, data)
	if err != nil {
		return nil, &CallError{Op: op, Member: member, Stage: ErrDecodingFailed, Err: err}
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return &Result{Values: values, Names: names}, nil
}

// CallOpts tunes a read.
type CallOpts struct {
	From        common.Address
	BlockNumber *big.Int // nil for latest
}

// Reader calls one view or pure function.
type Reader struct {
	f     *Factory
	entry abi.Entry
}

// Entry returns the bound member.
func (r *Reader) Entry() abi.Entry { return r.entry }

// Call encodes args, executes the call and decodes the outputs. opts may be
// nil.
func (r *Reader) Call(ctx context.Context, opts *CallOpts, args ...any) (res *Result, err error) {
	member := r.entry.Signature()
	start := time.Now()
	defer func() { r.f.done(OpRead, member, start, err) }()

	if err := r.f.ready(OpRead, member); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &CallOpts{}
	}

	call, err := r.f.prepare(OpRead, member, r.entry, args)
	if err != nil {
		return nil, err
	}
	r.f.logger.Debug("dispatching call", "op", OpRead, "member", member, "selector", fmt.Sprintf("%x", call.Selector), "payload", len(call.Payload))

	out, err := r.f.transport.CallContract(ctx, ethereum.CallMsg{
		From: opts.From,
		To:   &call.To,
		Data: call.Calldata(),
	}, opts.BlockNumber)
	if err != nil {
		return nil, r.f.dispatchError(OpRead, member, err)
	}
	if len(out) == 0 && len(call.Outputs) > 0 {
		return nil, &CallError{Op: OpRead, Member: member, Stage: ErrDecodingFailed,
			Err: fmt.Errorf("%w: empty return data, is there a contract at %s?", codec.ErrTruncatedData, call.To.Hex())}
	}
	return decodeResult(OpRead, member, call.Outputs, out)
}

// dispatchError classifies a transport error as a revert or a transport
// failure.
func (f *Factory) dispatchError(op, member string, err error) error {
	if re, ok := revertFromError(f.abi, err); ok {
		return &CallError{Op: op, Member: member, Stage: ErrReverted, Err: re}
	}
	return &CallError{Op: op, Member: member, Stage: ErrTransportFailed, Err: err}
}

// Simulation is the outcome of a successful dry run.
type Simulation struct {
	Result *Result
	Gas    uint64
	Call   BoundCall
}

// Simulator dry-runs one function of any mutability.
type Simulator struct {
	f     *Factory
	entry abi.Entry
}

// Entry returns the bound member.
func (s *Simulator) Entry() abi.Entry { return s.entry }

// Simulate executes the call as if it were sent by opts.From with opts.Value
// attached, without broadcasting anything. The encoding and value checks are
// those of Writer.Send. A revert is returned as a *CallError wrapping a
// *RevertError.
func (s *Simulator) Simulate(ctx context.Context, opts *TransactOpts, args ...any) (sim *Simulation, err error) {
	member := s.entry.Signature()
	start := time.Now()
	defer func() { s.f.done(OpSimulate, member, start, err) }()

	if err := s.f.ready(OpSimulate, member); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &TransactOpts{}
	}
	if err := checkValue(OpSimulate, member, s.entry, opts.Value); err != nil {
		return nil, err
	}

	call, err := s.f.prepare(OpSimulate, member, s.entry, args)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{
		From:  opts.From,
		To:    &call.To,
		Value: opts.Value,
		Data:  call.Calldata(),
	}
	s.f.logger.Debug("dispatching call", "op", OpSimulate, "member", member, "selector", fmt.Sprintf("%x", call.Selector), "payload", len(call.Payload))

	out, err := s.f.transport.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, s.f.dispatchError(OpSimulate, member, err)
	}
	res, err := decodeResult(OpSimulate, member, call.Outputs, out)
	if err != nil {
		return nil, err
	}

	gas, err := s.f.transport.EstimateGas(ctx, msg)
	if err != nil {
		return nil, s.f.dispatchError(OpSimulate, member, err)
	}
	return &Simulation{Result: res, Gas: gas, Call: call}, nil
}

// checkValue enforces the value rules of state-changing members: payable
// needs an explicit value (zero allowed), everything else must not carry one.
func checkValue(op, member string, entry abi.Entry, value *big.Int) error {
	switch {
	case value != nil && value.Sign() < 0:
		return &CallError{Op: op, Member: member, Stage: ErrEncodingFailed,
			Err: fmt.Errorf("%w: negative value %s", ErrInvalidValueForMutability, value)}
	case entry.Mutability == abi.Payable && value == nil:
		return &CallError{Op: op, Member: member, Stage: ErrEncodingFailed,
			Err: fmt.Errorf("%w: %s is payable and needs a value (use 0 to send none)", ErrInvalidValueForMutability, entry.Signature())}
	case entry.Mutability != abi.Payable && value != nil && value.Sign() != 0:
		return &CallError{Op: op, Member: member, Stage: ErrEncodingFailed,
			Err: fmt.Errorf("%w: %s is %s and cannot receive value", ErrInvalidValueForMutability, entry.Signature(), entry.Mutability)}
	}
	return nil
}
