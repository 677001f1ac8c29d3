package binding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SignerFn signs tx on behalf of from. Signing happens outside this package.
type SignerFn func(from common.Address, tx *types.Transaction) (*types.Transaction, error)

// TransactOpts carries the sender and optional overrides for a transaction.
// Unset fields are filled from the transport.
type TransactOpts struct {
	From   common.Address
	Signer SignerFn
	Value  *big.Int // required (possibly zero) for payable members

	Nonce     *big.Int
	GasPrice  *big.Int // forces a legacy transaction
	GasFeeCap *big.Int
	GasTipCap *big.Int
	GasLimit  uint64

	NoSend bool // sign but do not broadcast
}

// Handle references a submitted transaction. The call's return value is not
// available; observe the outcome through receipts, events or reads.
type Handle struct {
	Hash common.Hash
	Tx   *types.Transaction
	Call BoundCall
	Sent bool
}

// Writer submits transactions to one nonpayable or payable function.
type Writer struct {
	f     *Factory
	entry abi.Entry
}

// Entry returns the bound member.
func (w *Writer) Entry() abi.Entry { return w.entry }

// Send encodes args, builds and signs a transaction and broadcasts it unless
// opts.NoSend is set.
func (w *Writer) Send(ctx context.Context, opts *TransactOpts, args ...any) (h *Handle, err error) {
	member := w.entry.Signature()
	start := time.Now()
	defer func() { w.f.done(OpWrite, member, start, err) }()

	if err := w.f.ready(OpWrite, member); err != nil {
		return nil, err
	}
	if opts == nil || opts.Signer == nil {
		return nil, &CallError{Op: OpWrite, Member: member, Stage: ErrSigningFailed, Err: ErrNoSigner}
	}
	if err := checkValue(OpWrite, member, w.entry, opts.Value); err != nil {
		return nil, err
	}
	if opts.Nonce != nil && !opts.Nonce.IsUint64() {
		return nil, &CallError{Op: OpWrite, Member: member, Stage: ErrEncodingFailed,
			Err: fmt.Errorf("nonce %s out of range", opts.Nonce)}
	}

	call, err := w.f.prepare(OpWrite, member, w.entry, args)
	if err != nil {
		return nil, err
	}

	tx, err := w.buildTx(ctx, member, opts, call)
	if err != nil {
		return nil, err
	}
	signed, err := opts.Signer(opts.From, tx)
	if err != nil {
		return nil, &CallError{Op: OpWrite, Member: member, Stage: ErrSigningFailed, Err: err}
	}

	h = &Handle{Hash: signed.Hash(), Tx: signed, Call: call}
	if opts.NoSend {
		return h, nil
	}
	w.f.logger.Debug("broadcasting transaction", "member", member, "hash", h.Hash.Hex(), "nonce", signed.Nonce(), "gas", signed.Gas())
	if err := w.f.transport.SendTransaction(ctx, signed); err != nil {
		return nil, w.f.dispatchError(OpWrite, member, err)
	}
	h.Sent = true
	return h, nil
}

// buildTx fills nonce, gas and pricing. A head with a base fee yields a
// dynamic fee transaction unless GasPrice forces a legacy one.
func (w *Writer) buildTx(ctx context.Context, member string, opts *TransactOpts, call BoundCall) (*types.Transaction, error) {
	t := w.f.transport
	fail := func(err error) error { return w.f.dispatchError(OpWrite, member, err) }

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	data := call.Calldata()

	var nonce uint64
	if opts.Nonce != nil {
		nonce = opts.Nonce.Uint64()
	} else {
		n, err := t.PendingNonceAt(ctx, opts.From)
		if err != nil {
			return nil, fail(fmt.Errorf("fetching nonce: %w", err))
		}
		nonce = n
	}

	var head *types.Header
	if opts.GasPrice == nil {
		h, err := t.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fail(fmt.Errorf("fetching head: %w", err))
		}
		head = h
	}

	if head != nil && head.BaseFee != nil {
		tip := opts.GasTipCap
		if tip == nil {
			suggested, err := t.SuggestGasTipCap(ctx)
			if err != nil {
				return nil, fail(fmt.Errorf("suggesting tip: %w", err))
			}
			tip = suggested
		}
		feeCap := opts.GasFeeCap
		if feeCap == nil {
			feeCap = new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		}
		if feeCap.Cmp(tip) < 0 {
			return nil, &CallError{Op: OpWrite, Member: member, Stage: ErrEncodingFailed,
				Err: fmt.Errorf("fee cap %s below tip %s", feeCap, tip)}
		}
		gas, err := w.gasLimit(ctx, member, opts, ethereum.CallMsg{
			From: opts.From, To: &call.To, GasFeeCap: feeCap, GasTipCap: tip, Value: value, Data: data,
		})
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.DynamicFeeTx{
			To: &call.To, Nonce: nonce, GasFeeCap: feeCap, GasTipCap: tip, Gas: gas, Value: value, Data: data,
		}), nil
	}

	price := opts.GasPrice
	if price == nil {
		suggested, err := t.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fail(fmt.Errorf("suggesting gas price: %w", err))
		}
		price = suggested
	}
	gas, err := w.gasLimit(ctx, member, opts, ethereum.CallMsg{
		From: opts.From, To: &call.To, GasPrice: price, Value: value, Data: data,
	})
	if err != nil {
		return nil, err
	}
	return types.NewTx(&types.LegacyTx{
		To: &call.To, Nonce: nonce, GasPrice: price, Gas: gas, Value: value, Data: data,
	}), nil
}

// gasLimit estimates gas unless opts sets it. A revert during estimation is
// final; other estimation failures fall back to the configured limit.
func (w *Writer) gasLimit(ctx context.Context, member string, opts *TransactOpts, msg ethereum.CallMsg) (uint64, error) {
	if opts.GasLimit != 0 {
		return opts.GasLimit, nil
	}
	gas, err := w.f.transport.EstimateGas(ctx, msg)
	if err == nil {
		return gas, nil
	}
	if re, ok := revertFromError(w.f.abi, err); ok {
		return 0, &CallError{Op: OpWrite, Member: member, Stage: ErrReverted, Err: re}
	}
	if w.f.gasFallback > 0 && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		w.f.logger.Warn("gas estimation failed, using fallback", "member", member, "fallback", w.f.gasFallback, "error", err)
		return w.f.gasFallback, nil
	}
	return 0, &CallError{Op: OpWrite, Member: member, Stage: ErrTransportFailed, Err: fmt.Errorf("estimating gas: %w", err)}
}
