package binding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// errSubscriptionClosed is reported when the transport ends a stream without
// saying why.
var errSubscriptionClosed = errors.New("subscription closed by transport")

// Event is one decoded log.
type Event struct {
	Name      string
	Signature string
	Values    []any // every input in declaration order
	Names     []string
	Log       types.Log
}

// Get returns the input called name.
func (e *Event) Get(name string) (any, bool) {
	for i, n := range e.Names {
		if n == name && n != "" {
			return e.Values[i], true
		}
	}
	return nil, false
}

// Delivery is one item of an event stream: either a decoded event or the
// error that prevented decoding that single log.
type Delivery struct {
	Event *Event
	Err   error
}

// EventFilter is the address and topic constraint of a subscription. A nil
// Address matches logs from any contract.
type EventFilter struct {
	Address *common.Address
	Topics  [][]common.Hash
}

// Query renders the filter for a block range. nil bounds are open.
func (f EventFilter) Query(from, to *big.Int) ethereum.FilterQuery {
	q := ethereum.FilterQuery{
		Topics:    f.Topics,
		FromBlock: from,
		ToBlock:   to,
	}
	if f.Address != nil {
		q.Addresses = []common.Address{*f.Address}
	}
	return q
}

func (f EventFilter) source() string {
	if f.Address == nil {
		return "any"
	}
	return f.Address.Hex()
}

// Watcher filters, decodes and streams one event.
type Watcher struct {
	f     *Factory
	entry abi.Entry
}

// Entry returns the bound event.
func (w *Watcher) Entry() abi.Entry { return w.entry }

// Filter builds the topic filter. match holds one slot per indexed input in
// declaration order; an empty slot is a wildcard and several values in a slot
// match any of them.
func (w *Watcher) Filter(match ...[]any) (EventFilter, error) {
	member := w.entry.Signature()
	indexed := w.entry.Indexed()
	if len(match) > len(indexed) {
		return EventFilter{}, &CallError{Op: OpWatch, Member: member, Stage: ErrEncodingFailed,
			Err: fmt.Errorf("%w: %d match slots for %d indexed inputs", codec.ErrTypeMismatch, len(match), len(indexed))}
	}

	var topics [][]common.Hash
	if topic, ok := w.entry.Topic(); ok {
		topics = append(topics, []common.Hash{topic})
	}
	for i, slot := range match {
		var hashes []common.Hash
		for _, v := range slot {
			h, err := codec.TopicValue(indexed[i].Type, v)
			if err != nil {
				return EventFilter{}, &CallError{Op: OpWatch, Member: member, Stage: ErrEncodingFailed,
					Err: fmt.Errorf("indexed input %d (%s): %w", i, indexed[i].Name, err)}
			}
			hashes = append(hashes, h)
		}
		topics = append(topics, hashes)
	}
	for len(topics) > 0 && len(topics[len(topics)-1]) == 0 {
		topics = topics[:len(topics)-1]
	}
	filter := EventFilter{Topics: topics}
	if w.f.hasAddress() {
		addr := w.f.address
		filter.Address = &addr
	}
	return filter, nil
}

// Decode decodes a log of this event: indexed inputs from the topics, the
// rest from the data.
func (w *Watcher) Decode(log types.Log) (*Event, error) {
	topics := log.Topics
	if topic, ok := w.entry.Topic(); ok {
		if len(topics) == 0 || topics[0] != topic {
			return nil, fmt.Errorf("%w: log is not a %s", ErrDecodeFailed, w.entry.Signature())
		}
		topics = topics[1:]
	}
	indexed := w.entry.Indexed()
	if len(topics) != len(indexed) {
		return nil, fmt.Errorf("%w: %s has %d indexed inputs, log has %d topics", ErrDecodeFailed, w.entry.Signature(), len(indexed), len(topics))
	}

	data, err := codec.DecodeArgs(w.entry.NonIndexed(), log.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %w", ErrDecodeFailed, err)
	}

	ev := &Event{
		Name:      w.entry.Name,
		Signature: w.entry.Signature(),
		Values:    make([]any, len(w.entry.Inputs)),
		Names:     make([]string, len(w.entry.Inputs)),
		Log:       log,
	}
	ti, di := 0, 0
	for i, p := range w.entry.Inputs {
		ev.Names[i] = p.Name
		if !p.Indexed {
			ev.Values[i] = data[di]
			di++
			continue
		}
		v, err := codec.DecodeTopic(p.Type, topics[ti])
		if err != nil {
			return nil, fmt.Errorf("%w: topic %d: %w", ErrDecodeFailed, ti, err)
		}
		ev.Values[i] = v
		ti++
	}
	return ev, nil
}

func (w *Watcher) deliver(log types.Log) Delivery {
	ev, err := w.Decode(log)
	if err != nil {
		w.f.metrics.decodeFailed(w.entry.Name)
		w.f.logger.Warn("failed to decode log", "event", w.entry.Name, "tx", log.TxHash.Hex(), "index", log.Index, "error", err)
		return Delivery{Err: &CallError{Op: OpWatch, Member: w.entry.Signature(), Stage: ErrDecodingFailed, Err: err}}
	}
	return Delivery{Event: ev}
}

// Backfill fetches and decodes historical logs in [from, to]. A failed query
// is returned as an error; logs that fail to decode are returned as
// deliveries carrying the error.
func (w *Watcher) Backfill(ctx context.Context, from, to *big.Int, match ...[]any) (out []Delivery, err error) {
	member := w.entry.Signature()
	start := time.Now()
	defer func() { w.f.done(OpWatch, member, start, err) }()

	if err := w.f.connected(OpWatch, member); err != nil {
		return nil, err
	}
	filter, err := w.Filter(match...)
	if err != nil {
		return nil, err
	}
	logs, err := w.f.transport.FilterLogs(ctx, filter.Query(from, to))
	if err != nil {
		return nil, &CallError{Op: OpWatch, Member: member, Stage: ErrTransportFailed, Err: err}
	}
	out = make([]Delivery, len(logs))
	for i, l := range logs {
		out[i] = w.deliver(l)
	}
	return out, nil
}

// Subscription is a live event stream. Deliveries arrive in the order the
// transport produced the logs.
type Subscription struct {
	id         string
	deliveries chan Delivery
	errc       chan error
	quit       chan struct{}
	done       chan struct{}
	once       sync.Once
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string { return s.id }

// Deliveries yields decoded events and per-log decode errors. It is closed
// when the stream ends.
func (s *Subscription) Deliveries() <-chan Delivery { return s.deliveries }

// Err yields at most one terminal error, such as a lost connection, and is
// closed when the stream ends. The stream is never resubscribed.
func (s *Subscription) Err() <-chan error { return s.errc }

// Unsubscribe stops the stream. It does not wait for the consumer; once it
// returns nothing more is delivered.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

// Watch subscribes to new logs of this event. The stream ends on
// Unsubscribe, when ctx is done, or on a transport error reported on Err.
func (w *Watcher) Watch(ctx context.Context, match ...[]any) (*Subscription, error) {
	member := w.entry.Signature()
	if err := w.f.connected(OpWatch, member); err != nil {
		return nil, err
	}
	filter, err := w.Filter(match...)
	if err != nil {
		return nil, err
	}

	logs := make(chan types.Log, 64)
	upstream, err := w.f.transport.SubscribeFilterLogs(ctx, filter.Query(nil, nil), logs)
	if err != nil {
		return nil, &CallError{Op: OpWatch, Member: member, Stage: ErrTransportFailed, Err: err}
	}

	s := &Subscription{
		id:         uuid.NewString(),
		deliveries: make(chan Delivery),
		errc:       make(chan error, 1),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	w.f.metrics.subscriptionStarted()
	w.f.logger.Info("subscription started", "id", s.id, "event", member, "address", filter.source())

	go w.pump(ctx, s, upstream, logs)
	return s, nil
}

func (w *Watcher) pump(ctx context.Context, s *Subscription, upstream ethereum.Subscription, logs <-chan types.Log) {
	member := w.entry.Signature()
	defer func() {
		upstream.Unsubscribe()
		close(s.deliveries)
		close(s.errc)
		w.f.metrics.subscriptionStopped()
		w.f.logger.Info("subscription stopped", "id", s.id, "event", member)
		close(s.done)
	}()

	for {
		select {
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		case err, ok := <-upstream.Err():
			if ctx.Err() != nil {
				return
			}
			if !ok || err == nil {
				err = errSubscriptionClosed
			}
			w.f.logger.Warn("subscription failed", "id", s.id, "event", member, "error", err)
			s.errc <- &CallError{Op: OpWatch, Member: member, Stage: ErrTransportFailed, Err: err}
			return
		case l := <-logs:
			d := w.deliver(l)
			select {
			case s.deliveries <- d:
			case <-s.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
