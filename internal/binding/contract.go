package binding

import (
	"context"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	lru "github.com/hashicorp/golang-lru"
)

// Contract exposes the whole ABI, taking the member per call. Resolutions
// are cached, so repeated calls skip the lookup.
type Contract struct {
	f     *Factory
	cache *lru.Cache
}

type cacheKey struct {
	op     string
	member string
}

// Bind returns the dynamic surface of the whole ABI.
func (f *Factory) Bind() *Contract {
	cache, err := lru.New(f.cacheSize)
	if err != nil {
		// Only a non-positive size fails, and WithCacheSize rejects those.
		panic(err)
	}
	return &Contract{f: f, cache: cache}
}

// Factory returns the underlying factory.
func (c *Contract) Factory() *Factory { return c.f }

func (c *Contract) bound(op, member string, bind func(string) (any, error)) (any, error) {
	key := cacheKey{op: op, member: member}
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := bind(member)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

// Read calls a view or pure member.
func (c *Contract) Read(ctx context.Context, member string, opts *CallOpts, args ...any) (*Result, error) {
	v, err := c.bound(OpRead, member, func(m string) (any, error) { return c.f.BindRead(m) })
	if err != nil {
		return nil, err
	}
	return v.(*Reader).Call(ctx, opts, args...)
}

// Send submits a transaction to a nonpayable or payable member.
func (c *Contract) Send(ctx context.Context, member string, opts *TransactOpts, args ...any) (*Handle, error) {
	v, err := c.bound(OpWrite, member, func(m string) (any, error) { return c.f.BindWrite(m) })
	if err != nil {
		return nil, err
	}
	return v.(*Writer).Send(ctx, opts, args...)
}

// Simulate dry-runs any function member.
func (c *Contract) Simulate(ctx context.Context, member string, opts *TransactOpts, args ...any) (*Simulation, error) {
	v, err := c.bound(OpSimulate, member, func(m string) (any, error) { return c.f.BindSimulate(m) })
	if err != nil {
		return nil, err
	}
	return v.(*Simulator).Simulate(ctx, opts, args...)
}

// Watch subscribes to an event member.
func (c *Contract) Watch(ctx context.Context, member string, match ...[]any) (*Subscription, error) {
	v, err := c.bound(OpWatch, member, func(m string) (any, error) { return c.f.BindWatch(m) })
	if err != nil {
		return nil, err
	}
	return v.(*Watcher).Watch(ctx, match...)
}

// Members lists the members of kind.
func (c *Contract) Members(kind abi.Kind) []abi.Entry {
	return c.f.abi.Members(kind)
}
