package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrNoEndpoint is returned by Dial for an empty URL.
var ErrNoEndpoint = errors.New("no RPC endpoint configured")

// Backend is a chain connection usable by the binding pipelines, plus the
// receipt and head lookups the CLI needs around them.
type Backend interface {
	binding.Transport
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Close()
}

var (
	_ Backend = (*EVMClient)(nil)
	_ Backend = (*ethclient.Client)(nil)
)

// Dial connects to endpoint. HTTP(S) endpoints use EVMClient, whose log
// subscriptions poll; websocket and IPC endpoints use the plain ethclient with
// native subscriptions. opts only apply to HTTP endpoints.
func Dial(ctx context.Context, endpoint string, opts ...ClientOption) (Backend, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return DialHTTP(ctx, endpoint, opts...)
	}
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return c, nil
}
