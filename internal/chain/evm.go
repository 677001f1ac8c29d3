package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultPollInterval = 4 * time.Second

	// maxLogRange caps the block span of one eth_getLogs poll.
	maxLogRange = 2000
)

// EVMClient is a go-ethereum client over HTTP. HTTP has no push
// notifications, so log subscriptions are served by polling eth_getLogs.
type EVMClient struct {
	*ethclient.Client

	logger       hclog.Logger
	pollInterval time.Duration
	httpClient   *http.Client
}

// ClientOption configures an EVMClient.
type ClientOption func(*EVMClient)

// WithHTTPClient replaces the default client, which times out after 15s.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *EVMClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPollInterval sets how often log subscriptions poll for new blocks.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *EVMClient) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger sets the logger for subscription tracing.
func WithLogger(l hclog.Logger) ClientOption {
	return func(c *EVMClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// DialHTTP creates a client for the HTTP(S) endpoint url. No request is made
// until the first call.
func DialHTTP(ctx context.Context, url string, opts ...ClientOption) (*EVMClient, error) {
	c := &EVMClient{
		logger:       hclog.NewNullLogger(),
		pollInterval: defaultPollInterval,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	c.Client = ethclient.NewClient(rc)
	return c, nil
}

// SubscribeFilterLogs streams logs matching q from blocks mined after the call
// (or from q.FromBlock when set) by polling eth_getLogs. The first failed poll
// ends the subscription with that error; nothing is retried.
func (c *EVMClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	var next uint64
	if q.FromBlock != nil {
		next = q.FromBlock.Uint64()
	} else {
		head, err := c.BlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		next = head + 1
	}
	c.logger.Debug("polling logs", "from", next, "interval", c.pollInterval)

	return event.NewSubscription(func(quit <-chan struct{}) error {
		pollCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-quit:
				cancel()
			case <-pollCtx.Done():
			}
		}()

		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return nil
			case <-ticker.C:
			}

			head, err := c.BlockNumber(pollCtx)
			if err != nil {
				if pollCtx.Err() != nil {
					return nil
				}
				return fmt.Errorf("polling head: %w", err)
			}
			for next <= head {
				to := min(head, next+maxLogRange-1)
				if q.ToBlock != nil && to > q.ToBlock.Uint64() {
					to = q.ToBlock.Uint64()
				}
				page := q
				page.FromBlock = new(big.Int).SetUint64(next)
				page.ToBlock = new(big.Int).SetUint64(to)
				logs, err := c.FilterLogs(pollCtx, page)
				if err != nil {
					if pollCtx.Err() != nil {
						return nil
					}
					return fmt.Errorf("polling logs %d-%d: %w", next, to, err)
				}
				c.logger.Trace("polled logs", "from", next, "to", to, "count", len(logs))
				for _, l := range logs {
					select {
					case ch <- l:
					case <-quit:
						return nil
					}
				}
				next = to + 1
				if q.ToBlock != nil && next > q.ToBlock.Uint64() {
					return nil
				}
			}
		}
	}), nil
}
