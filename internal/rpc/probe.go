package rpc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/chain"
	"github.com/hashicorp/go-hclog"
)

const defaultProbeTimeout = 3 * time.Second

// ProbeFunc measures one endpoint: how long eth_blockNumber took and the
// head it reported.
type ProbeFunc func(ctx context.Context, url string) (time.Duration, uint64, error)

// ProbeEVM times eth_blockNumber over HTTP.
func ProbeEVM(ctx context.Context, url string) (time.Duration, uint64, error) {
	c, err := chain.DialHTTP(ctx, url)
	if err != nil {
		return 0, 0, err
	}
	defer c.Close()
	start := time.Now()
	head, err := c.BlockNumber(ctx)
	return time.Since(start), head, err
}

// Selector probes candidate endpoints in parallel and picks one.
type Selector struct {
	algo    Algorithm
	probe   ProbeFunc
	timeout time.Duration
	logger  hclog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithProbe replaces the probe, e.g. in tests.
func WithProbe(p ProbeFunc) Option { return func(s *Selector) { s.probe = p } }

// WithTimeout bounds each probe.
func WithTimeout(d time.Duration) Option { return func(s *Selector) { s.timeout = d } }

// WithLogger sets the logger probe results are reported to.
func WithLogger(l hclog.Logger) Option { return func(s *Selector) { s.logger = l } }

// NewSelector returns a selector using algo.
func NewSelector(algo Algorithm, opts ...Option) *Selector {
	s := &Selector{
		algo:    algo,
		probe:   ProbeEVM,
		timeout: defaultProbeTimeout,
		logger:  hclog.NewNullLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select returns the endpoint to use among urls. A single URL is returned
// without probing; only http(s) URLs are probed, others stay unchecked
// candidates.
func (s *Selector) Select(ctx context.Context, urls []string) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	winner, err := Pick(s.algo, s.Probe(ctx, urls))
	if err != nil {
		return "", err
	}
	s.logger.Debug("rpc selected", "url", winner.URL, "latency", winner.Latency, "algorithm", s.algo)
	return winner.URL, nil
}

// Probe measures every http(s) URL concurrently. Results keep the order of
// urls.
func (s *Selector) Probe(ctx context.Context, urls []string) []Endpoint {
	endpoints := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		endpoints[i].URL = u
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		wg.Add(1)
		go func(e *Endpoint) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			e.Latency, e.BlockNumber, e.Err = s.probe(pctx, e.URL)
			e.Checked, e.Healthy = true, e.Err == nil
			s.logger.Trace("rpc probed", "url", e.URL, "latency", e.Latency, "head", e.BlockNumber, "error", e.Err)
		}(&endpoints[i])
	}
	wg.Wait()
	return endpoints
}
