// Package rpc chooses among the public endpoints a network publishes.
package rpc

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint can be used.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an endpoint is chosen.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// ParseAlgorithm validates an algorithm name. "" means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFastest, nil
	case AlgorithmFastest, AlgorithmFailover:
		return a, nil
	}
	return "", fmt.Errorf("unknown rpc algorithm %q (use fastest or failover)", s)
}

// Endpoint is one RPC endpoint with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // meaningful only when Checked
	Checked     bool // false for endpoints that were not probed
	Err         error
}

// Pick chooses an endpoint. Fastest scores probed endpoints by latency and
// head freshness; failover takes the first endpoint in order that is not
// known to be down.
func Pick(algo Algorithm, endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}
	if algo == AlgorithmFailover {
		for i := range endpoints {
			if e := &endpoints[i]; !e.Checked || e.Healthy {
				return e, nil
			}
		}
		return nil, ErrNoHealthyRPC
	}
	return pickFastest(endpoints)
}

func pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	var bestBlock uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var (
		winner    *Endpoint
		bestScore float64
	)
	for _, e := range candidates(endpoints) {
		if bestBlock > 0 && e.Checked && bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, bestBlock); winner == nil || s > bestScore {
			winner, bestScore = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}
	return winner, nil
}

// score is higher for faster endpoints closer to the best head.
func score(e *Endpoint, bestBlock uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}
	if bestBlock > 0 && e.Checked {
		s += float64(10 - int64(bestBlock-e.BlockNumber))
	}
	return s
}

// candidates returns the healthy endpoints, or every endpoint when none was
// probed.
func candidates(endpoints []Endpoint) []*Endpoint {
	var out []*Endpoint
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			out = append(out, e)
		}
	}
	return out
}
