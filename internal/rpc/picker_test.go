package rpc_test

import (
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checked builds an endpoint that has been probed.
func checked(url string, latency time.Duration, block uint64, healthy bool) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Latency: latency, BlockNumber: block, Healthy: healthy, Checked: true}
}

func TestPickFastest(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://slow.rpc", 200*time.Millisecond, 100, true),
		checked("http://fast.rpc", 30*time.Millisecond, 100, true),
		checked("http://medium.rpc", 80*time.Millisecond, 100, true),
	}
	winner, err := rpc.Pick(rpc.AlgorithmFastest, endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://fast.rpc", winner.URL)
}

func TestPickDiscardsStaleNodes(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://fresh.rpc", 50*time.Millisecond, 1000, true),
		checked("http://stale.rpc", 10*time.Millisecond, 990, true),
	}
	winner, err := rpc.Pick(rpc.AlgorithmFastest, endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://fresh.rpc", winner.URL, "stale node should be discarded even if faster")
}

func TestPickSkipsUnhealthy(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://down.rpc", time.Millisecond, 0, false),
		checked("http://up.rpc", 90*time.Millisecond, 100, true),
	}
	winner, err := rpc.Pick(rpc.AlgorithmFastest, endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://up.rpc", winner.URL)
}

func TestPickFailover(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://primary", 0, 100, false),
		checked("http://secondary", 90*time.Millisecond, 100, true),
		checked("http://tertiary", 10*time.Millisecond, 100, true),
	}
	winner, err := rpc.Pick(rpc.AlgorithmFailover, endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://secondary", winner.URL, "failover keeps list order, not speed")
}

func TestPickUncheckedAreCandidates(t *testing.T) {
	endpoints := []rpc.Endpoint{
		{URL: "wss://only.rpc"},
		checked("http://down.rpc", time.Millisecond, 0, false),
	}
	for _, algo := range []rpc.Algorithm{rpc.AlgorithmFastest, rpc.AlgorithmFailover} {
		winner, err := rpc.Pick(algo, endpoints)
		require.NoError(t, err, algo)
		assert.Equal(t, "wss://only.rpc", winner.URL, algo)
	}
}

func TestPickErrors(t *testing.T) {
	all := []rpc.Endpoint{
		checked("http://rpc1", 100*time.Millisecond, 0, false),
		checked("http://rpc2", 200*time.Millisecond, 0, false),
	}
	for _, algo := range []rpc.Algorithm{rpc.AlgorithmFastest, rpc.AlgorithmFailover} {
		_, err := rpc.Pick(algo, all)
		assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
		_, err = rpc.Pick(algo, nil)
		assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    rpc.Algorithm
		wantErr bool
	}{
		{"", rpc.AlgorithmFastest, false},
		{"fastest", rpc.AlgorithmFastest, false},
		{"failover", rpc.AlgorithmFailover, false},
		{"round-robin", "", true},
	}
	for _, tt := range tests {
		got, err := rpc.ParseAlgorithm(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
