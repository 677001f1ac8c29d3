package rpc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	latency time.Duration
	head    uint64
	err     error
}

func fakeProbe(nodes map[string]fakeNode, calls *atomic.Int32) rpc.ProbeFunc {
	return func(_ context.Context, url string) (time.Duration, uint64, error) {
		calls.Add(1)
		n := nodes[url]
		return n.latency, n.head, n.err
	}
}

func TestSelectorPicksFastestHealthy(t *testing.T) {
	var calls atomic.Int32
	nodes := map[string]fakeNode{
		"https://a": {latency: 120 * time.Millisecond, head: 500},
		"https://b": {latency: 20 * time.Millisecond, head: 500},
		"https://c": {latency: 5 * time.Millisecond, err: errors.New("connection refused")},
	}
	s := rpc.NewSelector(rpc.AlgorithmFastest, rpc.WithProbe(fakeProbe(nodes, &calls)))

	url, err := s.Select(context.Background(), []string{"https://a", "https://b", "https://c"})
	require.NoError(t, err)
	assert.Equal(t, "https://b", url)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSelectorSingleURLIsNotProbed(t *testing.T) {
	var calls atomic.Int32
	s := rpc.NewSelector(rpc.AlgorithmFastest, rpc.WithProbe(fakeProbe(nil, &calls)))

	url, err := s.Select(context.Background(), []string{"https://only"})
	require.NoError(t, err)
	assert.Equal(t, "https://only", url)
	assert.Zero(t, calls.Load())

	_, err = s.Select(context.Background(), nil)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestSelectorProbeKeepsOrderAndSkipsSockets(t *testing.T) {
	var calls atomic.Int32
	nodes := map[string]fakeNode{"https://a": {latency: time.Millisecond, head: 7}}
	s := rpc.NewSelector(rpc.AlgorithmFailover, rpc.WithProbe(fakeProbe(nodes, &calls)))

	eps := s.Probe(context.Background(), []string{"wss://ws", "https://a"})
	require.Len(t, eps, 2)
	assert.Equal(t, "wss://ws", eps[0].URL)
	assert.False(t, eps[0].Checked)
	assert.True(t, eps[1].Checked)
	assert.True(t, eps[1].Healthy)
	assert.Equal(t, uint64(7), eps[1].BlockNumber)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSelectorAllDown(t *testing.T) {
	var calls atomic.Int32
	down := fakeNode{err: errors.New("503")}
	nodes := map[string]fakeNode{"https://a": down, "https://b": down}
	s := rpc.NewSelector(rpc.AlgorithmFastest, rpc.WithProbe(fakeProbe(nodes, &calls)))

	_, err := s.Select(context.Background(), []string{"https://a", "https://b"})
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestProbeEVM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x2a"}`))
	}))
	defer srv.Close()

	latency, head, err := rpc.ProbeEVM(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), head)
	assert.Positive(t, latency)
}

func TestSelectorProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ string) (time.Duration, uint64, error) {
		<-ctx.Done()
		return 0, 0, ctx.Err()
	}
	s := rpc.NewSelector(rpc.AlgorithmFastest, rpc.WithProbe(slow), rpc.WithTimeout(10*time.Millisecond))

	eps := s.Probe(context.Background(), []string{"https://a"})
	require.Len(t, eps, 1)
	assert.False(t, eps[0].Healthy)
	assert.ErrorIs(t, eps[0].Err, context.DeadlineExceeded)
}
