package binding

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const testABI = `[
  {"type":"function","name":"getMaxMagnitudes","stateMutability":"view",
   "inputs":[{"name":"operator","type":"address"},{"name":"strategies","type":"address[]"}],
   "outputs":[{"name":"","type":"uint64[]"}]},
  {"type":"function","name":"getMaxMagnitudes","stateMutability":"view",
   "inputs":[{"name":"operators","type":"address[]"},{"name":"strategy","type":"address"}],
   "outputs":[{"name":"","type":"uint64[]"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[{"name":"index","type":"uint8"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"owner","type":"address"},{"name":"since","type":"uint32"}]},
  {"type":"function","name":"setThing","stateMutability":"nonpayable","inputs":[{"name":"v","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[
     {"name":"from","type":"address","indexed":true},
     {"name":"to","type":"address","indexed":true},
     {"name":"value","type":"uint256","indexed":false}]},
  {"type":"error","name":"Unauthorized","inputs":[{"name":"caller","type":"address"}]}
]`

var (
	contractAddr = common.HexToAddress("0x0000000000000000000000000000000000c0ffee")
	alice        = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func testFactory(t *testing.T, tr Transport, opts ...Option) *Factory {
	t.Helper()
	a, err := abi.Parse([]byte(testABI))
	require.NoError(t, err)
	return New(a, append([]Option{WithAddress(contractAddr), WithTransport(tr)}, opts...)...)
}

// mockTransport is an in-memory Transport. Function fields left nil return
// zero values.
type mockTransport struct {
	mu sync.Mutex

	callFn     func(msg ethereum.CallMsg) ([]byte, error)
	estimateFn func(msg ethereum.CallMsg) (uint64, error)
	sendErr    error
	baseFee    *big.Int
	nonce      uint64
	tip        *big.Int
	price      *big.Int
	logs       []types.Log
	filterErr  error

	calls   []ethereum.CallMsg
	sent    []*types.Transaction
	queries []ethereum.FilterQuery
	sub     *mockSub
	subCh   chan<- types.Log
}

func (m *mockTransport) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, msg)
	m.mu.Unlock()
	if m.callFn == nil {
		return nil, nil
	}
	return m.callFn(msg)
}

func (m *mockTransport) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	if m.estimateFn == nil {
		return 21000, nil
	}
	return m.estimateFn(msg)
}

func (m *mockTransport) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: m.baseFee}, nil
}

func (m *mockTransport) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return m.nonce, nil
}

func (m *mockTransport) SuggestGasPrice(context.Context) (*big.Int, error) {
	if m.price == nil {
		return big.NewInt(1_000_000_000), nil
	}
	return m.price, nil
}

func (m *mockTransport) SuggestGasTipCap(context.Context) (*big.Int, error) {
	if m.tip == nil {
		return big.NewInt(1_000_000_000), nil
	}
	return m.tip, nil
}

func (m *mockTransport) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, tx)
	return nil
}

func (m *mockTransport) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (m *mockTransport) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return m.logs, m.filterErr
}

func (m *mockTransport) SubscribeFilterLogs(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	m.sub = &mockSub{errc: make(chan error, 1), unsubscribed: make(chan struct{})}
	m.subCh = ch
	return m.sub, nil
}

type mockSub struct {
	errc         chan error
	once         sync.Once
	unsubscribed chan struct{}
}

func (s *mockSub) Err() <-chan error { return s.errc }

func (s *mockSub) Unsubscribe() { s.once.Do(func() { close(s.unsubscribed) }) }

// revertRPCError mimics a node error for a reverted eth_call.
type revertRPCError struct {
	data string
}

func (e *revertRPCError) Error() string          { return "execution reverted" }
func (e *revertRPCError) ErrorCode() int         { return 3 }
func (e *revertRPCError) ErrorData() interface{} { return e.data }

func testSigner(t *testing.T) (common.Address, SignerFn) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	return from, signerFor(key, big.NewInt(1))
}

func signerFor(key *ecdsa.PrivateKey, chainID *big.Int) SignerFn {
	signer := types.LatestSignerForChainID(chainID)
	return func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
		return types.SignTx(tx, signer, key)
	}
}
