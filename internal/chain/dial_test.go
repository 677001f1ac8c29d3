package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDial(t *testing.T) {
	srv := rpcMock(t, map[string]any{"eth_chainId": "0x1"})

	b, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &EVMClient{}, b)
	id, err := b.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())

	b, err = Dial(context.Background(), "  "+srv.URL+"  ", WithPollInterval(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, b.(*EVMClient).pollInterval)

	_, err = Dial(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoEndpoint)

	b, err = Dial(context.Background(), "ws://127.0.0.1:19993")
	if err == nil {
		assert.IsType(t, &ethclient.Client{}, b)
		b.Close()
	}
}

type receiptSeq struct {
	calls    int
	pending  int
	receipt  *types.Receipt
	failWith error
}

func (r *receiptSeq) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	r.calls++
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.calls <= r.pending {
		return nil, ethereum.NotFound
	}
	return r.receipt, nil
}

func TestWaitMined(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Run("mined after polling", func(t *testing.T) {
		seq := &receiptSeq{pending: 2, receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}
		r, err := WaitMined(context.Background(), seq, hash, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, types.ReceiptStatusSuccessful, r.Status)
		assert.Equal(t, 3, seq.calls)
	})

	t.Run("failed transaction", func(t *testing.T) {
		seq := &receiptSeq{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}
		r, err := WaitMined(context.Background(), seq, hash, time.Millisecond)
		assert.ErrorIs(t, err, ErrTxFailed)
		require.NotNil(t, r)
	})

	t.Run("lookup error", func(t *testing.T) {
		seq := &receiptSeq{failWith: errors.New("boom")}
		_, err := WaitMined(context.Background(), seq, hash, time.Millisecond)
		assert.ErrorContains(t, err, "boom")
		assert.Equal(t, 1, seq.calls)
	})

	t.Run("timeout", func(t *testing.T) {
		seq := &receiptSeq{pending: 1 << 30}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := WaitMined(ctx, seq, hash, time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("over json-rpc", func(t *testing.T) {
		srv := rpcMock(t, map[string]any{
			"eth_getTransactionReceipt": &types.Receipt{
				TxHash: hash, Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(2),
				GasUsed: 21000, CumulativeGasUsed: 21000, Logs: []*types.Log{},
			},
		})
		r, err := WaitMined(context.Background(), dialTest(t, srv.URL), hash, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, uint64(21000), r.GasUsed)
	})
}
