package cmd

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// functionBySelector
// ---------------------------------------------------------------------------

func TestFunctionBySelector(t *testing.T) {
	erc20 := builtinABI(t, "erc20")
	tests := []struct {
		calldata string
		want     string
	}{
		{"0xa9059cbb000000000000000000000000d8da6bf26964af9d7eed9e03e53415d37aa960450000000000000000000000000000000000000000000000000de0b6b3a7640000", "transfer"},
		{"0x095ea7b3", "approve"},
		{"0x70a08231000000000000000000000000f39fd6e51aad88f6f4ce6ab8827279cfffb92266", "balanceOf"},
		{"0x23b872dd", "transferFrom"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			e, err := functionBySelector(erc20, hexutil.MustDecode(tt.calldata))
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Name)
		})
	}

	_, err := functionBySelector(erc20, hexutil.MustDecode("0xdeadbeef"))
	assert.ErrorContains(t, err, "0xdeadbeef")
	_, err = functionBySelector(erc20, []byte{0xa9, 0x05})
	assert.ErrorContains(t, err, "too short")
}

// ---------------------------------------------------------------------------
// revertPairs
// ---------------------------------------------------------------------------

func TestRevertPairs(t *testing.T) {
	erc20 := builtinABI(t, "erc20")
	insufficient, err := erc20.Resolve(abi.KindError, "ERC20InsufficientBalance", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		re   *binding.RevertError
		want [][2]string
	}{
		{
			name: "reason",
			re:   &binding.RevertError{Reason: "paused"},
			want: [][2]string{{"Reason", "paused"}},
		},
		{
			name: "panic",
			re:   &binding.RevertError{PanicCode: big.NewInt(0x11), Reason: "arithmetic overflow"},
			want: [][2]string{{"Panic", "0x11"}, {"Reason", "arithmetic overflow"}},
		},
		{
			name: "custom",
			re: &binding.RevertError{
				Custom: &insufficient,
				Args:   []any{common.HexToAddress(testRecipient), big.NewInt(1), big.NewInt(2)},
				Data:   []byte{0xe4, 0x50, 0xd3, 0x8c},
			},
			want: [][2]string{
				{"Error", "ERC20InsufficientBalance(address,uint256,uint256)"},
				{"sender (address)", common.HexToAddress(testRecipient).Hex()},
				{"balance (uint256)", "1"},
				{"needed (uint256)", "2"},
				{"Data", "0xe450d38c"},
			},
		},
		{
			name: "empty",
			re:   &binding.RevertError{},
			want: [][2]string{{"Reason", "none given"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := revertPairs(tt.re)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i][0], got[i][0])
				assert.Contains(t, got[i][1], tt.want[i][1])
			}
		})
	}
}

func TestDecodeRevertErrorString(t *testing.T) {
	data := hexutil.MustDecode("0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"000000000000000000000000000000000000000000000000000000000000000c" +
		"696e73756666696369656e740000000000000000000000000000000000000000")
	pairs := revertPairs(binding.DecodeRevert(nil, data))
	require.NotEmpty(t, pairs)
	assert.Equal(t, "Reason", pairs[0][0])
	assert.Contains(t, pairs[0][1], "insufficient")
}

// ---------------------------------------------------------------------------
// valuePairs
// ---------------------------------------------------------------------------

func TestValuePairs(t *testing.T) {
	params := []abi.Param{
		{Name: "to", Type: abi.MustNewType("address")},
		{Type: abi.MustNewType("uint256")},
	}
	to := common.HexToAddress(testRecipient)
	got := valuePairs(params, []any{to, big.NewInt(42), "extra"})
	assert.Equal(t, [][2]string{
		{"to (address)", to.Hex()},
		{"[1] (uint256)", "42"},
		{"[2]", "extra"},
	}, got)
}

// ---------------------------------------------------------------------------
// parseMatch
// ---------------------------------------------------------------------------

func TestParseMatch(t *testing.T) {
	transfer, err := builtinABI(t, "erc20").Resolve(abi.KindEvent, "Transfer", "")
	require.NoError(t, err)
	to := common.HexToAddress(testRecipient)
	other := common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	match, err := parseMatch(transfer, []string{"to=" + testRecipient, "1=" + other.Hex()})
	require.NoError(t, err)
	require.Len(t, match, 2)
	assert.Nil(t, match[0])
	assert.Equal(t, []any{to, other}, match[1])

	match, err = parseMatch(transfer, []string{"from=" + testRecipient})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{to}}, match)

	match, err = parseMatch(transfer, nil)
	require.NoError(t, err)
	assert.Empty(t, match)

	for _, bad := range []string{"to", "value=1", "2=" + testRecipient, "to=notanaddress"} {
		t.Run(bad, func(t *testing.T) {
			_, err := parseMatch(transfer, []string{bad})
			assert.Error(t, err)
		})
	}
}
