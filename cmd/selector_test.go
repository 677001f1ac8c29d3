package cmd

import (
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/contract"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// normalizeSignature
// ---------------------------------------------------------------------------

func TestNormalizeSignature(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"transfer(address,uint256)", "transfer(address,uint256)"},
		{"transfer(address to, uint256 amount)", "transfer(address,uint256)"},
		{"name()", "name()"},
		{"balanceOf(address account)", "balanceOf(address)"},
		{"transferFrom(address from, address to, uint256 amount)", "transferFrom(address,address,uint256)"},
		{"approve(  address  spender ,  uint  amount  )", "approve(address,uint256)"},
		{"Transfer(address indexed from, address indexed to, uint256 value)", "Transfer(address,address,uint256)"},
		{"getAllocation(address,(address,uint32) operatorSet,address)", "getAllocation(address,(address,uint32),address)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeSignature(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSignatureInvalid(t *testing.T) {
	for _, in := range []string{"(address)", "transfer(address", "f(notatype)"} {
		t.Run(in, func(t *testing.T) {
			_, err := normalizeSignature(in)
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// computeEventTopic
// ---------------------------------------------------------------------------

func TestComputeEventTopic(t *testing.T) {
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		computeEventTopic("Transfer(address,address,uint256)"))
	assert.Equal(t, "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925",
		computeEventTopic("Approval(address,address,uint256)"))
}

// ---------------------------------------------------------------------------
// lookupHash
// ---------------------------------------------------------------------------

func builtinSources(t *testing.T) []namedABI {
	t.Helper()
	builtins, err := contract.LoadBuiltins()
	require.NoError(t, err)
	var out []namedABI
	for _, b := range builtins.All() {
		out = append(out, namedABI{contract.BuiltinPrefix + b.ID, b.ABI})
	}
	return out
}

func TestLookupHash(t *testing.T) {
	sources := builtinSources(t)

	transfer := hexutil.MustDecode("0xa9059cbb")
	got := lookupHash(sources, transfer)
	require.Len(t, got, 1)
	assert.Equal(t, "builtin:erc20 function", got[0][0])
	assert.Equal(t, "transfer(address,uint256)", got[0][1])

	// ERC-20 and ERC-721 Transfer share a topic.
	topic := hexutil.MustDecode(computeEventTopic("Transfer(address,address,uint256)"))
	got = lookupHash(sources, topic)
	require.Len(t, got, 2)
	assert.Equal(t, "builtin:erc20 event", got[0][0])
	assert.Equal(t, "builtin:erc721 event", got[1][0])

	insufficient := abi.Keccak256([]byte("ERC20InsufficientBalance(address,uint256,uint256)"))[:4]
	got = lookupHash(sources, insufficient)
	require.Len(t, got, 1)
	assert.Equal(t, "builtin:erc20 error", got[0][0])

	assert.Empty(t, lookupHash(sources, hexutil.MustDecode("0xdeadbeef")))
	// A topic-length hash never matches a selector.
	assert.Empty(t, lookupHash(sources, append(transfer, make([]byte, 28)...)))
}
