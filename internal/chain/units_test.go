package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	eth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	tests := []struct {
		in   string
		want *big.Int
	}{
		{"0", big.NewInt(0)},
		{"1000", big.NewInt(1000)},
		{"1000wei", big.NewInt(1000)},
		{"0x10", big.NewInt(16)},
		{"1eth", eth},
		{"1 ETH", eth},
		{"1ether", eth},
		{"0.5eth", new(big.Int).Div(eth, big.NewInt(2))},
		{".25eth", new(big.Int).Div(eth, big.NewInt(4))},
		{"20gwei", big.NewInt(20_000_000_000)},
		{"1.5gwei", big.NewInt(1_500_000_000)},
		{"0.000000000000000001eth", big.NewInt(1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, 0, tt.want.Cmp(got), "got %s", got)
		})
	}

	for _, bad := range []string{"", "eth", "1.5", "1.5wei", "0.0000000001gwei", "-1eth", "abc", "1e18", "0xzz", "0x-1", "0x+1", "0x", "0x1_0", "-0x1", "0x10gwei"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseValue(bad)
			assert.Error(t, err)
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		raw      *big.Int
		decimals int
		want     string
	}{
		{big.NewInt(0), 18, "0"},
		{big.NewInt(1), 18, "0.000000000000000001"},
		{new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), 18, "1"},
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(42), 0, "42"},
		{big.NewInt(-1_500_000), 6, "-1.5"},
		{nil, 18, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUnits(tt.raw, tt.decimals))
	}
	assert.Equal(t, "20", WeiToGwei(big.NewInt(20_000_000_000)))
	assert.Equal(t, "0.1", WeiToETH(big.NewInt(100_000_000_000_000_000)))
}
