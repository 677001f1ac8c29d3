package cmd

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/chain"
	"github.com/stretchr/testify/assert"
)

func TestChainMismatch(t *testing.T) {
	reg := chain.NewRegistry()
	tests := []struct {
		name    string
		network string
		mode    string
		chainID *big.Int
		want    string
	}{
		{"agrees", "ethereum", "mainnet", big.NewInt(1), ""},
		{"case insensitive", "Base", "mainnet", big.NewInt(8453), ""},
		{"other network", "ethereum", "mainnet", big.NewInt(8453), "endpoint is on Base (chain 8453), not ethereum"},
		{"mainnet in testnet mode", "base", "testnet", big.NewInt(8453), "endpoint is Base mainnet (chain 8453) but mode is testnet"},
		{"unknown chain", "ethereum", "testnet", big.NewInt(11155111), ""},
		{"nil", "ethereum", "mainnet", nil, ""},
		{"overflow", "ethereum", "mainnet", new(big.Int).Lsh(big.NewInt(1), 70), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chainMismatch(reg, tt.network, tt.mode, tt.chainID))
		})
	}
}
