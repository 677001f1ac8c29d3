package contract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

func balanceOfABI(t *testing.T) *abi.ABI {
	t.Helper()
	a, err := abi.Parse([]byte(`[{"type":"function","name":"balanceOf","stateMutability":"view",
		"inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`))
	require.NoError(t, err)
	return a
}

func TestNewRegistryEmpty(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))
	require.NoError(t, reg.Load())
	assert.Empty(t, reg.All())
}

func TestRegistryAddAndGet(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))

	require.NoError(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum", Address: usdc, ABI: balanceOfABI(t)}))

	got, err := reg.Get("usdc", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "usdc", got.Name)
	assert.Equal(t, usdc, got.Address)
	assert.Equal(t, 1, got.ABI.Len())

	_, err = reg.Get("usdc", "polygon")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
	_, err = reg.Get("nonexistent", "ethereum")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
}

func TestRegistryAddValidation(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))
	assert.Error(t, reg.Add(&contract.Entry{Network: "ethereum", ABI: balanceOfABI(t)}))
	assert.Error(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum"}))
}

func TestRegistryAddOverwritesExisting(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))
	a := balanceOfABI(t)

	require.NoError(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum", Address: common.HexToAddress("0x01"), ABI: a}))
	require.NoError(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum", Address: usdc, ABI: a}))

	got, err := reg.Get("usdc", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, usdc, got.Address)
	assert.Len(t, reg.All(), 1)
}

func TestRegistryGetByNameAndAllSorted(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))
	a := balanceOfABI(t)
	for _, e := range []struct{ name, network string }{
		{"usdc", "polygon"}, {"dai", "ethereum"}, {"usdc", "ethereum"},
	} {
		require.NoError(t, reg.Add(&contract.Entry{Name: e.name, Network: e.network, ABI: a}))
	}

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "dai", all[0].Name)
	assert.Equal(t, "ethereum", all[1].Network)
	assert.Equal(t, "polygon", all[2].Network)

	assert.Len(t, reg.GetByName("usdc"), 2)
	assert.Empty(t, reg.GetByName("weth"))
}

func TestRegistryRemove(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))
	require.NoError(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum", ABI: balanceOfABI(t)}))

	require.NoError(t, reg.Remove("usdc", "ethereum"))
	assert.ErrorIs(t, reg.Remove("usdc", "ethereum"), contract.ErrContractNotFound)
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "contracts.json")
	reg := contract.NewRegistry(path)
	require.NoError(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum", Address: usdc, ABI: balanceOfABI(t), Source: "abi.json"}))
	require.NoError(t, reg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reg2 := contract.NewRegistry(path)
	require.NoError(t, reg2.Load())
	got, err := reg2.Get("usdc", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, usdc, got.Address)
	assert.Equal(t, "abi.json", got.Source)

	e, err := got.ABI.Resolve(abi.KindFunction, "balanceOf", "")
	require.NoError(t, err)
	assert.Equal(t, "balanceOf(address)", e.Signature())
}

func TestRegistryLoadErrors(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{"corrupt", "{not json", "contracts.json"},
		{"missing abi", `[{"name":"usdc","network":"ethereum","address":"0x0000000000000000000000000000000000000001"}]`, "has no ABI"},
		{"invalid abi", `[{"name":"usdc","network":"ethereum","abi":[{"type":"function","name":"f","inputs":[{"type":"uint7"}]}]}]`, "contracts.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "contracts.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			err := contract.NewRegistry(path).Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEntryBind(t *testing.T) {
	e := &contract.Entry{Name: "usdc", Network: "ethereum", Address: usdc, ABI: balanceOfABI(t)}
	f := e.Bind()
	assert.Equal(t, usdc, f.Address())
	assert.Same(t, e.ABI, f.ABI())
}
