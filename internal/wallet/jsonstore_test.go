package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// NewJSONStore / Load / Save
// ---------------------------------------------------------------------------

func TestJSONStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	store := NewJSONStore(path)

	wallets := []*Wallet{
		{Name: "alice", Address: common.HexToAddress("0x1111"), Type: TypeWatchOnly},
		{Name: "bob", Address: common.HexToAddress("0x2222"), Type: TypeSigning, KeyRef: "w3bind.bob"},
	}
	require.NoError(t, store.Save(wallets))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "alice", loaded[0].Name)
	assert.Equal(t, common.HexToAddress("0x1111"), loaded[0].Address)
	assert.Equal(t, TypeSigning, loaded[1].Type)
	assert.Equal(t, "w3bind.bob", loaded[1].KeyRef)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "nonexistent.json"))

	wallets, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, wallets, "loading a missing file should return nil, nil")
}

func TestJSONStoreSaveCreatesDirAndRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wallets.json")
	store := NewJSONStore(path)
	require.NoError(t, store.Save([]*Wallet{{Name: "w"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0 { // Unix only
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestJSONStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o600))

	_, err := NewJSONStore(path).Load()
	assert.ErrorContains(t, err, "corrupt.json")
}

// ---------------------------------------------------------------------------
// WithStore option
// ---------------------------------------------------------------------------

func TestWithStoreOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")

	mgr := NewManager(WithStore(NewJSONStore(path)))
	require.NoError(t, mgr.Add("test-ws", &Wallet{Address: common.HexToAddress("0xABC"), Type: TypeWatchOnly}))

	// Reload from same path; the wallet should persist.
	mgr2 := NewManager(WithStore(NewJSONStore(path)))
	w, err := mgr2.Get("test-ws")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xABC"), w.Address)
}
