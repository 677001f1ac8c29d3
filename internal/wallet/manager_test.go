package wallet_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var testAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	err := mgr.Add("mywallet", &wallet.Wallet{
		Address: common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678"),
		Type:    wallet.TypeWatchOnly,
	})
	require.NoError(t, err)

	w, err := mgr.Get("mywallet")
	require.NoError(t, err)
	assert.Equal(t, "mywallet", w.Name)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.NotEmpty(t, w.CreatedAt)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	require.NoError(t, mgr.Add("dup", &wallet.Wallet{Type: wallet.TypeWatchOnly}))
	assert.ErrorIs(t, mgr.Add("dup", &wallet.Wallet{Type: wallet.TypeWatchOnly}), wallet.ErrWalletExists)

	_, err := mgr.AddWithKey("dup", testKey)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(ks))

	w, err := mgr.AddWithKey("signer", testKey)
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, testAddr, w.Address)

	stored, err := ks.Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, testKey[2:], stored)
}

func TestInvalidPrivateKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestListWalletsSorted(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("w2", &wallet.Wallet{Type: wallet.TypeWatchOnly}))
	require.NoError(t, mgr.Add("w1", &wallet.Wallet{Type: wallet.TypeWatchOnly}))

	list, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "w1", list[0].Name)
	assert.Equal(t, "w2", list[1].Name)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	mgr := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(ks))
	w, err := mgr.AddWithKey("gone", testKey)
	require.NoError(t, err)

	require.NoError(t, mgr.Remove("gone"))
	_, err = mgr.Get("gone")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = ks.Retrieve(w.KeyRef)
	assert.Error(t, err)

	assert.ErrorIs(t, mgr.Remove("gone"), wallet.ErrWalletNotFound)
}

func TestDefaultWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	assert.Nil(t, mgr.Default())

	require.NoError(t, mgr.Add("only", &wallet.Wallet{Type: wallet.TypeWatchOnly}))
	require.NotNil(t, mgr.Default())
	assert.Equal(t, "only", mgr.Default().Name, "single wallet is the implicit default")

	require.NoError(t, mgr.Add("second", &wallet.Wallet{Type: wallet.TypeWatchOnly}))
	assert.Nil(t, mgr.Default())

	require.NoError(t, mgr.SetDefault("second"))
	assert.Equal(t, "second", mgr.Default().Name)

	assert.ErrorIs(t, mgr.SetDefault("missing"), wallet.ErrWalletNotFound)
}

func TestManagerSigner(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("signer", testKey)
	require.NoError(t, err)
	require.NoError(t, mgr.Add("watcher", &wallet.Wallet{Address: testAddr, Type: wallet.TypeWatchOnly}))

	s, err := mgr.Signer("signer")
	require.NoError(t, err)
	assert.Equal(t, testAddr, s.Address())

	_, err = mgr.Signer("watcher")
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)

	_, err = mgr.Signer("nobody")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}
