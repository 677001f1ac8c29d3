package wallet

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const (
	testPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSignerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// testKeystore returns a file-backed Keystore isolated to a temp directory.
// Using the FileBackend avoids OS keychain prompts in CI.
func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      "w3bind-test",
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          t.TempDir(),
		FilePasswordFunc: keyring.FixedStringPrompt("testpass"),
	})
	require.NoError(t, err)
	return &Keystore{ring: ring}
}

// ---------------------------------------------------------------------------
// normaliseHexKey
// ---------------------------------------------------------------------------

func TestNormaliseHexKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0xabc123", "abc123"},
		{"0Xabc123", "abc123"},
		{"abc123", "abc123"},
		{"  0xabc  ", "abc"},
		{"0x", ""},
		{"", ""},
		{"0x" + testPrivKeyHex, testPrivKeyHex},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normaliseHexKey(tt.in), "input %q", tt.in)
	}
}

// ---------------------------------------------------------------------------
// Keystore
// ---------------------------------------------------------------------------

func TestKeystoreFileBackendRoundTrip(t *testing.T) {
	t.Setenv(KeyEnv, "")
	ks := testKeystore(t)

	ref, err := ks.Store("alice", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "w3bind.alice", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.ErrorContains(t, err, "keychain retrieve")

	assert.NoError(t, ks.Delete(ref), "deleting a missing key is not an error")
}

func TestKeystoreRetrieveEnvVarOverride(t *testing.T) {
	t.Setenv(KeyEnv, "0x"+testPrivKeyHex)

	ks := &Keystore{ring: nil} // nil ring, must be served by env var
	got, err := ks.Retrieve("w3bind.any-ref")
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)
}

func TestKeystoreNilRing(t *testing.T) {
	t.Setenv(KeyEnv, "")
	ks := &Keystore{ring: nil}

	_, err := ks.Retrieve("w3bind.ghost")
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)

	_, err = ks.Store("ghost", testPrivKeyHex)
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)

	assert.NoError(t, ks.Delete("w3bind.anything"))
}

func TestInMemoryKeystore(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("bob", "0x"+testPrivKeyHex)
	require.NoError(t, err)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.Error(t, err)
}
