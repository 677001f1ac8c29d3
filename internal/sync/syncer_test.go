package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	vaultAddr = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	abiJSON   = `[{"name":"transfer","type":"function","inputs":[],"outputs":[],"stateMutability":"nonpayable"}]`
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func testSyncer(t *testing.T) (*Syncer, *contract.Registry) {
	t.Helper()
	builtins, err := contract.LoadBuiltins()
	require.NoError(t, err)
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "contracts.json"))
	return New(reg, contract.NewFetcher(builtins, ""), nil), reg
}

func manifestServer(t *testing.T, m Manifest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func abiServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(abiJSON)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// Manifest JSON parsing
// ---------------------------------------------------------------------------

func TestManifestParse(t *testing.T) {
	data := `{
		"contracts": {
			"USDC": {
				"ethereum": {"address": "` + tokenAddr + `", "abi": "builtin:erc20"},
				"base":     {"address": "` + vaultAddr + `", "abi": "https://example.com/abi.json"}
			}
		}
	}`

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(data), &m))
	require.Contains(t, m.Contracts, "USDC")
	assert.Len(t, m.Contracts["USDC"], 2)
	assert.Equal(t, tokenAddr, m.Contracts["USDC"]["ethereum"].Address)
	assert.Equal(t, "builtin:erc20", m.Contracts["USDC"]["ethereum"].ABI)
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRunFromURL(t *testing.T) {
	abiSrv := abiServer(t)
	srv := manifestServer(t, Manifest{
		Contracts: map[string]map[string]ManifestEntry{
			"Vault": {"Arbitrum": {Address: vaultAddr, ABI: abiSrv.URL}},
			"USDC": {
				"ethereum": {Address: tokenAddr, ABI: "builtin:erc20"},
				"base":     {Address: vaultAddr, ABI: "builtin:erc20"},
			},
		},
	})

	s, reg := testSyncer(t)
	report, err := s.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, report.Failed)
	assert.Equal(t, []string{"USDC@base", "USDC@ethereum", "Vault@arbitrum"}, report.Added)

	vault, err := reg.Get("Vault", "arbitrum")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(vaultAddr), vault.Address)
	assert.Equal(t, 1, vault.ABI.Len())
	assert.Equal(t, abiSrv.URL, vault.Source)

	usdc, err := reg.Get("USDC", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "builtin:erc20", usdc.Source)

	// Saved to disk.
	reloaded := contract.NewRegistry(reg.Path())
	require.NoError(t, reloaded.Load())
	assert.Len(t, reloaded.All(), 3)
}

func TestRunFromFileResolvesRelativeABI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Token.json"), []byte(abiJSON), 0o600))
	manifest := `{"contracts": {"Token": {"anvil": {"address": "` + tokenAddr + `", "abi": "Token.json"}}}}`
	path := filepath.Join(dir, "deployments.json")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	s, reg := testSyncer(t)
	report, err := s.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Token@anvil"}, report.Added)

	e, err := reg.Get("Token", "anvil")
	require.NoError(t, err)
	assert.Equal(t, "Token.json", e.Source)
}

func TestRunSkipsBadEntries(t *testing.T) {
	srv := manifestServer(t, Manifest{
		Contracts: map[string]map[string]ManifestEntry{
			"Good":        {"ethereum": {Address: tokenAddr, ABI: "builtin:erc20"}},
			"BadAddress":  {"ethereum": {Address: "0xBAD", ABI: "builtin:erc20"}},
			"NoABI":       {"ethereum": {Address: tokenAddr}},
			"Unreachable": {"ethereum": {Address: tokenAddr, ABI: "http://127.0.0.1:19992/no-abi"}},
		},
	})

	s, reg := testSyncer(t)
	report, err := s.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"Good@ethereum"}, report.Added)
	require.Error(t, report.Failed)
	assert.Contains(t, report.Failed.Error(), "BadAddress@ethereum")
	assert.Contains(t, report.Failed.Error(), "NoABI@ethereum")
	assert.Contains(t, report.Failed.Error(), "Unreachable@ethereum")

	_, err = reg.Get("BadAddress", "ethereum")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
}

func TestRunManifestErrors(t *testing.T) {
	badJSON := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json}`)) //nolint:errcheck
	}))
	defer badJSON.Close()
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"invalid json", badJSON.URL, "parsing manifest"},
		{"http status", notFound.URL, "HTTP 404"},
		{"connection refused", "http://127.0.0.1:19993", "loading manifest"},
		{"missing file", filepath.Join(t.TempDir(), "none.json"), "loading manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testSyncer(t)
			_, err := s.Run(context.Background(), tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunEmptyManifestDoesNotWrite(t *testing.T) {
	srv := manifestServer(t, Manifest{})
	s, reg := testSyncer(t)
	report, err := s.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, report.Added)
	_, statErr := os.Stat(reg.Path())
	assert.True(t, os.IsNotExist(statErr))
}

// ---------------------------------------------------------------------------
// Watch
// ---------------------------------------------------------------------------

func TestWatchCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(Manifest{}) //nolint:errcheck
	}))
	defer srv.Close()

	s, _ := testSyncer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, srv.URL, 30*time.Second) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after context deadline")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestWatchInitialFailure(t *testing.T) {
	s, _ := testSyncer(t)
	err := s.Watch(context.Background(), "http://127.0.0.1:19994", time.Second)
	require.Error(t, err)
}
