package contract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nameSymbolABI = `[
	{"name":"name","type":"function","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"name":"symbol","type":"function","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"}
]`

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	b, err := LoadBuiltins()
	require.NoError(t, err)
	return NewFetcher(b, "KEY")
}

func TestFetcherLoadFile(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "abi.json")
	require.NoError(t, os.WriteFile(raw, []byte(nameSymbolABI), 0o644))
	artifact := filepath.Join(dir, "Token.json")
	require.NoError(t, os.WriteFile(artifact, []byte(`{"contractName":"Token","abi":`+nameSymbolABI+`,"bytecode":"0x6080"}`), 0o644))

	f := testFetcher(t)
	for _, path := range []string{raw, artifact} {
		a, err := f.Load(context.Background(), path)
		require.NoError(t, err, path)
		assert.Len(t, a.Members(abi.KindFunction), 2)
	}

	_, err := f.Load(context.Background(), filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "reading ABI file")
}

func TestFetcherLoadBuiltin(t *testing.T) {
	f := testFetcher(t)

	a, err := f.Load(context.Background(), "builtin:erc20")
	require.NoError(t, err)
	_, err = a.Resolve(abi.KindFunction, "balanceOf", "")
	assert.NoError(t, err)

	_, err = f.Load(context.Background(), "builtin:nope")
	assert.ErrorContains(t, err, `unknown builtin "nope"`)

	_, err = NewFetcher(nil, "").Load(context.Background(), "builtin:erc20")
	assert.Error(t, err)

	_, err = f.Load(context.Background(), "  ")
	assert.ErrorContains(t, err, "no ABI source")
}

func TestFetcherLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/abi.json":
			_, _ = w.Write([]byte(nameSymbolABI))
		case "/garbage":
			_, _ = w.Write([]byte("<html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := testFetcher(t)
	a, err := f.Load(context.Background(), srv.URL+"/abi.json")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	_, err = f.Load(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = f.Load(context.Background(), srv.URL+"/garbage")
	assert.Error(t, err)
}

func TestFetchFromExplorer(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"module": q.Get("module"), "action": q.Get("action"),
			"address": q.Get("address"), "apikey": q.Get("apikey"),
		}
		resp := map[string]string{"status": "1", "message": "OK", "result": nameSymbolABI}
		if q.Get("address") == "0xbad" {
			resp = map[string]string{"status": "0", "message": "NOTOK", "result": "Contract source code not verified"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	f := testFetcher(t)
	a, err := f.FetchFromExplorer(context.Background(), srv.URL+"/", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, map[string]string{"module": "contract", "action": "getabi", "address": "0xabc", "apikey": "KEY"}, gotQuery)

	_, err = f.FetchFromExplorer(context.Background(), srv.URL, "0xbad")
	assert.ErrorContains(t, err, "not verified")
}

func TestFetcherContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(nameSymbolABI))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testFetcher(t).FetchFromURL(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
