package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
)

// BuiltinPrefix marks an ABI source that names an embedded ABI.
const BuiltinPrefix = "builtin:"

// maxABISize caps how much of a remote response is read.
const maxABISize = 8 << 20

// Fetcher retrieves ABIs from files, URLs, block explorers and the embedded set.
type Fetcher struct {
	client   *http.Client
	apiKey   string
	builtins *Builtins
}

// NewFetcher creates an ABI fetcher. apiKey is only used for explorer lookups.
func NewFetcher(builtins *Builtins, apiKey string) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		apiKey:   apiKey,
		builtins: builtins,
	}
}

// Load resolves source to an ABI. source is "builtin:<id>", an http(s) URL
// returning an ABI or artifact, or a local file path.
func (f *Fetcher) Load(ctx context.Context, source string) (*abi.ABI, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, fmt.Errorf("no ABI source given")
	case strings.HasPrefix(source, BuiltinPrefix):
		id := strings.TrimPrefix(source, BuiltinPrefix)
		if f.builtins == nil {
			return nil, fmt.Errorf("unknown builtin %q", id)
		}
		b, ok := f.builtins.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown builtin %q (see `w3bind contract builtins`)", id)
		}
		return b.ABI, nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return f.FetchFromURL(ctx, source)
	default:
		return abi.LoadFile(source)
	}
}

// FetchFromURL fetches a raw ABI JSON array or artifact from any URL.
func (f *Fetcher) FetchFromURL(ctx context.Context, rawURL string) (*abi.ABI, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching ABI from URL: %w", err)
	}
	return abi.Parse(body)
}

// FetchFromExplorer fetches a verified contract's ABI from an
// Etherscan-compatible API, e.g. "https://api.etherscan.io".
func (f *Fetcher) FetchFromExplorer(ctx context.Context, explorerAPIURL, address string) (*abi.ABI, error) {
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getabi")
	q.Set("address", address)
	q.Set("apikey", f.apiKey)

	body, err := f.get(ctx, strings.TrimRight(explorerAPIURL, "/")+"/api?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching ABI: %w", err)
	}

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  string `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing ABI response: %w", err)
	}
	if result.Status != "1" {
		return nil, fmt.Errorf("explorer error: %s: %s", result.Message, result.Result)
	}
	return abi.Parse([]byte(result.Result))
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxABISize))
}
