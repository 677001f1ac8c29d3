// Package sync imports contract deployments from a manifest into the local
// registry.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// maxManifestSize caps how much of a remote manifest is read.
const maxManifestSize = 4 << 20

// Manifest is the structure of a deployments.json manifest.
type Manifest struct {
	Contracts map[string]map[string]ManifestEntry `json:"contracts"`
}

// ManifestEntry is a single contract deployment. ABI is any source the
// fetcher accepts: builtin:<id>, an http(s) URL or a file path.
type ManifestEntry struct {
	Address string `json:"address"`
	ABI     string `json:"abi"`
}

// Report summarises one sync run.
type Report struct {
	Added  []string // name@network
	Failed error    // per-entry failures; nil when every entry was imported
}

// Syncer fetches manifests and writes their entries into a contract registry.
type Syncer struct {
	reg     *contract.Registry
	fetcher *contract.Fetcher
	client  *http.Client
	logger  hclog.Logger
}

// New creates a new Syncer.
func New(reg *contract.Registry, fetcher *contract.Fetcher, logger hclog.Logger) *Syncer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Syncer{
		reg:     reg,
		fetcher: fetcher,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Run reads the manifest at source, a URL or file path, and adds every entry
// whose address and ABI are usable. Entries that fail are reported and
// skipped; the registry is saved when at least one entry was added.
func (s *Syncer) Run(ctx context.Context, source string) (*Report, error) {
	m, err := s.loadManifest(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	base := ""
	if !isURL(source) {
		base = filepath.Dir(source)
	}

	report := &Report{}
	var failed *multierror.Error
	for _, name := range sortedKeys(m.Contracts) {
		networks := m.Contracts[name]
		for _, network := range sortedKeys(networks) {
			entry := networks[network]
			network = strings.ToLower(network)
			if err := s.importEntry(ctx, name, network, entry, base); err != nil {
				s.logger.Warn("skipping manifest entry", "contract", name, "network", network, "error", err)
				failed = multierror.Append(failed, fmt.Errorf("%s@%s: %w", name, network, err))
				continue
			}
			report.Added = append(report.Added, name+"@"+network)
		}
	}
	report.Failed = failed.ErrorOrNil()

	if len(report.Added) > 0 {
		if err := s.reg.Save(); err != nil {
			return report, fmt.Errorf("saving contracts: %w", err)
		}
	}
	s.logger.Debug("manifest synced", "source", source, "added", len(report.Added))
	return report, nil
}

func (s *Syncer) importEntry(ctx context.Context, name, network string, e ManifestEntry, base string) error {
	if !common.IsHexAddress(e.Address) {
		return fmt.Errorf("invalid address %q", e.Address)
	}
	src := e.ABI
	if src == "" {
		return fmt.Errorf("no ABI source")
	}
	if base != "" && !isURL(src) && !strings.HasPrefix(src, contract.BuiltinPrefix) && !filepath.IsAbs(src) {
		src = filepath.Join(base, src)
	}
	parsed, err := s.fetcher.Load(ctx, src)
	if err != nil {
		return err
	}
	return s.reg.Add(&contract.Entry{
		Name:    name,
		Network: network,
		Address: common.HexToAddress(e.Address),
		ABI:     parsed,
		Source:  e.ABI,
	})
}

// Watch runs Run on a ticker until ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context, source string, interval time.Duration) error {
	if _, err := s.Run(ctx, source); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Run(ctx, source); err != nil {
				s.logger.Error("sync failed", "source", source, "error", err)
			}
		}
	}
}

func (s *Syncer) loadManifest(ctx context.Context, source string) (*Manifest, error) {
	var body []byte
	var err error
	if isURL(source) {
		body, err = s.fetch(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func (s *Syncer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
