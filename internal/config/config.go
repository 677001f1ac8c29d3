package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	defaultNetwork  = "ethereum"
	defaultMode     = "mainnet"
	defaultLogLevel = "warn"
	defaultRPCAlgo  = "fastest"

	// DirEnv overrides the config directory.
	DirEnv = "W3BIND_CONFIG_DIR"

	configFile    = "config.json"
	walletsFile   = "wallets.json"
	contractsFile = "contracts.json"
	keyringDir    = "keyring"
)

// Load reads config from dir (or creates defaults). dir defaults to
// $W3BIND_CONFIG_DIR, then ~/.w3bind.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(DirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3bind")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.configDir = dir
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]NetworkConfig)
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallet store file.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// ContractsPath is the contract registry file.
func (c *Config) ContractsPath() string { return filepath.Join(c.configDir, contractsFile) }

// KeyringDir holds the encrypted file keyring used when no OS keychain exists.
func (c *Config) KeyringDir() string { return filepath.Join(c.configDir, keyringDir) }

// Testnet reports whether testnet endpoints are selected.
func (c *Config) Testnet() bool { return c.NetworkMode == "testnet" }

// Poll returns the log polling interval.
func (c *Config) Poll() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollInterval) * time.Second
}

// Level returns the configured log level.
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

// SetNetwork adds or replaces a custom network endpoint.
func (c *Config) SetNetwork(name, rpcURL string, chainID uint64) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || rpcURL == "" {
		return fmt.Errorf("network name and RPC URL are required")
	}
	if c.Networks == nil {
		c.Networks = make(map[string]NetworkConfig)
	}
	c.Networks[name] = NetworkConfig{RPCURL: rpcURL, ChainID: chainID}
	return nil
}

// RemoveNetwork deletes a custom network endpoint.
func (c *Config) RemoveNetwork(name string) error {
	name = strings.ToLower(name)
	if _, ok := c.Networks[name]; !ok {
		return fmt.Errorf("network %s not configured", name)
	}
	delete(c.Networks, name)
	return nil
}

// Network returns the custom endpoint for name, if any.
func (c *Config) Network(name string) (NetworkConfig, bool) {
	n, ok := c.Networks[strings.ToLower(name)]
	return n, ok
}

// Keys lists the settable scalar keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Config, v string) error{
	"default_network": func(c *Config, v string) error { c.DefaultNetwork = strings.ToLower(v); return nil },
	"default_wallet":  func(c *Config, v string) error { c.DefaultWallet = v; return nil },
	"network_mode": func(c *Config, v string) error {
		if v != "mainnet" && v != "testnet" {
			return fmt.Errorf("network_mode must be mainnet or testnet, got %q", v)
		}
		c.NetworkMode = v
		return nil
	},
	"log_level": func(c *Config, v string) error {
		if hclog.LevelFromString(v) == hclog.NoLevel {
			return fmt.Errorf("unknown log level %q", v)
		}
		c.LogLevel = strings.ToLower(v)
		return nil
	},
	"poll_interval": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("poll_interval must be a positive number of seconds, got %q", v)
		}
		c.PollInterval = n
		return nil
	},
	"gas_limit_fallback": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("gas_limit_fallback must be an unsigned integer, got %q", v)
		}
		c.GasLimitFallback = n
		return nil
	},
	"explorer_api_key": func(c *Config, v string) error { c.ExplorerAPIKey = v; return nil },
	"rpc_algorithm": func(c *Config, v string) error {
		v = strings.ToLower(v)
		if !validRPCAlgorithm(v) {
			return fmt.Errorf("rpc_algorithm must be fastest or failover, got %q", v)
		}
		c.RPCAlgorithm = v
		return nil
	},
}

// Set updates one scalar key from its string form.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, strings.TrimSpace(value))
}

// Get renders one scalar key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "default_network":
		return c.DefaultNetwork, nil
	case "default_wallet":
		return c.DefaultWallet, nil
	case "network_mode":
		return c.NetworkMode, nil
	case "log_level":
		return c.LogLevel, nil
	case "poll_interval":
		return strconv.Itoa(c.PollInterval), nil
	case "gas_limit_fallback":
		return strconv.FormatUint(c.GasLimitFallback, 10), nil
	case "explorer_api_key":
		return c.ExplorerAPIKey, nil
	case "rpc_algorithm":
		return c.RPCAlgorithm, nil
	}
	return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
}

// --- helpers ---

func (c *Config) validate() error {
	if c.NetworkMode != "mainnet" && c.NetworkMode != "testnet" {
		return fmt.Errorf("network_mode must be mainnet or testnet, got %q", c.NetworkMode)
	}
	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	if c.RPCAlgorithm != "" && !validRPCAlgorithm(c.RPCAlgorithm) {
		return fmt.Errorf("unknown rpc_algorithm %q", c.RPCAlgorithm)
	}
	return nil
}

func validRPCAlgorithm(s string) bool { return s == "fastest" || s == "failover" }

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork:   defaultNetwork,
		NetworkMode:      defaultMode,
		LogLevel:         defaultLogLevel,
		PollInterval:     int(DefaultPollInterval / time.Second),
		GasLimitFallback: GasLimitContractCall,
		RPCAlgorithm:     defaultRPCAlgo,
		Networks:         make(map[string]NetworkConfig),
		configDir:        dir,
	}
}
