package config

// Config holds all w3bind configuration.
type Config struct {
	DefaultNetwork   string                   `json:"default_network"`
	DefaultWallet    string                   `json:"default_wallet"`
	NetworkMode      string                   `json:"network_mode"` // "mainnet" | "testnet"
	LogLevel         string                   `json:"log_level"`
	PollInterval     int                      `json:"poll_interval"` // seconds
	GasLimitFallback uint64                   `json:"gas_limit_fallback"`
	ExplorerAPIKey   string                   `json:"explorer_api_key,omitempty"`
	RPCAlgorithm     string                   `json:"rpc_algorithm"` // "fastest" | "failover"
	Networks         map[string]NetworkConfig `json:"networks"`

	// internal: config dir path used for Save()
	configDir string
}

// NetworkConfig overrides or extends a built-in network.
type NetworkConfig struct {
	RPCURL  string `json:"rpc_url"`
	ChainID uint64 `json:"chain_id,omitempty"`
}
