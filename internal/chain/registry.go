package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Network holds the connection metadata of one EVM chain.
type Network struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	ChainID         int64    `json:"chain_id"`
	NativeCurrency  string   `json:"native_currency"`
	MainnetRPCs     []string `json:"mainnet_rpcs"`
	TestnetRPCs     []string `json:"testnet_rpcs"`
	MainnetExplorer string   `json:"mainnet_explorer"`
	TestnetExplorer string   `json:"testnet_explorer"`
	TestnetName     string   `json:"testnet_name"`
}

// Registry is the set of known networks.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the registry of built-in networks.
func NewRegistry() *Registry {
	networks := builtinNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Network {
	return r.networks
}

// GetByName finds a network by its slug (e.g. "base", "ethereum").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
	}
	return n, nil
}

// GetByChainID finds a network by its chain ID.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", ErrNetworkNotFound, id)
	}
	return n, nil
}

// RPCs returns the endpoints for mode ("mainnet" or "testnet").
func (n *Network) RPCs(mode string) []string {
	if mode == "testnet" {
		return n.TestnetRPCs
	}
	return n.MainnetRPCs
}

// Explorer returns the block explorer for mode.
func (n *Network) Explorer(mode string) string {
	if mode == "testnet" {
		return n.TestnetExplorer
	}
	return n.MainnetExplorer
}

// TxURL links a transaction on the explorer for mode.
func (n *Network) TxURL(mode, hash string) string {
	base := n.Explorer(mode)
	if base == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/tx/" + hash
}

// AddressURL links an address on the explorer for mode.
func (n *Network) AddressURL(mode, addr string) string {
	base := n.Explorer(mode)
	if base == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/address/" + addr
}

// --- network data ---

func builtinNetworks() []Network {
	return []Network{
		// 1. Ethereum
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			MainnetExplorer: "https://etherscan.io",
			TestnetExplorer: "https://sepolia.etherscan.io",
			TestnetName:    "Sepolia",
		},
		// 2. Base
		{
			Name: "base", DisplayName: "Base", ChainID: 8453,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			TestnetRPCs:    []string{"https://sepolia.base.org"},
			MainnetExplorer: "https://basescan.org",
			TestnetExplorer: "https://sepolia.basescan.org",
			TestnetName:    "Base Sepolia",
		},
		// 3. Polygon
		{
			Name: "polygon", DisplayName: "Polygon", ChainID: 137,
			NativeCurrency: "MATIC",
			MainnetRPCs:    []string{"https://polygon-bor-rpc.publicnode.com", "https://polygon-pokt.nodies.app"},
			TestnetRPCs:    []string{"https://rpc-amoy.polygon.technology"},
			MainnetExplorer: "https://polygonscan.com",
			TestnetExplorer: "https://amoy.polygonscan.com",
			TestnetName:    "Amoy",
		},
		// 4. Arbitrum
		{
			Name: "arbitrum", DisplayName: "Arbitrum", ChainID: 42161,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			TestnetRPCs:    []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			MainnetExplorer: "https://arbiscan.io",
			TestnetExplorer: "https://sepolia.arbiscan.io",
			TestnetName:    "Arb Sepolia",
		},
		// 5. Optimism
		{
			Name: "optimism", DisplayName: "Optimism", ChainID: 10,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			TestnetRPCs:    []string{"https://sepolia.optimism.io"},
			MainnetExplorer: "https://optimistic.etherscan.io",
			TestnetExplorer: "https://sepolia-optimism.etherscan.io",
			TestnetName:    "OP Sepolia",
		},
		// 6. BNB Chain
		{
			Name: "bnb", DisplayName: "BNB Chain", ChainID: 56,
			NativeCurrency: "BNB",
			MainnetRPCs:    []string{"https://bsc-dataseed.binance.org", "https://bsc-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
			MainnetExplorer: "https://bscscan.com",
			TestnetExplorer: "https://testnet.bscscan.com",
			TestnetName:    "BSC Testnet",
		},
		// 7. Avalanche
		{
			Name: "avalanche", DisplayName: "Avalanche", ChainID: 43114,
			NativeCurrency: "AVAX",
			MainnetRPCs:    []string{"https://api.avax.network/ext/bc/C/rpc", "https://avalanche-c-chain-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://api.avax-test.network/ext/bc/C/rpc"},
			MainnetExplorer: "https://snowtrace.io",
			TestnetExplorer: "https://testnet.snowtrace.io",
			TestnetName:    "Fuji",
		},
		// 8. Fantom
		{
			Name: "fantom", DisplayName: "Fantom", ChainID: 250,
			NativeCurrency: "FTM",
			MainnetRPCs:    []string{"https://rpcapi.fantom.network", "https://fantom-pokt.nodies.app"},
			TestnetRPCs:    []string{"https://rpc.testnet.fantom.network"},
			MainnetExplorer: "https://ftmscan.com",
			TestnetExplorer: "https://testnet.ftmscan.com",
			TestnetName:    "FTM Testnet",
		},
		// 9. Linea
		{
			Name: "linea", DisplayName: "Linea", ChainID: 59144,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://rpc.linea.build", "https://linea-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://rpc.sepolia.linea.build"},
			MainnetExplorer: "https://lineascan.build",
			TestnetExplorer: "https://sepolia.lineascan.build",
			TestnetName:    "Linea Sepolia",
		},
		// 10. zkSync Era
		{
			Name: "zksync", DisplayName: "zkSync Era", ChainID: 324,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://mainnet.era.zksync.io", "https://zksync-era-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://sepolia.era.zksync.dev"},
			MainnetExplorer: "https://explorer.zksync.io",
			TestnetExplorer: "https://sepolia.explorer.zksync.io",
			TestnetName:    "zkSync Sepolia",
		},
		// 11. Scroll
		{
			Name: "scroll", DisplayName: "Scroll", ChainID: 534352,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://rpc.scroll.io", "https://scroll-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://sepolia-rpc.scroll.io"},
			MainnetExplorer: "https://scrollscan.com",
			TestnetExplorer: "https://sepolia.scrollscan.com",
			TestnetName:    "Scroll Sepolia",
		},
		// 12. Mantle
		{
			Name: "mantle", DisplayName: "Mantle", ChainID: 5000,
			NativeCurrency: "MNT",
			MainnetRPCs:    []string{"https://rpc.mantle.xyz", "https://mantle-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://rpc.sepolia.mantle.xyz"},
			MainnetExplorer: "https://mantlescan.xyz",
			TestnetExplorer: "https://sepolia.mantlescan.xyz",
			TestnetName:    "Mantle Sepolia",
		},
		// 13. Celo
		{
			Name: "celo", DisplayName: "Celo", ChainID: 42220,
			NativeCurrency: "CELO",
			MainnetRPCs:    []string{"https://forno.celo.org", "https://celo-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://alfajores-forno.celo-testnet.org"},
			MainnetExplorer: "https://celoscan.io",
			TestnetExplorer: "https://alfajores.celoscan.io",
			TestnetName:    "Alfajores",
		},
		// 14. Gnosis
		{
			Name: "gnosis", DisplayName: "Gnosis", ChainID: 100,
			NativeCurrency: "xDAI",
			MainnetRPCs:    []string{"https://rpc.gnosischain.com", "https://gnosis-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://rpc.chiadochain.net"},
			MainnetExplorer: "https://gnosisscan.io",
			TestnetExplorer: "https://gnosis-chiado.blockscout.com",
			TestnetName:    "Chiado",
		},
		// 15. Blast
		{
			Name: "blast", DisplayName: "Blast", ChainID: 81457,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://rpc.blast.io", "https://blast-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://sepolia.blast.io"},
			MainnetExplorer: "https://blastscan.io",
			TestnetExplorer: "https://testnet.blastscan.io",
			TestnetName:    "Blast Sepolia",
		},
		// 16. Mode
		{
			Name: "mode", DisplayName: "Mode", ChainID: 34443,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://mainnet.mode.network", "https://mode-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://sepolia.mode.network"},
			MainnetExplorer: "https://explorer.mode.network",
			TestnetExplorer: "https://sepolia.explorer.mode.network",
			TestnetName:    "Mode Sepolia",
		},
		// 17. Zora
		{
			Name: "zora", DisplayName: "Zora", ChainID: 7777777,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://rpc.zora.energy"},
			TestnetRPCs:    []string{"https://sepolia.rpc.zora.energy"},
			MainnetExplorer: "https://explorer.zora.energy",
			TestnetExplorer: "https://sepolia.explorer.zora.energy",
			TestnetName:    "Zora Sepolia",
		},
		// 18. Moonbeam
		{
			Name: "moonbeam", DisplayName: "Moonbeam", ChainID: 1284,
			NativeCurrency: "GLMR",
			MainnetRPCs:    []string{"https://rpc.api.moonbeam.network", "https://moonbeam-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://rpc.api.moonbase.moonbeam.network"},
			MainnetExplorer: "https://moonscan.io",
			TestnetExplorer: "https://moonbase.moonscan.io",
			TestnetName:    "Moonbase Alpha",
		},
		// 19. Cronos
		{
			Name: "cronos", DisplayName: "Cronos", ChainID: 25,
			NativeCurrency: "CRO",
			MainnetRPCs:    []string{"https://evm.cronos.org", "https://cronos-evm-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://evm-t3.cronos.org"},
			MainnetExplorer: "https://cronoscan.com",
			TestnetExplorer: "https://testnet.cronoscan.com",
			TestnetName:    "Cronos Testnet",
		},
		// 20. Klaytn (Kaia)
		{
			Name: "klaytn", DisplayName: "Klaytn (Kaia)", ChainID: 8217,
			NativeCurrency: "KLAY",
			MainnetRPCs:    []string{"https://public-en.node.kaia.io", "https://kaia.blockpi.network/v1/rpc/public"},
			TestnetRPCs:    []string{"https://public-en-kairos.node.kaia.io"},
			MainnetExplorer: "https://kaiascan.io",
			TestnetExplorer: "https://kairos.kaiascan.io",
			TestnetName:    "Kairos",
		},
		// 21. Aurora
		{
			Name: "aurora", DisplayName: "Aurora", ChainID: 1313161554,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://mainnet.aurora.dev"},
			TestnetRPCs:    []string{"https://testnet.aurora.dev"},
			MainnetExplorer: "https://aurorascan.dev",
			TestnetExplorer: "https://testnet.aurorascan.dev",
			TestnetName:    "Aurora Testnet",
		},
		// 22. Polygon zkEVM
		{
			Name: "polygon-zkevm", DisplayName: "Polygon zkEVM", ChainID: 1101,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://zkevm-rpc.com", "https://polygon-zkevm-rpc.publicnode.com"},
			TestnetRPCs:    []string{"https://rpc.cardona.zkevm-rpc.com"},
			MainnetExplorer: "https://zkevm.polygonscan.com",
			TestnetExplorer: "https://cardona-zkevm.polygonscan.com",
			TestnetName:    "Cardona",
		},
		// 23. Hyperliquid EVM
		{
			Name: "hyperliquid", DisplayName: "Hyperliquid EVM", ChainID: 999,
			NativeCurrency: "HYPE",
			MainnetRPCs:    []string{"https://api.hyperliquid.xyz/evm"},
			TestnetRPCs:    []string{"https://api.hyperliquid-testnet.xyz/evm"},
			MainnetExplorer: "https://app.hyperliquid.xyz/explorer",
			TestnetExplorer: "https://app.hyperliquid-testnet.xyz/explorer",
			TestnetName:    "HyperEVM Testnet",
		},
		// 24. Boba Network
		{
			Name: "boba", DisplayName: "Boba Network", ChainID: 288,
			NativeCurrency: "ETH",
			MainnetRPCs:    []string{"https://mainnet.boba.network", "https://boba-ethereum.gateway.tenderly.co"},
			TestnetRPCs:    []string{"https://sepolia.boba.network"},
			MainnetExplorer: "https://bobascan.com",
			TestnetExplorer: "https://testnet.bobascan.com",
			TestnetName:    "Boba Sepolia",
		},
	}
}
