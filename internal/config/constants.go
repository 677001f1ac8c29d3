package config

import "time"

// GasLimitContractCall is the default gas limit used when the node cannot
// estimate a transaction that does not revert.
const GasLimitContractCall = uint64(200_000)

// Timeout constants used across cmd.
const (
	RPCTimeout       = 15 * time.Second // single JSON-RPC round trip
	TxConfirmTimeout = 3 * time.Minute  // standard transaction confirmation wait
	ReceiptPoll      = 2 * time.Second  // receipt polling while waiting for a transaction
)

// DefaultPollInterval is how often HTTP transports poll for new logs.
const DefaultPollInterval = 4 * time.Second
