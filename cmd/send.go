package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/chain"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/Mohsinsiddi/w3bind/internal/config"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var (
	sendValue    string
	sendWallet   string
	sendGasLimit uint64
	sendNonce    uint64
	sendNoSend   bool
	sendNoWait   bool
	sendYes      bool
)

var sendCmd = &cobra.Command{
	Use:   "send <address> <member> [args...]",
	Short: "Send a transaction to a nonpayable or payable function",
	Long: `Sign and broadcast a transaction calling a state-changing function.

Nonce, gas limit and fees are filled from the node unless overridden. A
payable function requires --value (use 0 to send nothing); a nonpayable one
rejects it. --value takes wei, or a unit suffix: 1.5ether, 20gwei.

The call's return value is not available from a transaction; read state or
watch events to observe the outcome.

Examples:
  w3bind send -c usdc transfer 0xd8dA...6045 1000000 --wallet ops
  w3bind send 0xVault deposit --abi ./Vault.json --value 0.1ether
  w3bind send -c allocations "pause(uint256)" 1 --no-send     # sign only, print raw tx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := resolveTarget(ctx, args, true)
		if err != nil {
			return err
		}

		mgr := newWalletManager()
		w, err := pickWallet(mgr, sendWallet)
		if err != nil {
			return err
		}
		signer, err := mgr.Signer(w.Name)
		if err != nil {
			return err
		}

		backend, err := dial(ctx, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		f := t.factory(logger, backend)
		writer, err := f.BindWrite(t.Member)
		if err != nil {
			return err
		}
		entry := writer.Entry()
		values, err := codec.ParseArgs(entry.Inputs, t.Args)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Signature(), err)
		}

		rpcCtx, cancel := context.WithTimeout(ctx, config.RPCTimeout)
		chainID, err := backend.ChainID(rpcCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("fetching chain id: %w", err)
		}
		if msg := chainMismatch(chain.NewRegistry(), activeNetwork(), cfg.NetworkMode, chainID); msg != "" {
			fmt.Fprintln(os.Stderr, ui.Warn(msg))
		}

		opts := signer.TransactOpts(chainID)
		opts.GasLimit = sendGasLimit
		opts.NoSend = sendNoSend
		if cmd.Flags().Changed("nonce") {
			opts.Nonce = new(big.Int).SetUint64(sendNonce)
		}
		if sendValue != "" {
			if opts.Value, err = chain.ParseValue(sendValue); err != nil {
				return err
			}
		}

		fmt.Println(ui.KeyValueBlock("Transaction Preview", txPreview(t, entry, w.Name, opts.Value, values, chainID)))
		if !sendYes && !sendNoSend && !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Broadcast this transaction?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		spin := ui.NewSpinner(os.Stderr, "Signing and broadcasting...")
		spin.Start()
		rpcCtx, cancel = context.WithTimeout(ctx, config.RPCTimeout)
		h, err := writer.Send(rpcCtx, opts, values...)
		cancel()
		if err != nil {
			spin.Stop()
			return err
		}
		if h.Sent {
			spin.StopWithMsg(ui.Success("Transaction sent!"))
		} else {
			spin.StopWithMsg(ui.Meta("Signed, not broadcast."))
		}

		if !h.Sent {
			raw, err := h.Tx.MarshalBinary()
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Signed Transaction", [][2]string{
				{"Hash", ui.Val(h.Hash.Hex())},
				{"Nonce", fmt.Sprintf("%d", h.Tx.Nonce())},
				{"Gas Limit", fmt.Sprintf("%d", h.Tx.Gas())},
				{"Raw", hexutil.Encode(raw)},
			}))
			fmt.Println(ui.Hint("Not broadcast. Submit the raw transaction with any eth_sendRawTransaction client."))
			return nil
		}

		fmt.Println(ui.Addr("Hash: " + h.Hash.Hex()))
		if u := txURL(h.Hash.Hex()); u != "" {
			fmt.Println(ui.Meta(u))
		}
		if sendNoWait {
			return nil
		}

		spin = ui.NewSpinner(os.Stderr, "Waiting for confirmation...")
		spin.Start()
		waitCtx, cancel := context.WithTimeout(ctx, config.TxConfirmTimeout)
		defer cancel()
		receipt, err := chain.WaitMined(waitCtx, backend, h.Hash, config.ReceiptPoll)
		if err != nil {
			spin.Stop()
		} else {
			spin.StopWithMsg(ui.Success(fmt.Sprintf("Mined in block %d", receipt.BlockNumber)))
		}
		if receipt != nil {
			fmt.Println(ui.KeyValueBlock("Receipt", receiptPairs(receipt)))
		}
		return err
	},
}

func txPreview(t *target, entry abi.Entry, walletName string, value *big.Int, args []any, chainID *big.Int) [][2]string {
	pairs := [][2]string{
		{"From", walletName},
		{"To", ui.Addr(t.Label)},
		{"Function", ui.Val(entry.Signature())},
	}
	for _, p := range valuePairs(entry.Inputs, args) {
		pairs = append(pairs, [2]string{"  " + p[0], p[1]})
	}
	if value != nil {
		pairs = append(pairs, [2]string{"Value", chain.WeiToETH(value) + " (" + value.String() + " wei)"})
	}
	pairs = append(pairs, [2]string{"Network", fmt.Sprintf("%s (chain %s, %s)", activeNetwork(), chainID, cfg.NetworkMode)})
	return pairs
}

// chainMismatch describes how the endpoint's chain differs from the selected
// network and mode, or returns "" when they agree or the chain is unknown.
func chainMismatch(reg *chain.Registry, network, mode string, chainID *big.Int) string {
	if chainID == nil || !chainID.IsInt64() {
		return ""
	}
	n, err := reg.GetByChainID(chainID.Int64())
	if err != nil {
		return ""
	}
	if !strings.EqualFold(n.Name, network) {
		return fmt.Sprintf("endpoint is on %s (chain %s), not %s", n.DisplayName, chainID, network)
	}
	if mode == "testnet" {
		return fmt.Sprintf("endpoint is %s mainnet (chain %s) but mode is testnet", n.DisplayName, chainID)
	}
	return ""
}

func receiptPairs(r *types.Receipt) [][2]string {
	status := ui.Success("success")
	if r.Status != types.ReceiptStatusSuccessful {
		status = ui.Err("reverted")
	}
	pairs := [][2]string{
		{"Status", status},
		{"Block", fmt.Sprintf("%d", r.BlockNumber)},
		{"Gas Used", fmt.Sprintf("%d", r.GasUsed)},
	}
	if len(r.Logs) > 0 {
		topics := make([]string, 0, len(r.Logs))
		for _, l := range r.Logs {
			if len(l.Topics) > 0 {
				topics = append(topics, l.Topics[0].Hex()[:10])
			}
		}
		pairs = append(pairs, [2]string{"Logs", fmt.Sprintf("%d (%s)", len(r.Logs), strings.Join(topics, ", "))})
	}
	return pairs
}

func init() {
	sendCmd.Flags().StringVar(&sendValue, "value", "", "native value to attach: wei, or with unit suffix (0.1ether, 20gwei)")
	sendCmd.Flags().StringVarP(&sendWallet, "wallet", "w", "", "signing wallet (default: config)")
	sendCmd.Flags().Uint64Var(&sendGasLimit, "gas-limit", 0, "gas limit (default: estimate)")
	sendCmd.Flags().Uint64Var(&sendNonce, "nonce", 0, "nonce (default: pending nonce)")
	sendCmd.Flags().BoolVar(&sendNoSend, "no-send", false, "sign but do not broadcast; print the raw transaction")
	sendCmd.Flags().BoolVar(&sendNoWait, "no-wait", false, "do not wait for the receipt")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
}
