package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/binding"
	"github.com/Mohsinsiddi/w3bind/internal/codec"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	watchMatch       []string
	watchPlain       bool
	watchFromBlock   int64
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch [address|-] <event>",
	Short: "Stream decoded events from a contract",
	Long: `Subscribe to one event and stream each log decoded into named values.

Without an address (or with "-" and no --contract) the event is matched
on every contract that emits it.

Filter on indexed inputs with --match <input>=<value>, where <input> is the
input's name or its position among the indexed inputs. Repeat a --match for
the same input to accept any of several values.

Websocket and IPC endpoints use native subscriptions; HTTP endpoints poll
every poll_interval seconds. With --from-block, past logs are backfilled
before the live stream starts; a log mined in the head block during the
switch may appear twice or not at all.

Examples:
  w3bind watch 0xA0b8...eB48 Transfer --abi builtin:erc20 --match to=0xd8dA...6045
  w3bind watch -c allocations AllocationUpdated --match 0=0xOperator
  w3bind watch -c usdc - Approval --plain --from-block 19000000
  w3bind watch Transfer --abi builtin:erc20 --match to=0xd8dA...6045 --plain
  w3bind watch -c usdc Transfer --plain --metrics-addr :9102`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if contractFlag == "" && len(args) == 1 {
			args = append([]string{"-"}, args...)
		}
		t, err := resolveTarget(ctx, args, true)
		if err != nil {
			return err
		}
		if len(t.Args) > 0 {
			return fmt.Errorf("unexpected arguments %v, use --match to filter", t.Args)
		}

		// The TUI owns the terminal; keep pipeline logs off it.
		l := logger
		if !watchPlain {
			l = newLogger(io.Discard)
		}

		var extra []binding.Option
		if watchMetricsAddr != "" {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			extra = append(extra, binding.WithMetrics(binding.NewMetrics(reg)))
			srv := serveMetrics(watchMetricsAddr, reg, l)
			defer srv.Close()
		}

		backend, err := dial(ctx, l)
		if err != nil {
			return err
		}
		defer backend.Close()

		w, err := t.factory(l, backend, extra...).BindWatch(t.Member)
		if err != nil {
			return err
		}
		match, err := parseMatch(w.Entry(), watchMatch)
		if err != nil {
			return err
		}

		var backlog []binding.Delivery
		if cmd.Flags().Changed("from-block") {
			backlog, err = backfill(ctx, w, backend, match)
			if err != nil {
				return err
			}
		}

		sub, err := w.Watch(ctx, match...)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
		l.Debug("watching", "subscription", sub.ID(), "event", w.Entry().Signature(), "backfilled", len(backlog))

		if watchPlain {
			return streamPlain(w.Entry(), backlog, sub)
		}
		return streamTUI(w.Entry(), t.Label, backlog, sub)
	},
}

// parseMatch turns "input=value" specs into one match slot per indexed input.
func parseMatch(entry abi.Entry, specs []string) ([][]any, error) {
	indexed := entry.Indexed()
	var match [][]any
	for _, spec := range specs {
		key, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --match %q, expected <input>=<value>", spec)
		}
		pos := -1
		if n, err := strconv.Atoi(key); err == nil {
			pos = n
		} else {
			for i, p := range indexed {
				if p.Name == key {
					pos = i
					break
				}
			}
		}
		if pos < 0 || pos >= len(indexed) {
			return nil, fmt.Errorf("%s has no indexed input %q", entry.Signature(), key)
		}
		v, err := codec.ParseArg(indexed[pos].Type, raw)
		if err != nil {
			return nil, fmt.Errorf("--match %s: %w", key, err)
		}
		for len(match) <= pos {
			match = append(match, nil)
		}
		match[pos] = append(match[pos], v)
	}
	return match, nil
}

type headReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

func backfill(ctx context.Context, w *binding.Watcher, head headReader, match [][]any) ([]binding.Delivery, error) {
	to, err := head.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching head block: %w", err)
	}
	from := big.NewInt(watchFromBlock)
	if watchFromBlock < 0 {
		from = new(big.Int).SetInt64(max(int64(to)+watchFromBlock, 0))
	}
	return w.Backfill(ctx, from, new(big.Int).SetUint64(to), match...)
}

// eventRow flattens a decoded event for display.
func eventRow(e *binding.Event) ui.EventRow {
	row := ui.EventRow{
		Block:    e.Log.BlockNumber,
		TxHash:   e.Log.TxHash.Hex(),
		LogIndex: e.Log.Index,
		Removed:  e.Log.Removed,
		TxURL:    txURL(e.Log.TxHash.Hex()),
	}
	for i, v := range e.Values {
		name := e.Names[i]
		if name == "" {
			name = fmt.Sprintf("[%d]", i)
		}
		row.Fields = append(row.Fields, [2]string{name, codec.Format(v)})
	}
	return row
}

func streamPlain(entry abi.Entry, backlog []binding.Delivery, sub *binding.Subscription) error {
	name := entry.Name
	emit := func(d binding.Delivery) {
		if d.Err != nil {
			fmt.Fprintln(os.Stderr, ui.Warn(d.Err.Error()))
			return
		}
		fmt.Println(eventRow(d.Event).PlainLine(name))
	}
	for _, d := range backlog {
		emit(d)
	}
	for d := range sub.Deliveries() {
		emit(d)
	}
	return <-sub.Err()
}

func streamTUI(entry abi.Entry, label string, backlog []binding.Delivery, sub *binding.Subscription) error {
	model := ui.NewEventModel(entry.Signature(), label, activeNetwork())
	prog := tea.NewProgram(model, tea.WithAltScreen())

	send := func(d binding.Delivery) {
		if d.Err != nil {
			prog.Send(ui.DecodeErrMsg{Err: d.Err})
			return
		}
		prog.Send(ui.EventMsg(eventRow(d.Event)))
	}
	go func() {
		prog.Send(ui.StreamStatusMsg{SubscriptionID: sub.ID(), Backfilled: len(backlog)})
		for _, d := range backlog {
			send(d)
		}
		for d := range sub.Deliveries() {
			send(d)
		}
		prog.Send(ui.StreamEndMsg{Err: <-sub.Err()})
	}()

	final, err := prog.Run()
	sub.Unsubscribe()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.EventModel); ok {
		return m.Err()
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, l hclog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	l.Info("serving metrics", "addr", addr)
	return srv
}

func init() {
	watchCmd.Flags().StringArrayVarP(&watchMatch, "match", "m", nil, "filter an indexed input: <name|position>=<value> (repeatable)")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print one line per event instead of the interactive view")
	watchCmd.Flags().Int64Var(&watchFromBlock, "from-block", 0, "backfill from this block first (negative: blocks before head)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}
