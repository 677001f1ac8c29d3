package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bind/internal/abi"
	"github.com/Mohsinsiddi/w3bind/internal/ui"
	"github.com/spf13/cobra"
)

var membersKind string

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the functions, events and errors of an ABI",
	Long: `List every member of an ABI with its canonical signature and
selector (functions, errors) or topic (events).

Overloaded members share a name; call them by full signature.

Examples:
  w3bind members --abi builtin:erc20
  w3bind members --abi ./out/Vault.sol/Vault.json --kind event
  w3bind members --contract allocations --kind function`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := resolveSource(cmd.Context(), nil, false)
		if err != nil {
			return err
		}

		kinds := []abi.Kind{abi.KindFunction, abi.KindEvent, abi.KindError}
		if membersKind != "" {
			k := abi.Kind(strings.ToLower(membersKind))
			if !k.Named() {
				return fmt.Errorf("--kind must be function, event or error, got %q", membersKind)
			}
			kinds = []abi.Kind{k}
		}

		for _, kind := range kinds {
			entries := t.ABI.Members(kind)
			if len(entries) == 0 {
				continue
			}
			fmt.Println(membersTable(kind, entries))
		}
		fmt.Println(ui.Meta(fmt.Sprintf("%d members total", t.ABI.Len())))
		return nil
	},
}

func membersTable(kind abi.Kind, entries []abi.Entry) string {
	hashTitle := "Selector"
	if kind == abi.KindEvent {
		hashTitle = "Topic"
	}
	tbl := ui.NewTable([]ui.Column{
		{Title: "Signature"},
		{Title: hashTitle},
		{Title: "Mutability"},
		{Title: "Returns"},
	})
	for _, e := range entries {
		hash := e.SelectorHex()
		if kind == abi.KindEvent {
			hash = "anonymous"
			if topic, ok := e.Topic(); ok {
				hash = topic.Hex()
			}
		}
		tbl.AddRow(ui.Row{
			e.Signature(),
			hash,
			string(e.Mutability),
			paramTypes(e.Outputs),
		})
	}
	return ui.StyleTitle.Render(strings.ToUpper(string(kind))+"S") + "\n" + tbl.Render()
}

func paramTypes(params []abi.Param) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Type.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func init() {
	membersCmd.Flags().StringVar(&membersKind, "kind", "", "only list one kind: function, event or error")
}
