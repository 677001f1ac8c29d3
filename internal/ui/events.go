package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const maxEventRows = 500

// EventRow is one decoded log in the live stream.
type EventRow struct {
	Block    uint64
	TxHash   string
	LogIndex uint
	Fields   [][2]string // name, formatted value, in declaration order
	Removed  bool        // dropped by a reorg
	TxURL    string      // explorer link, may be empty
}

// Summary renders the fields on one line: name=value, ...
func (r EventRow) Summary() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f[0] + "=" + f[1]
	}
	return strings.Join(parts, " ")
}

// PlainLine renders the row for non-interactive output.
func (r EventRow) PlainLine(event string) string {
	prefix := ""
	if r.Removed {
		prefix = "[removed] "
	}
	return fmt.Sprintf("%s#%d %s:%d %s %s", prefix, r.Block, r.TxHash, r.LogIndex, event, r.Summary())
}

// EventMsg delivers a decoded event to the model.
type EventMsg EventRow

// DecodeErrMsg reports a log that matched the filter but failed to decode.
type DecodeErrMsg struct{ Err error }

// StreamEndMsg reports that the subscription ended. Err is nil when it was
// stopped on purpose.
type StreamEndMsg struct{ Err error }

// StreamStatusMsg updates the status bar.
type StreamStatusMsg struct {
	SubscriptionID string
	Backfilled     int
}

// EventModel is the Bubble Tea model for the live event stream.
type EventModel struct {
	Event    string // canonical event signature
	Contract string
	Network  string

	rows       []EventRow
	cursor     int
	expanded   bool
	status     StreamStatusMsg
	decodeErrs int
	lastErr    string
	endErr     error
	frame      int
	quitting   bool
	flash      string
}

// NewEventModel creates the stream view for event on contract.
func NewEventModel(event, contract, network string) EventModel {
	return EventModel{Event: event, Contract: contract, Network: network}
}

// Rows returns the received rows, newest first.
func (m EventModel) Rows() []EventRow { return m.rows }

// Err returns the error that ended the stream, if any.
func (m EventModel) Err() error { return m.endErr }

type eventTickMsg struct{}

func eventSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return eventTickMsg{}
	})
}

func (m EventModel) Init() tea.Cmd { return eventSpinTick() }

func (m EventModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case "enter", " ":
			m.expanded = !m.expanded

		case "o":
			if m.cursor < len(m.rows) {
				if url := m.rows[m.cursor].TxURL; url == "" {
					m.flash = "No explorer URL available"
				} else if err := openBrowser(url); err != nil {
					m.flash = "Open failed"
				} else {
					m.flash = "Opening in browser…"
				}
			}

		case "c":
			if m.cursor < len(m.rows) {
				hash := m.rows[m.cursor].TxHash
				if err := copyToClipboard(hash); err == nil {
					m.flash = "Copied: " + TruncateAddr(hash)
				} else {
					m.flash = "Copy failed"
				}
			}
		}

	case eventTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		if m.endErr != nil {
			return m, nil
		}
		return m, eventSpinTick()

	case EventMsg:
		// New events prepend so latest is at top; keep the cursor on its row.
		m.rows = append([]EventRow{EventRow(msg)}, m.rows...)
		if len(m.rows) > 1 {
			m.cursor++
		}
		if len(m.rows) > maxEventRows {
			m.rows = m.rows[:maxEventRows]
		}
		if m.cursor >= len(m.rows) {
			m.cursor = len(m.rows) - 1
		}

	case DecodeErrMsg:
		m.decodeErrs++
		m.lastErr = msg.Err.Error()

	case StreamStatusMsg:
		m.status = msg

	case StreamEndMsg:
		m.endErr = msg.Err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m EventModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	// ── Title ─────────────────────────────────────────────────────────────
	title := fmt.Sprintf("👁  %s  ·  %s  ·  %s", m.Event, TruncateAddr(m.Contract), m.Network)
	sb.WriteString(StyleTitle.Render(title) + "\n")

	// ── Status bar ────────────────────────────────────────────────────────
	switch {
	case m.status.SubscriptionID == "":
		sb.WriteString(StyleMeta.Render("  connecting…") + "\n")
	default:
		id := m.status.SubscriptionID
		if len(id) > 8 {
			id = id[:8]
		}
		line := fmt.Sprintf("%s listening  ·  sub %s", spinnerFrames[m.frame], id)
		if m.status.Backfilled > 0 {
			line += fmt.Sprintf("  ·  %d backfilled", m.status.Backfilled)
		}
		sb.WriteString(StyleInfo.Render(line) + "\n")
	}
	if m.decodeErrs > 0 {
		sb.WriteString(StyleWarning.Render(fmt.Sprintf("  %d undecodable log(s), last: %s", m.decodeErrs, trimErr(m.lastErr, 60))) + "\n")
	}
	sb.WriteString("\n")

	// ── Rows ─────────────────────────────────────────────────────────────
	const (
		wBlk  = 10
		wHash = 14
	)
	sb.WriteString(padR(StyleDim.Render("BLOCK"), wBlk) + "  " +
		padR(StyleDim.Render("TX"), wHash) + "  " +
		StyleDim.Render("FIELDS") + "\n")
	sep := StyleMeta.Render(strings.Repeat("─", 72))
	sb.WriteString(sep + "\n")

	if len(m.rows) == 0 {
		sb.WriteString(StyleMeta.Render("  Waiting for events…") + "\n")
	} else {
		for i, row := range m.rows {
			blk := fmt.Sprintf("#%d", row.Block)
			if row.Removed {
				blk = "✗" + blk
			}
			line := padR(StyleMeta.Render(blk), wBlk) + "  " +
				padR(StyleAddress.Render(TruncateAddr(row.TxHash)), wHash) + "  " +
				trimErr(row.Summary(), 80)
			if i == m.cursor {
				sb.WriteString(StyleSelected.Render(line) + "\n")
				if m.expanded {
					pairs := append([][2]string{}, row.Fields...)
					pairs = append(pairs, [2]string{"tx", row.TxHash}, [2]string{"log index", fmt.Sprint(row.LogIndex)})
					sb.WriteString(KeyValueBlock("", pairs) + "\n")
				}
			} else {
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString(sep + "\n")
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  %d event(s)", len(m.rows))) + "\n")
	}

	// ── Controls ─────────────────────────────────────────────────────────
	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	} else {
		sb.WriteString(eventControls())
	}
	sb.WriteString("\n")

	return sb.String()
}

func eventControls() string {
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ ↑↓ ]") + StyleMeta.Render(" navigate") + sep)
	sb.WriteString(StyleMeta.Render("[ ⏎ ]") + StyleMeta.Render(" details") + sep)
	sb.WriteString(StyleInfo.Render("[ o ]") + StyleMeta.Render(" open tx") + sep)
	sb.WriteString(StyleWarning.Render("[ c ]") + StyleMeta.Render(" copy hash") + sep)
	sb.WriteString(StyleMeta.Render("[ q ]") + StyleMeta.Render(" quit"))
	return sb.String()
}
