package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/swimlane/pkg/domain"
)

// BoardMarkdown renders a board as markdown: one section per lane listing its
// blocks with their history size, followed by the rules table.
func BoardMarkdown(key string, state *domain.BoardState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", key)

	for i, lane := range state.Lanes {
		fmt.Fprintf(&sb, "## %d. %s (%d)\n\n", i, lane.Name, len(lane.Items))
		if len(lane.Items) == 0 {
			sb.WriteString("_empty_\n\n")
			continue
		}
		for j, block := range lane.Items {
			fmt.Fprintf(&sb, "%d. **%s** `%s`", j, block.Name, shortID(block.ID))
			if n := len(block.History); n > 0 {
				fmt.Fprintf(&sb, " (%d %s)", n, plural(n, "change", "changes"))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(RulesMarkdown(state))
	return sb.String()
}

// RulesMarkdown renders the rules as a table, in evaluation order.
func RulesMarkdown(state *domain.BoardState) string {
	if len(state.Rules) == 0 {
		return "_No rules: every move is allowed._\n"
	}

	var sb strings.Builder
	sb.WriteString("| # | From | To | Action |\n|---|---|---|---|\n")
	for i, r := range state.Rules {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i, laneLabel(state, r.From), laneLabel(state, r.To), r.Action)
	}
	return sb.String()
}

// HistoryMarkdown renders the audit trail of one block, oldest first.
func HistoryMarkdown(block domain.Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", block.Name)
	if len(block.History) == 0 {
		sb.WriteString("_No history._\n")
		return sb.String()
	}
	for _, h := range block.History {
		fmt.Fprintf(&sb, "- `%s` **%s** %s\n", h.Timestamp.Format("2006-01-02 15:04:05Z07:00"), h.Action, h.Detail)
	}
	return sb.String()
}

func laneLabel(state *domain.BoardState, pos string) string {
	var n int
	if _, err := fmt.Sscanf(pos, "%d", &n); err == nil && n >= 1 && n <= len(state.Lanes) {
		return fmt.Sprintf("%s (%s)", state.Lanes[n-1].Name, pos)
	}
	return pos
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
