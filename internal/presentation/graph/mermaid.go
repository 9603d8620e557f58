package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/swimlane/pkg/domain"
)

// GenerateMermaid draws the movement rules of a board as a Mermaid flowchart.
// Lanes are nodes labelled with their name and block count; allow rules are
// solid edges and deny rules dotted, red edges. Moves no rule matches are
// allowed and are not drawn. Rules pointing at lanes that no longer exist
// get a placeholder node.
func GenerateMermaid(state *domain.BoardState) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	known := make(map[string]bool, len(state.Lanes))
	for i, lane := range state.Lanes {
		id := laneID(strconv.Itoa(i + 1))
		known[id] = true
		sb.WriteString(fmt.Sprintf("    %s[\"%s <br/> %d\"]\n", id, escape(lane.Name), len(lane.Items)))
	}

	for _, rule := range state.Rules {
		for _, pos := range []string{rule.From, rule.To} {
			id := laneID(pos)
			if !known[id] {
				known[id] = true
				sb.WriteString(fmt.Sprintf("    %s[\"lane %s (missing)\"]\n", id, escape(pos)))
			}
		}
	}

	denied := 0
	for _, rule := range state.Rules {
		arrow := "-- allow -->"
		if rule.Action == domain.RuleDeny {
			arrow = "-. deny .->"
			denied++
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", laneID(rule.From), arrow, laneID(rule.To)))
	}

	if denied > 0 {
		sb.WriteString("\n    %% Deny edges\n")
		for i, rule := range state.Rules {
			if rule.Action == domain.RuleDeny {
				sb.WriteString(fmt.Sprintf("    linkStyle %d stroke:#e11d48,color:#e11d48;\n", i))
			}
		}
	}

	return sb.String()
}

func laneID(pos string) string {
	return "L" + sanitizeMermaidID(pos)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
