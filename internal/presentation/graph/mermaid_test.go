package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/swimlane/internal/presentation/graph"
	"github.com/aretw0/swimlane/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	board := func(rules ...domain.Rule) *domain.BoardState {
		s := domain.DefaultState()
		s.Lanes[0].Items = append(s.Lanes[0].Items, domain.NewBlock("A"), domain.NewBlock("B"))
		s.Rules = rules
		return s
	}

	tests := []struct {
		name        string
		state       *domain.BoardState
		contains    []string
		notContains []string
	}{
		{
			name:  "Lanes As Nodes",
			state: board(),
			contains: []string{
				"graph LR",
				"L1[\"Lane 1 <br/> 2\"]",
				"L3[\"Lane 3 <br/> 0\"]",
			},
			notContains: []string{"-->", "linkStyle"},
		},
		{
			name:  "Allow And Deny Edges",
			state: board(domain.NewRule(1, 2, domain.RuleAllow), domain.NewRule(1, 3, domain.RuleDeny)),
			contains: []string{
				"L1 -- allow --> L2",
				"L1 -. deny .-> L3",
				"linkStyle 1 stroke:#e11d48",
			},
			notContains: []string{"linkStyle 0"},
		},
		{
			name:  "Dangling Rule",
			state: board(domain.NewRule(2, 9, domain.RuleDeny)),
			contains: []string{
				"L9[\"lane 9 (missing)\"]",
				"L2 -. deny .-> L9",
			},
		},
		{
			name:  "Quotes Escaped",
			state: &domain.BoardState{Lanes: []domain.Lane{domain.NewLane(`say "hi"`)}},
			contains: []string{
				"L1[\"say 'hi' <br/> 0\"]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.state)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q\ngot:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("expected output not to contain %q\ngot:\n%s", unwanted, got)
				}
			}
		})
	}
}
