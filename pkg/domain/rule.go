package domain

import "strconv"

// RuleAction is what a matching rule does to a move.
type RuleAction string

const (
	RuleAllow RuleAction = "allow"
	RuleDeny  RuleAction = "deny"
)

// Valid reports whether the action is one the evaluator understands.
func (a RuleAction) Valid() bool {
	return a == RuleAllow || a == RuleDeny
}

// Rule gates moves between two lanes. From and To are 1-based lane
// positions stored as strings, while lanes themselves are 0-based.
// Rules are not validated against the lane count; dangling rules simply never match.
type Rule struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Action RuleAction `json:"action"`
}

// NewRule builds a rule from 1-based lane positions.
func NewRule(from, to int, action RuleAction) Rule {
	return Rule{
		From:   strconv.Itoa(from),
		To:     strconv.Itoa(to),
		Action: action,
	}
}

// Verdict is the result of evaluating the rule set for one move.
type Verdict int

const (
	VerdictNoMatch Verdict = iota
	VerdictAllow
	VerdictDeny
)

// DefaultPolicy applies when no rule matches a move.
const DefaultPolicy = VerdictAllow

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictDeny:
		return "deny"
	default:
		return "no_match"
	}
}

// Permits reports whether the move may proceed, resolving NoMatch through DefaultPolicy.
func (v Verdict) Permits() bool {
	if v == VerdictNoMatch {
		v = DefaultPolicy
	}
	return v != VerdictDeny
}

// Evaluate scans rules for the first entry matching the 1-based lane positions.
// Duplicates and conflicts are allowed; the first one found wins.
func Evaluate(rules []Rule, from, to int) Verdict {
	fromKey, toKey := strconv.Itoa(from), strconv.Itoa(to)
	for _, r := range rules {
		if r.From != fromKey || r.To != toKey {
			continue
		}
		if r.Action == RuleDeny {
			return VerdictDeny
		}
		return VerdictAllow
	}
	return VerdictNoMatch
}
