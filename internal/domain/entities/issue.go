package entities

import "fmt"

// Rule names a structural check.
type Rule string

const (
	RuleIDSequence   Rule = "IdSequenceError"
	RuleRangeBounds  Rule = "RangeBoundsError"
	RuleDecimalOrder Rule = "DecimalOrderError"
	RuleInvalidHead  Rule = "InvalidHeadError"
	RuleCycle        Rule = "CycleError"
	RuleRootCount    Rule = "RootCountError"
	RuleUnknownTag   Rule = "UnknownTagError"
)

// Rules lists every rule in the order the validator applies them.
var Rules = []Rule{
	RuleIDSequence,
	RuleRangeBounds,
	RuleDecimalOrder,
	RuleInvalidHead,
	RuleCycle,
	RuleRootCount,
	RuleUnknownTag,
}

// Order returns the position of r in Rules, or len(Rules) for an unknown rule.
func (r Rule) Order() int {
	for i, known := range Rules {
		if known == r {
			return i
		}
	}
	return len(Rules)
}

// Severity of an issue. Only errors fail a run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one violation found by the validator.
type Issue struct {
	SentenceIndex int      `json:"sentence_index"`
	SentenceID    string   `json:"sentence_id,omitempty"`
	Line          int      `json:"line"`
	Rule          Rule     `json:"rule"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
}

func (i Issue) String() string {
	loc := fmt.Sprintf("line %d", i.Line)
	if i.SentenceID != "" {
		loc += fmt.Sprintf(" (sent_id %s)", i.SentenceID)
	}
	return fmt.Sprintf("%s: %s: [%s] %s", i.Severity, loc, i.Rule, i.Message)
}
