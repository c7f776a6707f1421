// Package validation checks parsed sentences against the structural grammar
// of the format: id schemes, range coverage, empty node placement and
// dependency tree shape. Issues are data; the validator never stops at the
// first one.
package validation

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// RootPolicy decides how many words may attach to the artificial root.
type RootPolicy string

const (
	// RootSingle requires exactly one root per sentence.
	RootSingle RootPolicy = "single"
	// RootMultiple accepts any positive number of roots.
	RootMultiple RootPolicy = "multiple"
	// RootFlagged requires one root unless the sentence has "# multiroot = yes".
	RootFlagged RootPolicy = "flagged"
)

// MultirootKey is the comment that marks a sentence as having several roots.
const MultirootKey = "multiroot"

// ParseRootPolicy accepts the policy names used in configuration and flags.
func ParseRootPolicy(s string) (RootPolicy, error) {
	switch p := RootPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RootSingle, RootMultiple, RootFlagged:
		return p, nil
	case "":
		return RootSingle, nil
	}
	return "", fmt.Errorf("unknown root policy %q (want single, multiple or flagged)", s)
}

// Options configures a Validator.
type Options struct {
	RootPolicy RootPolicy
	// Workers bounds how many sentences are checked at once; <= 0 means NumCPU.
	Workers int
	// Strict turns a missing UPOS tag and a sentence without any head into
	// errors instead of warnings.
	Strict bool
}

// Validator applies the structural rules. It holds no per-run state and is
// safe for concurrent use.
type Validator struct {
	policy  RootPolicy
	workers int
	strict  bool
}

// New creates a validator.
func New(opts Options) *Validator {
	if opts.RootPolicy == "" {
		opts.RootPolicy = RootSingle
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Validator{policy: opts.RootPolicy, workers: opts.Workers, strict: opts.Strict}
}

// Policy returns the root policy in use.
func (v *Validator) Policy() RootPolicy {
	return v.policy
}

// Strict reports whether unannotated words and sentences fail a run.
func (v *Validator) Strict() bool {
	return v.strict
}

// Validate checks every sentence and returns all issues ordered by sentence,
// line and rule. The only error is a canceled context.
func (v *Validator) Validate(ctx context.Context, sentences []entities.Sentence) ([]entities.Issue, error) {
	found := make([][]entities.Issue, len(sentences))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range sentences {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[i] = v.CheckSentence(i, &sentences[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var issues []entities.Issue
	for _, f := range found {
		issues = append(issues, f...)
	}
	SortIssues(issues)
	return issues, nil
}

// SortIssues orders issues by sentence index, line and rule order.
func SortIssues(issues []entities.Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		x, y := issues[a], issues[b]
		if x.SentenceIndex != y.SentenceIndex {
			return x.SentenceIndex < y.SentenceIndex
		}
		if x.Line != y.Line {
			return x.Line < y.Line
		}
		return x.Rule.Order() < y.Rule.Order()
	})
}

// CheckSentence runs all rules over one sentence. index is its position in the artifact.
func (v *Validator) CheckSentence(index int, s *entities.Sentence) []entities.Issue {
	c := newChecker(index, s)
	if v.strict {
		c.unannotated = entities.SeverityError
	}
	c.checkIDSequence()
	c.checkRanges()
	c.checkEmptyNodes()
	c.checkHeads()
	c.checkCycles()
	c.checkRoots(v.allowsMultipleRoots(s))
	c.checkTags()
	return c.issues
}

func (v *Validator) allowsMultipleRoots(s *entities.Sentence) bool {
	switch v.policy {
	case RootMultiple:
		return true
	case RootFlagged:
		val, ok := s.MetaValue(MultirootKey)
		return ok && strings.EqualFold(val, "yes")
	}
	return false
}

// checker holds the per-sentence lookups shared by the rules.
type checker struct {
	index    int
	sentence *entities.Sentence
	words    []entities.Node
	byID     map[int]*entities.Node
	cycles   int
	issues   []entities.Issue

	// unannotated is the severity of a missing tag or a sentence with no heads.
	unannotated entities.Severity
}

func newChecker(index int, s *entities.Sentence) *checker {
	c := &checker{
		index:    index,
		sentence: s,
		words:    s.Words(),
		byID:     make(map[int]*entities.Node),

		unannotated: entities.SeverityWarning,
	}
	for i := range c.words {
		if _, dup := c.byID[c.words[i].ID.Start]; !dup {
			c.byID[c.words[i].ID.Start] = &c.words[i]
		}
	}
	return c
}

func (c *checker) add(line int, rule entities.Rule, sev entities.Severity, format string, args ...any) {
	c.issues = append(c.issues, entities.Issue{
		SentenceIndex: c.index,
		SentenceID:    c.sentence.ID,
		Line:          line,
		Rule:          rule,
		Severity:      sev,
		Message:       fmt.Sprintf(format, args...),
	})
}

func (c *checker) isWord(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// blockLine is the line used for sentence-level issues.
func (c *checker) blockLine() int {
	if len(c.words) > 0 {
		return c.words[0].Line
	}
	if len(c.sentence.Nodes) > 0 {
		return c.sentence.Nodes[0].Line
	}
	return c.sentence.Line
}

func (c *checker) checkIDSequence() {
	if len(c.words) == 0 {
		c.add(c.blockLine(), entities.RuleIDSequence, entities.SeverityError, "sentence has no word nodes")
		return
	}

	expected := 1
	seen := make(map[int]bool, len(c.words))
	for _, w := range c.words {
		id := w.ID.Start
		switch {
		case seen[id]:
			c.add(w.Line, entities.RuleIDSequence, entities.SeverityError, "duplicate word id %d", id)
		case id < expected:
			c.add(w.Line, entities.RuleIDSequence, entities.SeverityError, "word id %d out of order, expected %d", id, expected)
		case id > expected:
			c.add(w.Line, entities.RuleIDSequence, entities.SeverityError, "word id %d leaves a gap, expected %d", id, expected)
		}
		seen[id] = true
		if id+1 > expected {
			expected = id + 1
		}
	}
}

func (c *checker) checkRanges() {
	var accepted []entities.ID
	for _, n := range c.sentence.Nodes {
		if n.ID.Kind != entities.KindRange {
			continue
		}
		r := n.ID
		switch {
		case r.Start >= r.End:
			c.add(n.Line, entities.RuleRangeBounds, entities.SeverityError,
				"range %s: start must be less than end", r)
			continue
		case !c.isWord(r.Start) || !c.isWord(r.End):
			c.add(n.Line, entities.RuleRangeBounds, entities.SeverityError,
				"range %s: %s", r, missingBounds(r, c.isWord))
			continue
		}
		for _, prev := range accepted {
			if r.Start <= prev.End && prev.Start <= r.End {
				c.add(n.Line, entities.RuleRangeBounds, entities.SeverityError,
					"range %s overlaps range %s", r, prev)
				break
			}
		}
		accepted = append(accepted, r)
	}
}

func missingBounds(r entities.ID, isWord func(int) bool) string {
	var missing []string
	for _, b := range []int{r.Start, r.End} {
		if !isWord(b) {
			missing = append(missing, strconv.Itoa(b))
		}
	}
	return "word id " + strings.Join(missing, " and ") + " does not exist"
}

func (c *checker) checkEmptyNodes() {
	lastMinor := make(map[int]int)
	prevWord := 0
	for _, n := range c.sentence.Nodes {
		switch n.ID.Kind {
		case entities.KindWord:
			prevWord = n.ID.Start
			continue
		case entities.KindRange:
			continue
		}

		major, minor := n.ID.Start, n.ID.Minor
		switch {
		case major != 0 && !c.isWord(major):
			c.add(n.Line, entities.RuleDecimalOrder, entities.SeverityError,
				"empty node %s: word %d does not exist", n.ID, major)
		case minor == lastMinor[major]:
			c.add(n.Line, entities.RuleDecimalOrder, entities.SeverityError,
				"duplicate empty node %s", n.ID)
		case minor < lastMinor[major]:
			c.add(n.Line, entities.RuleDecimalOrder, entities.SeverityError,
				"empty node %s must follow %d.%d", n.ID, major, lastMinor[major])
		case prevWord != major:
			c.add(n.Line, entities.RuleDecimalOrder, entities.SeverityError,
				"empty node %s must come directly after word %d", n.ID, major)
		}
		if minor > lastMinor[major] {
			lastMinor[major] = minor
		}
	}
}

func (c *checker) checkHeads() {
	for _, n := range c.sentence.Nodes {
		switch n.ID.Kind {
		case entities.KindRange:
			if n.Head.Set || n.Deprel != "" {
				c.add(n.Line, entities.RuleInvalidHead, entities.SeverityError,
					"multiword token %s must not have a head or relation", n.ID)
			}
		case entities.KindWord:
			if n.Head.Set && n.Head.ID != 0 && !c.isWord(n.Head.ID) {
				c.add(n.Line, entities.RuleInvalidHead, entities.SeverityError,
					"word %d: head %d is not a word in this sentence", n.ID.Start, n.Head.ID)
			}
		}
	}
}

// parent returns the governing word of id, if it has one inside the sentence.
func (c *checker) parent(id int) (int, bool) {
	w := c.byID[id]
	if w == nil || !w.Head.Set || w.Head.ID == 0 || !c.isWord(w.Head.ID) {
		return 0, false
	}
	return w.Head.ID, true
}

// checkCycles follows every head chain once. A chain that returns to a node
// on the current path is a cycle; a chain reaching a settled node is not.
func (c *checker) checkCycles() {
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	settled := make(map[int]bool, len(ids))
	limit := len(ids) + 1
	for _, start := range ids {
		if settled[start] {
			continue
		}
		onPath := make(map[int]int)
		var path []int
		cur := start
		for steps := 0; steps <= limit; steps++ {
			if settled[cur] {
				break
			}
			if at, ok := onPath[cur]; ok {
				c.reportCycle(path[at:])
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)
			next, ok := c.parent(cur)
			if !ok {
				break
			}
			cur = next
		}
		for _, id := range path {
			settled[id] = true
		}
	}
}

func (c *checker) reportCycle(members []int) {
	c.cycles++

	low := 0
	for i, id := range members {
		if id < members[low] {
			low = i
		}
	}
	chain := make([]string, 0, len(members)+1)
	for i := range members {
		chain = append(chain, strconv.Itoa(members[(low+i)%len(members)]))
	}
	chain = append(chain, chain[0])

	c.add(c.byID[members[low]].Line, entities.RuleCycle, entities.SeverityError,
		"dependency cycle %s", strings.Join(chain, " -> "))
}

func (c *checker) checkRoots(multipleAllowed bool) {
	if len(c.words) == 0 {
		return
	}

	var roots []*entities.Node
	attached := 0
	for i := range c.words {
		w := &c.words[i]
		if w.Head.Set {
			attached++
		}
		if w.Head.IsRoot() {
			roots = append(roots, w)
		}
	}

	switch {
	case attached == 0:
		c.add(c.blockLine(), entities.RuleRootCount, c.unannotated,
			"sentence has no dependency annotation")
	case len(roots) == 0:
		if c.cycles == 0 {
			c.add(c.blockLine(), entities.RuleRootCount, entities.SeverityError,
				"sentence has no root")
		}
	case len(roots) > 1 && !multipleAllowed:
		ids := make([]string, len(roots))
		for i, r := range roots {
			ids[i] = strconv.Itoa(r.ID.Start)
		}
		c.add(roots[1].Line, entities.RuleRootCount, entities.SeverityError,
			"sentence has %d roots (words %s), expected exactly one", len(roots), strings.Join(ids, ", "))
	}
}

func (c *checker) checkTags() {
	for _, n := range c.sentence.Nodes {
		if n.ID.Kind == entities.KindRange {
			continue
		}
		switch {
		case n.UPOS == "":
			if n.ID.Kind == entities.KindWord {
				c.add(n.Line, entities.RuleUnknownTag, c.unannotated,
					"word %s has no UPOS tag", n.ID)
			}
		case !entities.IsKnownUPOS(n.UPOS):
			c.add(n.Line, entities.RuleUnknownTag, entities.SeverityError,
				"unknown UPOS tag %q on %s", n.UPOS, n.ID)
		}
	}
}
