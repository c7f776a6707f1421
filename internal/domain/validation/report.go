package validation

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// WorstLimit is how many issues a report lists.
const WorstLimit = 10

// RuleCount is the number of issues one rule produced.
type RuleCount struct {
	Rule  entities.Rule `json:"rule"`
	Count int           `json:"count"`
}

// TagCount is how often one UPOS tag occurs on words.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Report is the pass/fail summary of one validation run.
type Report struct {
	Sentences int              `json:"sentences"`
	Issues    int              `json:"issues"`
	Errors    int              `json:"errors"`
	Warnings  int              `json:"warnings"`
	ByRule    []RuleCount      `json:"by_rule"`
	Worst     []entities.Issue `json:"worst"`
	UPOS      []TagCount       `json:"upos"`
	Pass      bool             `json:"pass"`
}

// Summarize aggregates issues found in an artifact of sentenceCount sentences.
// The run passes iff no issue has error severity.
func Summarize(sentenceCount int, issues []entities.Issue) Report {
	r := Report{
		Sentences: sentenceCount,
		Issues:    len(issues),
		ByRule:    make([]RuleCount, len(entities.Rules)),
		Worst:     []entities.Issue{},
		UPOS:      []TagCount{},
	}

	for i, rule := range entities.Rules {
		r.ByRule[i].Rule = rule
	}
	for _, is := range issues {
		if is.Severity == entities.SeverityError {
			r.Errors++
		} else {
			r.Warnings++
		}
		if o := is.Rule.Order(); o < len(r.ByRule) {
			r.ByRule[o].Count++
		}
	}
	r.Pass = r.Errors == 0

	worst := append([]entities.Issue(nil), issues...)
	sort.SliceStable(worst, func(a, b int) bool {
		x, y := worst[a], worst[b]
		if x.Severity != y.Severity {
			return x.Severity == entities.SeverityError
		}
		return x.Line < y.Line
	})
	if len(worst) > WorstLimit {
		worst = worst[:WorstLimit]
	}
	r.Worst = append(r.Worst, worst...)
	return r
}

// TagFrequencies counts the UPOS tags of word nodes, most frequent first and
// ties by tag. Untagged words are not counted; unknown tags are.
func TagFrequencies(sentences []entities.Sentence) []TagCount {
	counts := make(map[string]int)
	for i := range sentences {
		for _, n := range sentences[i].Nodes {
			if n.ID.Kind == entities.KindWord && n.UPOS != "" {
				counts[n.UPOS]++
			}
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(a, b int) bool {
		if tags[a].Count != tags[b].Count {
			return tags[a].Count > tags[b].Count
		}
		return tags[a].Tag < tags[b].Tag
	})
	return tags
}

// Counts returns the non-zero per-rule counts keyed by rule.
func (r Report) Counts() map[entities.Rule]int {
	counts := make(map[entities.Rule]int)
	for _, rc := range r.ByRule {
		if rc.Count > 0 {
			counts[rc.Rule] = rc.Count
		}
	}
	return counts
}

// Run converts the report into a persistable record.
func (r Report) Run(id, artifact string, checkedAt time.Time) entities.ValidationRun {
	return entities.ValidationRun{
		ID:         id,
		Artifact:   artifact,
		CheckedAt:  checkedAt,
		Sentences:  r.Sentences,
		Errors:     r.Errors,
		Warnings:   r.Warnings,
		Pass:       r.Pass,
		RuleCounts: r.Counts(),
	}
}

// SummaryLine is the one-line outcome.
func (r Report) SummaryLine() string {
	verdict := "PASS"
	if !r.Pass {
		verdict = "FAIL"
	}
	return fmt.Sprintf("%s: %d sentences checked, %d errors, %d warnings",
		verdict, r.Sentences, r.Errors, r.Warnings)
}

// Render writes per-rule counts, the worst issues and the summary line.
func (r Report) Render(w io.Writer) error {
	var b strings.Builder
	r.writeDetails(&b)
	b.WriteString(r.SummaryLine())
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDetails is Render without the summary line.
func (r Report) RenderDetails(w io.Writer) error {
	var b strings.Builder
	r.writeDetails(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

func (r Report) writeDetails(b *strings.Builder) {
	if r.Issues == 0 {
		return
	}
	b.WriteString("Issues by rule:\n")
	for _, rc := range r.ByRule {
		if rc.Count > 0 {
			fmt.Fprintf(b, "  %-18s %d\n", rc.Rule, rc.Count)
		}
	}
	fmt.Fprintf(b, "Top %d issues:\n", len(r.Worst))
	for _, is := range r.Worst {
		fmt.Fprintf(b, "  %s\n", is)
	}
}
