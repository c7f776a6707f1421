package conllu

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// EncodeError is a sentence that would not read back as written.
type EncodeError struct {
	Sentence   int    // index in the encoded slice
	SentenceID string // sent_id, if any
	Node       string // node id; empty for sentence-level problems
	Reason     string
}

func (e *EncodeError) Error() string {
	loc := fmt.Sprintf("sentence %d", e.Sentence)
	if e.SentenceID != "" {
		loc += fmt.Sprintf(" (sent_id %s)", e.SentenceID)
	}
	if e.Node != "" {
		loc += ", node " + e.Node
	}
	return "cannot encode " + loc + ": " + e.Reason
}

// Encode writes sentences as CoNLL-U blocks, each followed by one blank line.
// Every sentence is checked first; on an *EncodeError nothing is written.
func Encode(w io.Writer, sentences []entities.Sentence) error {
	for i := range sentences {
		if err := checkSentence(i, &sentences[i]); err != nil {
			return err
		}
	}
	bw := bufio.NewWriter(w)
	for i := range sentences {
		writeSentence(bw, &sentences[i])
	}
	return bw.Flush()
}

// Marshal renders sentences into memory.
func Marshal(sentences []entities.Sentence) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, sentences); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSentence(w *bufio.Writer, s *entities.Sentence) {
	for _, m := range s.Meta {
		w.WriteString("# ")
		w.WriteString(m.Key)
		if m.Value != "" {
			w.WriteString(" = ")
			w.WriteString(m.Value)
		}
		w.WriteByte('\n')
	}
	if s.ID != "" {
		w.WriteString("# sent_id = " + s.ID + "\n")
	}
	if s.Text != "" {
		w.WriteString("# text = " + s.Text + "\n")
	}
	for i := range s.Nodes {
		w.WriteString(formatNode(&s.Nodes[i]))
		w.WriteByte('\n')
	}
	w.WriteByte('\n')
}

func formatNode(n *entities.Node) string {
	fields := [fieldCount]string{
		colID:     n.ID.String(),
		colForm:   n.Form,
		colLemma:  n.Lemma,
		colUPOS:   orEmpty(n.UPOS),
		colXPOS:   orEmpty(n.XPOS),
		colFeats:  formatFeats(n.Feats),
		colHead:   n.Head.String(),
		colDeprel: orEmpty(n.Deprel),
		colDeps:   formatDeps(n.Deps),
		colMisc:   formatMisc(n.Misc),
	}
	return strings.Join(fields[:], "\t")
}

func checkSentence(index int, s *entities.Sentence) error {
	fail := func(node, reason string) error {
		return &EncodeError{Sentence: index, SentenceID: s.ID, Node: node, Reason: reason}
	}

	if len(s.Nodes) == 0 && s.ID == "" && s.Text == "" && len(s.Meta) == 0 {
		return fail("", "no nodes and no comments; the block would vanish")
	}
	if r := commentValue("sent_id", s.ID); r != "" {
		return fail("", r)
	}
	if r := commentValue("text", s.Text); r != "" {
		return fail("", r)
	}
	for _, m := range s.Meta {
		if r := checkMeta(m); r != "" {
			return fail("", r)
		}
	}

	var seq sequence
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if r := checkNode(n); r != "" {
			return fail(n.ID.String(), r)
		}
		if r := seq.next(n.ID); r != "" {
			return fail(n.ID.String(), r)
		}
	}
	return nil
}

func commentValue(name, v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return name + " contains a line break"
	}
	if v != strings.TrimSpace(v) {
		return name + " has surrounding whitespace"
	}
	return ""
}

func checkMeta(m entities.Meta) string {
	if strings.Contains(m.Key, "=") {
		return fmt.Sprintf("comment key %q contains '='", m.Key)
	}
	if r := commentValue("comment key", m.Key); r != "" {
		return r
	}
	if m.Value != "" && (m.Key == "sent_id" || m.Key == "text") {
		return fmt.Sprintf("comment %q must be set through the sentence field", m.Key)
	}
	return commentValue("comment "+m.Key, m.Value)
}

func checkNode(n *entities.Node) string {
	if id, ok := ParseID(n.ID.String()); !ok || id != n.ID {
		return fmt.Sprintf("id %+v has no canonical form", n.ID)
	}
	if n.Head.Set && n.Head.ID < 0 {
		return fmt.Sprintf("head %d is negative", n.Head.ID)
	}

	for _, c := range []struct{ name, v string }{{"FORM", n.Form}, {"LEMMA", n.Lemma}} {
		if c.v == "" {
			return c.name + " is empty; use _ for a missing value"
		}
		if r := checkCell(c.name, c.v); r != "" {
			return r
		}
	}
	for _, c := range []struct{ name, v string }{{"UPOS", n.UPOS}, {"XPOS", n.XPOS}, {"DEPREL", n.Deprel}} {
		if c.v == empty {
			return c.name + " is _, which reads back as an empty value"
		}
		if r := checkCell(c.name, c.v); r != "" {
			return r
		}
	}

	seen := make(map[string]string, len(n.Feats))
	for name, value := range n.Feats {
		if name == "" || value == "" {
			return fmt.Sprintf("FEATS pair %q=%q has an empty side", name, value)
		}
		if strings.ContainsAny(name, "=|") || strings.Contains(value, "|") {
			return fmt.Sprintf("FEATS pair %s=%s contains a separator", name, value)
		}
		if r := checkCell("FEATS", name+value); r != "" {
			return r
		}
		lower := strings.ToLower(name)
		if other, dup := seen[lower]; dup {
			return fmt.Sprintf("FEATS names %q and %q differ only by case", other, name)
		}
		seen[lower] = name
	}

	for key, value := range n.Misc {
		if key == "" || strings.ContainsAny(key, "=|") || strings.Contains(value, "|") {
			return fmt.Sprintf("MISC item %s=%s is empty or contains a separator", key, value)
		}
		if r := checkCell("MISC", key+value); r != "" {
			return r
		}
	}

	for i, d := range n.Deps {
		if d.Head.Kind == entities.KindRange {
			return fmt.Sprintf("DEPS head %s is a range", d.Head)
		}
		if d.Head != entities.WordID(0) {
			if id, ok := ParseID(d.Head.String()); !ok || id != d.Head {
				return fmt.Sprintf("DEPS head %+v has no canonical form", d.Head)
			}
		}
		if d.Rel == "" || strings.Contains(d.Rel, "|") {
			return fmt.Sprintf("DEPS relation %q is empty or contains '|'", d.Rel)
		}
		if r := checkCell("DEPS", d.Rel); r != "" {
			return r
		}
		for _, other := range n.Deps[:i] {
			if other == d {
				return fmt.Sprintf("DEPS edge %s:%s is repeated", d.Head, d.Rel)
			}
		}
	}
	return ""
}

// checkCell rejects characters that would split a line or a column.
func checkCell(name, v string) string {
	if strings.ContainsAny(v, "\t\r\n") {
		return name + " contains a tab or line break"
	}
	return ""
}
