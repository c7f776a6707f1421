// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"strconv"
	"strings"
	"time"
)

// Segment is the text of one corpus file.
type Segment struct {
	SourceName string
	Content    string
}

// RawDocument is the ordered corpus handed to the annotation engine.
// Segments are sorted by source name so reruns see the same text.
type RawDocument struct {
	Segments []Segment
}

// Text joins all segments with exactly one blank line between them.
func (d *RawDocument) Text() string {
	parts := make([]string, 0, len(d.Segments))
	for _, s := range d.Segments {
		parts = append(parts, strings.TrimRight(s.Content, "\r\n"))
	}
	return strings.Join(parts, "\n\n")
}

// IDKind distinguishes the three identifier shapes of a node line.
type IDKind int

const (
	KindWord  IDKind = iota // 7
	KindRange               // 3-4, multiword token
	KindEmpty               // 5.1, elided element
)

func (k IDKind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindRange:
		return "range"
	case KindEmpty:
		return "empty"
	}
	return "unknown"
}

// ID identifies a node within its sentence.
type ID struct {
	Kind  IDKind
	Start int // word id, range start or integer part of an empty node
	End   int // range end; equals Start otherwise
	Minor int // decimal part of an empty node
}

// WordID returns the id of a plain word node.
func WordID(n int) ID { return ID{Kind: KindWord, Start: n, End: n} }

// RangeID returns the id of a multiword token spanning start..end.
func RangeID(start, end int) ID { return ID{Kind: KindRange, Start: start, End: end} }

// EmptyID returns the id of the empty node major.minor.
func EmptyID(major, minor int) ID { return ID{Kind: KindEmpty, Start: major, End: major, Minor: minor} }

func (id ID) String() string {
	switch id.Kind {
	case KindRange:
		return strconv.Itoa(id.Start) + "-" + strconv.Itoa(id.End)
	case KindEmpty:
		return strconv.Itoa(id.Start) + "." + strconv.Itoa(id.Minor)
	}
	return strconv.Itoa(id.Start)
}

// Head is the governor reference of a node. The zero value is "_" (unattached).
type Head struct {
	ID  int
	Set bool
}

// HeadOf returns an attached head; 0 means the sentence root.
func HeadOf(id int) Head { return Head{ID: id, Set: true} }

// IsRoot reports whether the node hangs directly off the artificial root.
func (h Head) IsRoot() bool { return h.Set && h.ID == 0 }

func (h Head) String() string {
	if !h.Set {
		return "_"
	}
	return strconv.Itoa(h.ID)
}

// DepEdge is one entry of the enhanced dependency column.
type DepEdge struct {
	Head ID
	Rel  string
}

// Node is a single annotation line.
type Node struct {
	ID     ID
	Form   string
	Lemma  string
	UPOS   string
	XPOS   string
	Feats  map[string]string
	Head   Head
	Deprel string
	Deps   []DepEdge
	Misc   map[string]string

	// Line is the 1-based line in the artifact the node was read from, 0 if built in memory.
	Line int
}

// Meta is a sentence comment other than sent_id and text.
// Flag comments such as "# newdoc" have an empty Value.
type Meta struct {
	Key   string
	Value string
}

// Sentence is one annotated sentence block.
type Sentence struct {
	ID    string
	Text  string
	Meta  []Meta
	Nodes []Node

	// Line is where the block starts in the artifact, 0 if built in memory.
	Line int
}

// MetaValue returns the value of the first comment with the given key.
func (s *Sentence) MetaValue(key string) (string, bool) {
	for _, m := range s.Meta {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// Words returns the nodes with plain word ids, in file order.
func (s *Sentence) Words() []Node {
	words := make([]Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID.Kind == KindWord {
			words = append(words, n)
		}
	}
	return words
}

// ValidationRun records the outcome of validating one artifact.
type ValidationRun struct {
	ID         string
	Artifact   string
	CheckedAt  time.Time
	Sentences  int
	Errors     int
	Warnings   int
	Pass       bool
	RuleCounts map[Rule]int
}
