package entities

import (
	"errors"
	"io/fs"
	"testing"
)

func TestRawDocument_TextJoinsWithBlankLine(t *testing.T) {
	doc := RawDocument{Segments: []Segment{
		{SourceName: "1_raw.txt", Content: "First text.\n"},
		{SourceName: "2_raw.txt", Content: "Second text."},
		{SourceName: "3_raw.txt", Content: "Third text.\r\n\n"},
	}}

	want := "First text.\n\nSecond text.\n\nThird text."
	if got := doc.Text(); got != want {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestRawDocument_EmptyText(t *testing.T) {
	var doc RawDocument
	if doc.Text() != "" {
		t.Error("empty document should have empty text")
	}
}

func TestID_String(t *testing.T) {
	cases := map[string]ID{
		"7":   WordID(7),
		"3-4": RangeID(3, 4),
		"5.1": EmptyID(5, 1),
		"0.2": EmptyID(0, 2),
	}
	for want, id := range cases {
		if got := id.String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestHead_ZeroValueIsUnattached(t *testing.T) {
	var h Head
	if h.Set || h.IsRoot() {
		t.Error("zero head should be unattached")
	}
	if h.String() != "_" {
		t.Errorf("expected _, got %s", h.String())
	}
	if !HeadOf(0).IsRoot() {
		t.Error("head 0 should be the root")
	}
}

func TestSentence_WordsSkipsRangesAndEmptyNodes(t *testing.T) {
	s := Sentence{Nodes: []Node{
		{ID: RangeID(1, 2)},
		{ID: WordID(1)},
		{ID: WordID(2)},
		{ID: EmptyID(2, 1)},
		{ID: WordID(3)},
	}}

	if got := len(s.Words()); got != 3 {
		t.Errorf("expected 3 words, got %d", got)
	}
}

func TestSentence_MetaValue(t *testing.T) {
	s := Sentence{Meta: []Meta{{Key: "newdoc"}, {Key: "multiroot", Value: "yes"}}}

	v, ok := s.MetaValue("multiroot")
	if !ok || v != "yes" {
		t.Errorf("unexpected meta value %q (%v)", v, ok)
	}
	if _, ok := s.MetaValue("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestUPOS_ClosedSet(t *testing.T) {
	if len(UPOSTags()) != 17 {
		t.Errorf("expected 17 tags, got %d", len(UPOSTags()))
	}
	for _, tag := range UPOSTags() {
		if !IsKnownUPOS(tag) {
			t.Errorf("%s should be known", tag)
		}
	}
	for _, tag := range []string{"NOUNN", "noun", "_", ""} {
		if IsKnownUPOS(tag) {
			t.Errorf("%q should not be known", tag)
		}
	}
}

func TestRule_Order(t *testing.T) {
	if RuleIDSequence.Order() != 0 || RuleUnknownTag.Order() != 6 {
		t.Error("rules out of order")
	}
	if Rule("Bogus").Order() != len(Rules) {
		t.Error("unknown rule should sort last")
	}
}

func TestErrors_Unwrap(t *testing.T) {
	err := error(&UnreadableFileError{Path: "a.txt", Err: fs.ErrPermission})
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("UnreadableFileError should unwrap")
	}

	var engineErr *AnnotationEngineError
	wrapped := error(&AnnotationEngineError{Engine: "udpipe", Err: errors.New("boom")})
	if !errors.As(wrapped, &engineErr) || engineErr.Engine != "udpipe" {
		t.Error("errors.As should find AnnotationEngineError")
	}
}

func TestMalformedLineError_Message(t *testing.T) {
	err := &MalformedLineError{Line: 4, FieldCount: 9}
	if err.Error() != "line 4: expected 10 tab-separated fields, found 9" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
