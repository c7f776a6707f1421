package conllu

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

const sample = `# newdoc id = mel-1
# sent_id = 1
# text = Он пошёл домой.
1	Он	он	PRON	_	Case=Nom|Gender=Masc|Number=Sing|Person=3	2	nsubj	2:nsubj	_
2	пошёл	пойти	VERB	_	Aspect=Perf|Gender=Masc|Mood=Ind	0	root	0:root	_
3	домой	домой	ADV	_	Degree=Pos	2	advmod	2:advmod	SpaceAfter=No
4	.	.	PUNCT	_	_	2	punct	2:punct	_

# sent_id = 2
# text = Ну и ладно
1-2	Нуи	_	_	_	_	_	_	_	_
1	Ну	ну	PART	_	_	3	discourse	_	_
2	и	и	CCONJ	_	_	3	cc	_	_
2.1	_	_	_	_	_	_	_	3:orphan	_
3	ладно	ладно	ADV	_	_	0	root	_	_

`

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestParse_Sample(t *testing.T) {
	sentences, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	first := sentences[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Он пошёл домой.", first.Text)
	assert.Equal(t, []entities.Meta{{Key: "newdoc id", Value: "mel-1"}}, first.Meta)
	assert.Equal(t, 1, first.Line)
	require.Len(t, first.Nodes, 4)

	verb := first.Nodes[1]
	assert.Equal(t, entities.WordID(2), verb.ID)
	assert.Equal(t, "VERB", verb.UPOS)
	assert.Equal(t, "", verb.XPOS)
	assert.True(t, verb.Head.IsRoot())
	assert.Equal(t, "Perf", verb.Feats["Aspect"])
	assert.Equal(t, []entities.DepEdge{{Head: entities.WordID(0), Rel: "root"}}, verb.Deps)
	assert.Equal(t, 5, verb.Line)
	assert.Equal(t, map[string]string{"SpaceAfter": "No"}, first.Nodes[2].Misc)

	second := sentences[1]
	require.Len(t, second.Nodes, 5)
	assert.Equal(t, entities.RangeID(1, 2), second.Nodes[0].ID)
	assert.False(t, second.Nodes[0].Head.Set)
	assert.Equal(t, entities.EmptyID(2, 1), second.Nodes[3].ID)
	assert.Equal(t, []entities.DepEdge{{Head: entities.WordID(3), Rel: "orphan"}}, second.Nodes[3].Deps)
}

func TestParse_IDKinds(t *testing.T) {
	cases := []struct {
		raw  string
		want entities.ID
		ok   bool
	}{
		{"1", entities.WordID(1), true},
		{"12", entities.WordID(12), true},
		{"3-4", entities.RangeID(3, 4), true},
		{"4-3", entities.RangeID(4, 3), true},
		{"0.1", entities.EmptyID(0, 1), true},
		{"5.2", entities.EmptyID(5, 2), true},
		{"0", entities.ID{}, false},
		{"01", entities.ID{}, false},
		{"5.0", entities.ID{}, false},
		{"1-", entities.ID{}, false},
		{"a", entities.ID{}, false},
		{"-1", entities.ID{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseID(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.raw)
		}
	}
}

func TestParse_WrongFieldCount(t *testing.T) {
	input := lines(
		"# sent_id = 1",
		"1\tword\tword\tNOUN\t_\t_\t0\troot\t_",
		"",
	)
	_, err := Parse(strings.NewReader(input))

	var lineErr *entities.MalformedLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
	assert.Equal(t, 9, lineErr.FieldCount)
}

func TestParse_MalformedID(t *testing.T) {
	input := lines("x1\tword\tword\tNOUN\t_\t_\t0\troot\t_\t_", "")
	_, err := Parse(strings.NewReader(input))

	var idErr *entities.MalformedIDError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, 1, idErr.Line)
	assert.Equal(t, "x1", idErr.RawID)
}

func TestParse_MalformedFeatures(t *testing.T) {
	cases := map[string]string{
		"unsorted feats":  "1\tw\tw\tNOUN\t_\tNumber=Sing|Case=Nom\t0\troot\t_\t_",
		"duplicate feats": "1\tw\tw\tNOUN\t_\tCase=Nom|Case=Gen\t0\troot\t_\t_",
		"bare feat":       "1\tw\tw\tNOUN\t_\tCase\t0\troot\t_\t_",
		"empty value":     "1\tw\tw\tNOUN\t_\tCase=\t0\troot\t_\t_",
		"unsorted deps":   "1\tw\tw\tNOUN\t_\t_\t0\troot\t3:obj|2:nsubj\t_",
		"range in deps":   "1\tw\tw\tNOUN\t_\t_\t0\troot\t2-3:obj\t_",
		"bare misc":       "1\tw\tw\tNOUN\t_\t_\t0\troot\t_\tSpaceAfter",
		"duplicate misc":  "1\tw\tw\tNOUN\t_\t_\t0\troot\t_\tA=1|A=2",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(lines(line, "")))
			var featErr *entities.MalformedFeatureError
			require.ErrorAs(t, err, &featErr)
			assert.Equal(t, 1, featErr.Line)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParse_FeatsCaseInsensitiveOrder(t *testing.T) {
	input := lines("1\tw\tw\tNOUN\t_\tabbr=Yes|Case=Nom\t0\troot\t_\t_", "")
	sentences, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, sentences[0].Nodes[0].Feats, 2)
}

func TestParse_MissingSeparatorAfterComment(t *testing.T) {
	input := lines(
		"# sent_id = 1",
		"1\tДа\tда\tPART\t_\t_\t0\troot\t_\t_",
		"# sent_id = 2",
		"1\tНет\tнет\tPART\t_\t_\t0\troot\t_\t_",
		"",
	)

	for i := 0; i < 2; i++ {
		_, err := Parse(strings.NewReader(input))
		var lineErr *entities.MalformedLineError
		require.ErrorAs(t, err, &lineErr)
		assert.Equal(t, 3, lineErr.Line)
	}
}

func TestParse_MissingSeparatorRestartedNumbering(t *testing.T) {
	input := lines(
		"1\tДа\tда\tPART\t_\t_\t0\troot\t_\t_",
		"1\tНет\tнет\tPART\t_\t_\t0\troot\t_\t_",
		"",
	)
	_, err := Parse(strings.NewReader(input))

	var lineErr *entities.MalformedLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
}

func TestParse_MissingSeparatorBeforeRangeOrEmptyNode(t *testing.T) {
	first := "1\tДа\tда\tPART\t_\t_\t0\troot\t_\t_"
	cases := map[string]struct {
		input string
		line  int
	}{
		"range opens second sentence": {lines(first, "1-2\tНуи\t_\t_\t_\t_\t_\t_\t_\t_", "1\tНу\tну\tPART\t_\t_\t0\troot\t_\t_", ""), 2},
		"empty node opens second":     {lines(first, "0.1\t_\t_\t_\t_\t_\t_\t_\t_\t_", "1\tНу\tну\tPART\t_\t_\t0\troot\t_\t_", ""), 2},
		"range behind last word": {lines(first, "2\tи\tи\tCCONJ\t_\t_\t1\tcc\t_\t_",
			"2-3\tиль\t_\t_\t_\t_\t_\t_\t_\t_", ""), 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))

			var lineErr *entities.MalformedLineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tc.line, lineErr.Line)
			assert.Contains(t, lineErr.Reason, "missing blank line")
		})
	}
}

func TestParse_EmptyNodeAndRangeInPlace(t *testing.T) {
	input := lines(
		"0.1\t_\t_\t_\t_\t_\t_\t_\t_\t_",
		"1\tДа\tда\tPART\t_\t_\t0\troot\t_\t_",
		"1.1\t_\t_\t_\t_\t_\t_\t_\t_\t_",
		"2-3\tиль\t_\t_\t_\t_\t_\t_\t_\t_",
		"2\tи\tи\tCCONJ\t_\t_\t1\tcc\t_\t_",
		"3\tль\tли\tPART\t_\t_\t1\tadvmod\t_\t_",
		"",
	)
	sentences, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Len(t, sentences[0].Nodes, 6)
}

func TestParse_InvalidHead(t *testing.T) {
	input := lines("1\tw\tw\tNOUN\t_\t_\t-1\troot\t_\t_", "")
	_, err := Parse(strings.NewReader(input))

	var lineErr *entities.MalformedLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Contains(t, lineErr.Error(), "head")
}

func TestParse_EmptyColumnAndWhitespaceLine(t *testing.T) {
	_, err := Parse(strings.NewReader(lines("1\tw\t\tNOUN\t_\t_\t0\troot\t_\t_", "")))
	var lineErr *entities.MalformedLineError
	require.ErrorAs(t, err, &lineErr)

	_, err = Parse(strings.NewReader(lines("1\tw\tw\tNOUN\t_\t_\t0\troot\t_\t_", "  ", "")))
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
}

func TestParse_CRLFAndMissingTrailingBlank(t *testing.T) {
	input := "# sent_id = a\r\n1\tw\tw\tNOUN\t_\t_\t0\troot\t_\t_\r\n"
	sentences, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, "a", sentences[0].ID)
	assert.Equal(t, "_", formatMisc(sentences[0].Nodes[0].Misc))
}

func TestParse_InvalidUTF8(t *testing.T) {
	input := "1\tw\xff\tw\tNOUN\t_\t_\t0\troot\t_\t_\n\n"
	_, err := Parse(strings.NewReader(input))

	var readErr *entities.UnreadableFileError
	require.ErrorAs(t, err, &readErr)
	assert.False(t, IsParseError(err))
}

func TestParse_CommentOnlyBlockIsKept(t *testing.T) {
	sentences, err := Parse(strings.NewReader(lines("# sent_id = lonely", "", "", "")))
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Empty(t, sentences[0].Nodes)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.conllu"))

	var readErr *entities.UnreadableFileError
	require.ErrorAs(t, err, &readErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReader_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.conllu")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	sentences, err := NewReader().ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, sentences, 2)
}
