// Package conllu reads and writes the CoNLL-U tabular sentence-annotation format.
// It only checks what a single line (or a block boundary) can tell; graph-level
// consistency belongs to the validation package.
package conllu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

const fieldCount = 10

// Column indexes of a node line.
const (
	colID = iota
	colForm
	colLemma
	colUPOS
	colXPOS
	colFeats
	colHead
	colDeprel
	colDeps
	colMisc
)

const maxLineSize = 16 * 1024 * 1024

// Decoder parses sentence blocks from a stream.
type Decoder struct {
	r    io.Reader
	name string
}

// NewDecoder creates a decoder; name is used in read errors.
func NewDecoder(r io.Reader, name string) *Decoder {
	if name == "" {
		name = "<input>"
	}
	return &Decoder{r: r, name: name}
}

// blockState tracks the sentence currently being read.
type blockState struct {
	open     bool
	seenNode bool
	seq      sequence
	sentence entities.Sentence
}

// sequence follows word numbering inside one block to catch two sentences
// run together without a blank line between them.
type sequence struct {
	lastWord int // 0 until a word is seen
}

// next records id and returns why it cannot continue the block, or "".
func (s *sequence) next(id entities.ID) string {
	reason := ""
	if s.lastWord > 0 {
		switch id.Kind {
		case entities.KindWord:
			if id.Start == 1 {
				reason = "word id 1 restarts numbering"
			}
		case entities.KindRange:
			if id.Start <= s.lastWord {
				reason = fmt.Sprintf("range %s starts at or before word %d", id, s.lastWord)
			}
		case entities.KindEmpty:
			if id.Start < s.lastWord {
				reason = fmt.Sprintf("empty node %s comes after word %d", id, s.lastWord)
			}
		}
	}
	if id.Kind == entities.KindWord {
		s.lastWord = id.Start
	}
	if reason != "" {
		reason += "; missing blank line between sentences"
	}
	return reason
}

// Decode reads the whole stream. The first malformed line aborts decoding.
func (d *Decoder) Decode() ([]entities.Sentence, error) {
	scanner := bufio.NewScanner(d.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		sentences []entities.Sentence
		block     blockState
		lineNo    int
	)

	flush := func() {
		if block.open {
			sentences = append(sentences, block.sentence)
		}
		block = blockState{}
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if !utf8.ValidString(line) {
			return nil, &entities.UnreadableFileError{
				Path: d.name,
				Err:  fmt.Errorf("line %d is not valid UTF-8", lineNo),
			}
		}

		if line == "" {
			flush()
			continue
		}
		if strings.TrimSpace(line) == "" {
			return nil, &entities.MalformedLineError{
				Line:       lineNo,
				FieldCount: len(strings.Split(line, "\t")),
				Reason:     "whitespace-only line; sentence separators must be empty",
			}
		}

		if !block.open {
			block.open = true
			block.sentence.Line = lineNo
		}

		if strings.HasPrefix(line, "#") {
			if block.seenNode {
				return nil, &entities.MalformedLineError{
					Line:       lineNo,
					FieldCount: len(strings.Split(line, "\t")),
					Reason:     "comment after node lines; missing blank line between sentences",
				}
			}
			addComment(&block.sentence, line)
			continue
		}

		node, err := parseNode(line, lineNo)
		if err != nil {
			return nil, err
		}
		if reason := block.seq.next(node.ID); reason != "" {
			return nil, &entities.MalformedLineError{
				Line:       lineNo,
				FieldCount: fieldCount,
				Reason:     reason,
			}
		}
		block.seenNode = true
		block.sentence.Nodes = append(block.sentence.Nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, &entities.UnreadableFileError{Path: d.name, Err: err}
	}
	flush()

	return sentences, nil
}

func addComment(s *entities.Sentence, line string) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, hasValue := strings.Cut(body, "=")
	key = strings.TrimSpace(key)
	if !hasValue {
		s.Meta = append(s.Meta, entities.Meta{Key: key})
		return
	}
	value = strings.TrimSpace(value)
	switch key {
	case "sent_id":
		s.ID = value
	case "text":
		s.Text = value
	default:
		s.Meta = append(s.Meta, entities.Meta{Key: key, Value: value})
	}
}

func parseNode(line string, lineNo int) (entities.Node, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldCount {
		return entities.Node{}, &entities.MalformedLineError{Line: lineNo, FieldCount: len(fields)}
	}
	for i, f := range fields {
		if f == "" {
			return entities.Node{}, &entities.MalformedLineError{
				Line:       lineNo,
				FieldCount: len(fields),
				Reason:     fmt.Sprintf("column %d is empty; use _ for missing values", i+1),
			}
		}
	}

	id, ok := ParseID(fields[colID])
	if !ok {
		return entities.Node{}, &entities.MalformedIDError{Line: lineNo, RawID: fields[colID]}
	}

	head, ok := parseHead(fields[colHead])
	if !ok {
		return entities.Node{}, &entities.MalformedLineError{
			Line:       lineNo,
			FieldCount: len(fields),
			Reason:     fmt.Sprintf("head %q is neither _ nor a non-negative integer", fields[colHead]),
		}
	}

	feats, err := parseFeats(fields[colFeats])
	if err != nil {
		return entities.Node{}, featureError(lineNo, "FEATS", fields[colFeats], err)
	}
	deps, err := parseDeps(fields[colDeps])
	if err != nil {
		return entities.Node{}, featureError(lineNo, "DEPS", fields[colDeps], err)
	}
	misc, err := parseMisc(fields[colMisc])
	if err != nil {
		return entities.Node{}, featureError(lineNo, "MISC", fields[colMisc], err)
	}

	return entities.Node{
		ID:     id,
		Form:   fields[colForm],
		Lemma:  fields[colLemma],
		UPOS:   fromEmpty(fields[colUPOS]),
		XPOS:   fromEmpty(fields[colXPOS]),
		Feats:  feats,
		Head:   head,
		Deprel: fromEmpty(fields[colDeprel]),
		Deps:   deps,
		Misc:   misc,
		Line:   lineNo,
	}, nil
}

func featureError(line int, field, raw string, err error) error {
	return &entities.MalformedFeatureError{Line: line, Field: field, Raw: raw, Reason: err.Error()}
}

// Parse decodes sentences from r.
func Parse(r io.Reader) ([]entities.Sentence, error) {
	return NewDecoder(r, "").Decode()
}

// ParseFile decodes the artifact at path.
func ParseFile(path string) ([]entities.Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &entities.UnreadableFileError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &entities.UnreadableFileError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &entities.UnreadableFileError{Path: path, Err: errors.New("is a directory")}
	}
	return NewDecoder(f, path).Decode()
}

// Reader implements ports.AnnotationReader over the local filesystem.
type Reader struct{}

// NewReader creates a filesystem artifact reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadFile parses the artifact at path.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]entities.Sentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseFile(path)
}

// IsParseError reports whether err came from malformed artifact content.
func IsParseError(err error) bool {
	var (
		lineErr    *entities.MalformedLineError
		idErr      *entities.MalformedIDError
		featureErr *entities.MalformedFeatureError
	)
	return errors.As(err, &lineErr) || errors.As(err, &idErr) || errors.As(err, &featureErr)
}
