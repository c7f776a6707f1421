package writer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

func sentences() []entities.Sentence {
	return []entities.Sentence{{
		ID:   "1",
		Text: "Привет!",
		Nodes: []entities.Node{
			{ID: entities.WordID(1), Form: "Привет", Lemma: "привет", UPOS: "INTJ", Head: entities.HeadOf(0), Deprel: "root"},
			{ID: entities.WordID(2), Form: "!", Lemma: "!", UPOS: "PUNCT", Head: entities.HeadOf(1), Deprel: "punct"},
		},
	}}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tmpPrefix) {
			t.Fatalf("tmp file not cleaned: %s", e.Name())
		}
	}
}

func TestFileWriter_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dist", "corpus.conllu")

	err := NewFileWriter(nil).Write(context.Background(), path, sentences())
	require.NoError(t, err)

	parsed, err := conllu.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "Привет!", parsed[0].Text)
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestFileWriter_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.conllu")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, NewFileWriter(nil).Write(context.Background(), path, sentences()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# sent_id = 1\n"))
	assert.True(t, strings.HasSuffix(string(data), "\n\n"))
	assertNoTempFiles(t, dir)
}

func TestFileWriter_FailureKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	// The destination is a non-empty directory, so the rename must fail.
	path := filepath.Join(dir, "corpus.conllu")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "inner"), 0o755))

	err := NewFileWriter(nil).Write(context.Background(), path, sentences())

	var writeErr *entities.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, path, writeErr.Path)
	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assertNoTempFiles(t, dir)
}

func TestFileWriter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "corpus.conllu")
	err := NewFileWriter(nil).Write(ctx, path, sentences())

	var writeErr *entities.WriteError
	require.ErrorAs(t, err, &writeErr)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileWriter_UnencodableSentenceKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.conllu")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	bad := sentences()
	bad[0].Nodes[0].Form = "При\tвет"
	err := NewFileWriter(nil).Write(context.Background(), path, bad)

	var writeErr *entities.WriteError
	require.ErrorAs(t, err, &writeErr)
	var encErr *conllu.EncodeError
	assert.ErrorAs(t, err, &encErr)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data))
	assertNoTempFiles(t, dir)
}
