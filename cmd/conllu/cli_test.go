package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/config"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
)

const goodArtifact = "# sent_id = 1\n" +
	"# text = Кот спит.\n" +
	"1\tКот\tкот\tNOUN\t_\t_\t2\tnsubj\t_\t_\n" +
	"2\tспит\tспать\tVERB\t_\t_\t0\troot\t_\tSpaceAfter=No\n" +
	"3\t.\t.\tPUNCT\t_\t_\t2\tpunct\t_\t_\n\n"

const cyclicArtifact = "# sent_id = 1\n" +
	"1\tа\tа\tNOUN\t_\t_\t2\tdep\t_\t_\n" +
	"2\tб\tб\tNOUN\t_\t_\t1\tdep\t_\t_\n\n"

// setup resets command globals to a test config whose history lives in a temp dir.
func setup(t *testing.T) *config.Config {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Store.Backend = config.StorePureSQLite
	cfg.Store.DataPath = t.TempDir()

	t.Cleanup(func() {
		cfg = nil
		validateRootPolicy, validateJSON, validateAll, validateSave, validateWatch, validateStrict = "", false, false, false, false, false
		annotateOutput, annotatePattern, annotateWatch, annotateNumbered = "", "", false, false
		reportsLimit, reportsJSON = 20, false
		configPath, initForce = config.DefaultPath, false
	})
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitIssues, exitCode(errors.New("boom")))
	assert.Equal(t, exitFileFailed, exitCode(&exitError{code: exitFileFailed, err: errors.New("x")}))
	assert.Equal(t, exitIssues, exitCode(&exitError{code: exitIssues}))
}

func TestValidateCmd_Pass(t *testing.T) {
	setup(t)
	path := writeFile(t, t.TempDir(), "good.conllu", goodArtifact)
	cmd, out := newCmd()

	err := runValidate(cmd, []string{path})

	require.NoError(t, err)
	assert.Equal(t, "PASS: 1 sentences checked, 0 errors, 0 warnings\n", out.String())
}

func TestValidateCmd_Fail(t *testing.T) {
	setup(t)
	path := writeFile(t, t.TempDir(), "bad.conllu", cyclicArtifact)
	cmd, out := newCmd()

	err := runValidate(cmd, []string{path})

	assert.Equal(t, exitIssues, exitCode(err))
	assert.Contains(t, out.String(), "CycleError")
	assert.Contains(t, out.String(), "FAIL: 1 sentences checked, 1 errors, 0 warnings\n")
}

func TestValidateCmd_All(t *testing.T) {
	setup(t)
	validateAll = true
	path := writeFile(t, t.TempDir(), "bad.conllu", cyclicArtifact)
	cmd, out := newCmd()

	err := runValidate(cmd, []string{path})

	assert.Equal(t, exitIssues, exitCode(err))
	assert.NotContains(t, out.String(), "Top ")
	assert.Contains(t, out.String(), "dependency cycle 1 -> 2 -> 1")
}

func TestValidateCmd_Malformed(t *testing.T) {
	setup(t)
	path := writeFile(t, t.TempDir(), "broken.conllu", "1\tonly\tthree\n\n")
	cmd, _ := newCmd()

	err := runValidate(cmd, []string{path})

	assert.Equal(t, exitFileFailed, exitCode(err))
	var lineErr *entities.MalformedLineError
	assert.ErrorAs(t, err, &lineErr)
}

func TestValidateCmd_Missing(t *testing.T) {
	setup(t)
	cmd, _ := newCmd()

	err := runValidate(cmd, []string{filepath.Join(t.TempDir(), "nope.conllu")})

	assert.Equal(t, exitFileFailed, exitCode(err))
}

func TestValidateCmd_RootPolicy(t *testing.T) {
	setup(t)
	path := writeFile(t, t.TempDir(), "forest.conllu", "# sent_id = 1\n"+
		"1\tДа\tда\tPART\t_\t_\t0\troot\t_\t_\n"+
		"2\tнет\tнет\tPART\t_\t_\t0\troot\t_\t_\n\n")

	cmd, _ := newCmd()
	assert.Equal(t, exitIssues, exitCode(runValidate(cmd, []string{path})))

	validateRootPolicy = "multiple"
	cmd, _ = newCmd()
	assert.NoError(t, runValidate(cmd, []string{path}))

	validateRootPolicy = "forest"
	cmd, _ = newCmd()
	assert.Equal(t, exitFileFailed, exitCode(runValidate(cmd, []string{path})))
}

func TestValidateCmd_Strict(t *testing.T) {
	c := setup(t)
	path := writeFile(t, t.TempDir(), "tokens.conllu", "# sent_id = 1\n"+
		"1\tКот\tкот\t_\t_\t_\t_\t_\t_\t_\n"+
		"2\tспит\tспать\t_\t_\t_\t_\t_\t_\t_\n\n")

	cmd, out := newCmd()
	require.NoError(t, runValidate(cmd, []string{path}))
	assert.Contains(t, out.String(), "PASS: 1 sentences checked, 0 errors, 3 warnings")

	validateStrict = true
	cmd, out = newCmd()
	assert.Equal(t, exitIssues, exitCode(runValidate(cmd, []string{path})))
	assert.Contains(t, out.String(), "FAIL: 1 sentences checked, 3 errors, 0 warnings")

	validateStrict = false
	c.Validation.Strict = true
	cmd, _ = newCmd()
	assert.Equal(t, exitIssues, exitCode(runValidate(cmd, []string{path})))
}

func TestValidateCmd_JSON(t *testing.T) {
	setup(t)
	validateJSON = true
	path := writeFile(t, t.TempDir(), "bad.conllu", cyclicArtifact)
	cmd, out := newCmd()

	err := runValidate(cmd, []string{path})
	assert.Equal(t, exitIssues, exitCode(err))

	var decoded struct {
		RunID  string `json:"run_id"`
		Report struct {
			Errors int                   `json:"errors"`
			Pass   bool                  `json:"pass"`
			UPOS   []validation.TagCount `json:"upos"`
		} `json:"report"`
		Issues []entities.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.NotEmpty(t, decoded.RunID)
	assert.Equal(t, 1, decoded.Report.Errors)
	assert.False(t, decoded.Report.Pass)
	assert.Equal(t, []validation.TagCount{{Tag: "NOUN", Count: 2}}, decoded.Report.UPOS)
	assert.Len(t, decoded.Issues, 1)
}

func TestReportsCmd(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "good.conllu", goodArtifact)
	bad := writeFile(t, dir, "bad.conllu", cyclicArtifact)

	validateSave = true
	cmd, _ := newCmd()
	require.NoError(t, runValidate(cmd, []string{good}))
	cmd, _ = newCmd()
	require.Equal(t, exitIssues, exitCode(runValidate(cmd, []string{bad})))

	cmd, out := newCmd()
	require.NoError(t, runReports(cmd, nil))
	assert.Contains(t, out.String(), "RESULT")
	assert.Contains(t, out.String(), "FAIL")
	assert.Contains(t, out.String(), "CycleError=1")
	assert.Contains(t, out.String(), good)

	reportsLimit = 1
	reportsJSON = true
	cmd, out = newCmd()
	require.NoError(t, runReports(cmd, nil))
	var runs []entities.ValidationRun
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	assert.Len(t, runs, 1)
}

func TestReportsCmd_Empty(t *testing.T) {
	setup(t)
	cmd, out := newCmd()

	require.NoError(t, runReports(cmd, nil))
	assert.Equal(t, "No validation runs recorded.\n", out.String())
}

func TestAnnotateCmd_CommandEngine(t *testing.T) {
	cat, err := exec.LookPath("cat")
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	c := setup(t)
	c.Engine.Kind = config.EngineCommand
	c.Engine.Command.Path = cat

	corpus := t.TempDir()
	writeFile(t, corpus, "a.txt", goodArtifact)
	annotateOutput = filepath.Join(t.TempDir(), "out.conllu")
	cmd, out := newCmd()

	require.NoError(t, runAnnotate(cmd, []string{corpus}))
	assert.Contains(t, out.String(), "annotated 1 files into 1 sentences")

	data, err := os.ReadFile(annotateOutput)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# sent_id = 1\n")
	assert.Contains(t, string(data), "1\tКот\tкот\tNOUN")

	cmd, _ = newCmd()
	assert.NoError(t, runValidate(cmd, []string{annotateOutput}))
}

func TestAnnotateCmd_NoInput(t *testing.T) {
	c := setup(t)
	c.Engine.Kind = config.EngineCommand
	c.Engine.Command.Path = "cat"
	cmd, _ := newCmd()

	err := runAnnotate(cmd, []string{t.TempDir()})

	var noInput *entities.NoInputFilesError
	assert.ErrorAs(t, err, &noInput)
}

func TestAnnotateCmd_Numbered(t *testing.T) {
	c := setup(t)
	c.Engine.Kind = config.EngineCommand
	c.Engine.Command.Path = "cat"

	corpus := t.TempDir()
	writeFile(t, corpus, "1_raw.txt", goodArtifact)
	writeFile(t, corpus, "3_raw.txt", goodArtifact)
	annotatePattern = "*_raw.txt"
	annotateNumbered = true
	annotateOutput = filepath.Join(t.TempDir(), "out.conllu")
	cmd, _ := newCmd()

	err := runAnnotate(cmd, []string{corpus})

	var dsErr *entities.InconsistentDatasetError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "number 2 is missing", dsErr.Reason)
	assert.NoFileExists(t, annotateOutput)
}

func TestInitCmd(t *testing.T) {
	setup(t)
	configPath = filepath.Join(t.TempDir(), "nested", "config.yaml")
	cmd, out := newCmd()

	require.NoError(t, runInit(cmd, nil))
	assert.Equal(t, "wrote default config to "+configPath+"\n", out.String())

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	cmd, _ = newCmd()
	assert.ErrorContains(t, runInit(cmd, nil), "already exists")

	initForce = true
	cmd, _ = newCmd()
	assert.NoError(t, runInit(cmd, nil))
}
