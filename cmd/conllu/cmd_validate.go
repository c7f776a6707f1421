package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/filewatcher"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/ports"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/usecases"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
)

var (
	validateRootPolicy string
	validateJSON       bool
	validateAll        bool
	validateSave       bool
	validateWatch      bool
	validateStrict     bool
)

// validateCmd checks an artifact
var validateCmd = &cobra.Command{
	Use:   "validate <artifact>",
	Short: "Check a CoNLL-U artifact against the structural grammar",
	Long: `Parses the artifact and reports structural issues.

Exit codes:
  0  the artifact passes (warnings allowed)
  1  structural errors were found
  2  the file could not be read or parsed`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateRootPolicy, "root-policy", "", "single, multiple or flagged (default from config)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the report as JSON")
	validateCmd.Flags().BoolVar(&validateAll, "all", false, "list every issue, not only the top ones")
	validateCmd.Flags().BoolVar(&validateSave, "save", false, "record the run in the report store")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "re-validate whenever the artifact changes")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat missing UPOS tags and unparsed sentences as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := currentConfig()
	log := commandLogger()
	artifact := args[0]

	opts := c.ValidatorOptions()
	if validateRootPolicy != "" {
		policy, err := validation.ParseRootPolicy(validateRootPolicy)
		if err != nil {
			return &exitError{code: exitFileFailed, err: err}
		}
		opts.RootPolicy = policy
	}
	if validateStrict {
		opts.Strict = true
	}
	validator := validation.New(opts)
	log.Debug("validator ready",
		zap.String("root_policy", string(validator.Policy())),
		zap.Bool("strict", validator.Strict()))

	var (
		store ports.ReportStore
		err   error
	)
	if validateSave {
		store, err = openStore(c)
		if err != nil {
			return &exitError{code: exitFileFailed, err: err}
		}
		defer store.Close()
	}
	uc := usecases.NewValidateUseCase(conllu.NewReader(), validator, store)

	if !validateWatch {
		return validateOnce(ctx, cmd.OutOrStdout(), uc, artifact, log)
	}

	watcher, err := filewatcher.NewFSNotifyWatcher([]string{literalPattern(filepath.Base(artifact))}, log)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, filepath.Dir(artifact))
	if err != nil {
		return err
	}

	if err := validateOnce(ctx, cmd.OutOrStdout(), uc, artifact, log); err != nil {
		log.Warn("validation failed", zap.String("artifact", artifact), zap.Error(err))
	}
	for range filewatcher.Debounce(ctx, events, c.GetWatchDebounce()) {
		log.Info("artifact changed", zap.String("artifact", artifact))
		if err := validateOnce(ctx, cmd.OutOrStdout(), uc, artifact, log); err != nil {
			log.Warn("validation failed", zap.String("artifact", artifact), zap.Error(err))
		}
	}
	return nil
}

// validateOnce runs one validation and prints its outcome.
func validateOnce(ctx context.Context, out io.Writer, uc *usecases.ValidateUseCase, artifact string, log *zap.Logger) error {
	result, err := uc.ValidateFile(ctx, artifact)
	if err != nil {
		if isFileFailure(err) {
			return &exitError{code: exitFileFailed, err: err}
		}
		return err
	}

	log.Info("artifact validated",
		zap.String("artifact", artifact),
		zap.String("run_id", result.Run.ID),
		zap.Int("sentences", result.Report.Sentences),
		zap.Int("errors", result.Report.Errors),
		zap.Int("warnings", result.Report.Warnings))

	if err := printResult(out, result); err != nil {
		return err
	}
	if !result.Report.Pass {
		return &exitError{code: exitIssues}
	}
	return nil
}

func printResult(out io.Writer, result *usecases.ValidateResult) error {
	if validateJSON {
		issues := result.Issues
		if issues == nil {
			issues = []entities.Issue{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID  string            `json:"run_id"`
			Report validation.Report `json:"report"`
			Issues []entities.Issue  `json:"issues"`
		}{result.Run.ID, result.Report, issues})
	}

	if !result.Report.Pass {
		if validateAll {
			for _, is := range result.Issues {
				if _, err := fmt.Fprintln(out, is); err != nil {
					return err
				}
			}
		} else if err := result.Report.RenderDetails(out); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out, verdictStyle(out, result.Report.Pass).Render(result.Report.SummaryLine()))
	return err
}

// verdictStyle colors the summary line when out is a terminal.
func verdictStyle(out io.Writer, pass bool) lipgloss.Style {
	color := lipgloss.Color("#e53935")
	if pass {
		color = lipgloss.Color("#8BC34A")
	}
	return lipgloss.NewRenderer(out).NewStyle().Bold(true).Foreground(color)
}

// literalPattern escapes glob metacharacters so a file name matches only itself.
func literalPattern(name string) string {
	return globMeta.ReplaceAllString(name, `\$0`)
}

var globMeta = regexp.MustCompile(`[*?\[\]{}\\]`)
