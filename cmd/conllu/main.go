// Command conllu builds and checks CoNLL-U annotation artifacts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/engine"
	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/reportstore"
	"github.com/0xcro3dile/conllu-pipeline/internal/config"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/ports"
)

// Exit codes of the validate command.
const (
	exitOK         = 0
	exitIssues     = 1
	exitFileFailed = 2
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "conllu",
	Short: "Annotate a text corpus and validate CoNLL-U artifacts",
	Long: `conllu runs a plain-text corpus through an external annotation engine,
writes the result as a CoNLL-U artifact, and checks artifacts against the
structural grammar of the format (id sequences, multiword ranges, empty nodes,
dependency trees, tag set).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		logger, err = cfg.Logging.NewLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(initCmd, annotateCmd, validateCmd, serveCmd, reportsCmd)
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitIssues
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitCode(err))
	}
}

// commandLogger returns the logger set up by the root command, or a no-op one
// when a command function runs on its own.
func commandLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// currentConfig returns the loaded config, or the defaults.
func currentConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// buildEngine creates the annotation engine selected in the config.
func buildEngine(c *config.Config, log *zap.Logger) (ports.AnnotationEngine, error) {
	switch c.Engine.Kind {
	case config.EngineUDPipe:
		return engine.NewUDPipeEngine(c.Engine.UDPipe.BaseURL, c.Engine.UDPipe.Model, c.GetEngineTimeout(), log), nil
	case config.EngineCommand:
		return engine.NewCommandEngine(c.Engine.Command.Path, c.Engine.Command.Args, c.GetEngineTimeout(), log), nil
	}
	return nil, fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
}

// openStore opens the validation history backend selected in the config.
func openStore(c *config.Config) (ports.ReportStore, error) {
	switch c.Store.Backend {
	case config.StoreMemory:
		return reportstore.NewInMemoryStore(), nil
	case config.StorePureSQLite:
		return reportstore.NewPureSQLiteStore(c.Store.DataPath)
	}
	return reportstore.NewSQLiteStore(c.Store.DataPath)
}

// isFileFailure reports whether err means the artifact could not be read or parsed.
func isFileFailure(err error) bool {
	var readErr *entities.UnreadableFileError
	return errors.As(err, &readErr) || conllu.IsParseError(err)
}
