package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/filewatcher"
	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/loader"
	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/writer"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/usecases"
)

var (
	annotateOutput   string
	annotatePattern  string
	annotateWatch    bool
	annotateNumbered bool
)

// annotateCmd runs the corpus pipeline
var annotateCmd = &cobra.Command{
	Use:   "annotate [corpus-dir]",
	Short: "Annotate a directory of text files into a CoNLL-U artifact",
	Long: `Reads every matching text file directly inside the corpus directory
(sorted by name), sends the joined text to the annotation engine once,
and writes the result atomically to the output path.

With --numbered (or corpus.numbered) the file names must start with the
numbers 1..N without gaps, repeats or empty files.

The corpus directory defaults to corpus.dir from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVarP(&annotateOutput, "output", "o", "", "artifact path (default from config)")
	annotateCmd.Flags().StringVar(&annotatePattern, "pattern", "", "corpus file name glob (default from config)")
	annotateCmd.Flags().BoolVar(&annotateWatch, "watch", false, "re-annotate whenever the corpus changes")
	annotateCmd.Flags().BoolVar(&annotateNumbered, "numbered", false, "require corpus files numbered 1..N")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := currentConfig()
	log := commandLogger()

	dir := c.Corpus.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	out := c.Output.Path
	if annotateOutput != "" {
		out = annotateOutput
	}
	pattern := c.Corpus.Pattern
	if annotatePattern != "" {
		pattern = annotatePattern
	}

	eng, err := buildEngine(c, log)
	if err != nil {
		return err
	}
	corpus := loader.NewCorpusLoader(pattern, c.Corpus.Workers, log)
	if annotateNumbered || c.Corpus.Numbered {
		corpus.RequireNumbering()
	}
	uc := usecases.NewAnnotateUseCase(
		corpus,
		eng,
		writer.NewFileWriter(log),
	)

	run := func() error {
		result, err := uc.Run(ctx, dir, out)
		if err != nil {
			return err
		}
		log.Info("corpus annotated",
			zap.String("engine", eng.Name()),
			zap.String("pattern", corpus.Pattern()),
			zap.Int("files", result.Files),
			zap.Int("sentences", result.Sentences),
			zap.String("output", result.Output))
		fmt.Fprintf(cmd.OutOrStdout(), "annotated %d files into %d sentences: %s\n",
			result.Files, result.Sentences, result.Output)
		return nil
	}

	if !annotateWatch {
		return run()
	}

	watcher, err := filewatcher.NewFSNotifyWatcher([]string{pattern}, log)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	if err := run(); err != nil {
		log.Error("annotation failed", zap.String("dir", dir), zap.Error(err))
	}
	for range filewatcher.Debounce(ctx, events, c.GetWatchDebounce()) {
		log.Info("corpus changed", zap.String("dir", dir))
		if err := run(); err != nil {
			log.Error("annotation failed", zap.String("dir", dir), zap.Error(err))
		}
	}
	return nil
}
