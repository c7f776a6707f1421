package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

var (
	reportsLimit int
	reportsJSON  bool
)

// reportsCmd lists validation history
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List recorded validation runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReports,
}

func init() {
	reportsCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 20, "maximum runs to show (0 = all)")
	reportsCmd.Flags().BoolVar(&reportsJSON, "json", false, "print runs as JSON")
}

func runReports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(currentConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, reportsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reportsJSON {
		if runs == nil {
			runs = []entities.ValidationRun{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No validation runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECKED\tRESULT\tSENTENCES\tERRORS\tWARNINGS\tARTIFACT\tRULES")
	for _, run := range runs {
		result := "PASS"
		if !run.Pass {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.CheckedAt.Local().Format(time.DateTime), result,
			run.Sentences, run.Errors, run.Warnings, run.Artifact, formatCounts(run.RuleCounts))
	}
	return tw.Flush()
}

func formatCounts(counts map[entities.Rule]int) string {
	if len(counts) == 0 {
		return "-"
	}
	rules := make([]entities.Rule, 0, len(counts))
	for r := range counts {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Order() < rules[j].Order() })

	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = fmt.Sprintf("%s=%d", r, counts[r])
	}
	return strings.Join(parts, ",")
}
