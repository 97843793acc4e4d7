package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/printer"
	"github.com/gnolang/trs/internal/types"
	"github.com/gnolang/trs/rewrite"
)

var (
	batchSearch  searchFlags
	batchOutput  outputFlags
	batchWorkers int
	noProgress   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Simplify every expression of a file, one per line",
	Long: `Reads one expression per line ('-' reads standard input). Blank lines and
lines starting with '#' are skipped.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := batchSearch.newEngine(cmd)
		if err != nil {
			logger.Fatal("Failed to initialize rewrite engine", zap.Error(err))
		}

		inputs, err := rewrite.ReadInputFile(args[0])
		if err != nil {
			logger.Fatal("Failed to read expressions", zap.String("file", args[0]), zap.Error(err))
		}

		var progress io.Writer
		if !noProgress && printer.IsTerminal(os.Stderr) {
			progress = os.Stderr
		}

		failed, err := runBatch(ctx, engine, inputs, os.Stdout, os.Stderr, progress, batchOutput)
		if err != nil {
			logger.Error("Error processing batch", zap.Error(err))
			os.Exit(1)
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	batchSearch.register(batchCmd)
	batchOutput.register(batchCmd)
	batchCmd.Flags().IntVar(&batchWorkers, "jobs", 0, "Expressions simplified concurrently (defaults to the number of CPUs)")
	batchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
}

// runBatch writes the reports of all inputs to out and the failures to
// errOut. It returns the number of inputs that failed.
func runBatch(
	ctx context.Context,
	engine rewrite.Simplifier,
	inputs []string,
	out, errOut, progress io.Writer,
	opts outputFlags,
) (int, error) {
	results, err := rewrite.ProcessBatch(ctx, logger, engine, inputs, rewrite.BatchOptions{
		Workers:  batchWorkers,
		Progress: progress,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("batch timed out after %s", timeout)
		}
		return 0, err
	}

	failed := 0
	reports := make([]types.Report, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(errOut, "error: %s: %v\n", r.Input, r.Err)
			continue
		}
		reports = append(reports, r.Result.Report)
	}

	if opts.json {
		if opts.outPath != "" {
			return failed, printer.JSONFile(opts.outPath, reports)
		}
		return failed, printer.JSON(out, reports)
	}
	return failed, newPrinter(out, opts).Reports(reports)
}
