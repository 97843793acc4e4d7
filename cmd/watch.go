package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/watch"
	"github.com/gnolang/trs/rewrite"
)

var (
	watchSearch searchFlags
	watchOutput outputFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch <expression>",
	Short: "Simplify again whenever the configuration or the rules file changes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		input, _ := readExpression(args, nil, nil)
		build := func() (*rewrite.Engine, error) {
			return watchSearch.newEngine(cmd)
		}

		cfg, err := watchSearch.loadConfig(cmd)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		files := []string{cfgFile}
		if cfg.RulesFile != "" {
			files = append(files, cfg.RulesFile)
		}

		if err := runWatch(ctx, build, input, files, os.Stdout, watchOutput); err != nil {
			logger.Error("Error watching files", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	watchSearch.register(watchCmd)
	watchOutput.register(watchCmd)
}

// runWatch simplifies input once, then again after every change to files,
// until ctx is done. A broken configuration is reported and skipped so that
// the next save can fix it.
func runWatch(
	ctx context.Context,
	build func() (*rewrite.Engine, error),
	input string,
	files []string,
	out io.Writer,
	opts outputFlags,
) error {
	run := func() {
		engine, err := build()
		if err != nil {
			logger.Error("Failed to initialize rewrite engine", zap.Error(err))
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := runSimplify(runCtx, engine, input, out, opts); err != nil {
			logger.Error("Error simplifying expression", zap.Error(err))
		}
	}

	w, err := watch.New(logger, func(path string) {
		fmt.Fprintf(out, "\n%s changed\n", path)
		run()
	}, files...)
	if err != nil {
		return err
	}

	run()
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
