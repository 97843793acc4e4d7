package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/printer"
	"github.com/gnolang/trs/rewrite"
)

var (
	simplifySearch searchFlags
	simplifyOutput outputFlags
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify [expression]",
	Short: "List every expression reachable from the input",
	Long: `Applies the configured rules anywhere inside the expression, up to the
maximum depth, and prints how each reachable expression was found.
Without an argument the expression is read from standard input.

Example) trs simplify '!!!(x||y)' --ruleset boolean-oneway`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := simplifySearch.newEngine(cmd)
		if err != nil {
			logger.Fatal("Failed to initialize rewrite engine", zap.Error(err))
		}

		input, err := readExpression(args, os.Stdin, os.Stdout)
		if err != nil {
			logger.Fatal("Failed to read expression", zap.Error(err))
		}

		if err := runSimplify(ctx, engine, input, os.Stdout, simplifyOutput); err != nil {
			logger.Error("Error simplifying expression", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	simplifySearch.register(simplifyCmd)
	simplifyOutput.register(simplifyCmd)
}

// readExpression joins args, or prompts for a line on in when args is empty.
func readExpression(args []string, in io.Reader, out io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	fmt.Fprintln(out, "Input the expression:")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no expression given")
	}
	return line, nil
}

func runSimplify(ctx context.Context, engine rewrite.Simplifier, input string, out io.Writer, opts outputFlags) error {
	res, err := engine.Simplify(ctx, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("search timed out after %s", timeout)
		}
		return err
	}

	if res.Stats != nil {
		logger.Debug("search statistics",
			zap.Int("expansions", res.Stats.Expansions),
			zap.Int("ruleApplications", res.Stats.RuleApplications),
			zap.Int("recombinations", res.Stats.Recombinations),
			zap.Int("depthCutoffs", res.Stats.DepthCutoffs),
		)
	}

	if opts.json {
		if opts.outPath != "" {
			return printer.JSONFile(opts.outPath, res)
		}
		return printer.JSON(out, res)
	}
	return newPrinter(out, opts).Report(res.Report)
}

func newPrinter(out io.Writer, opts outputFlags) *printer.Printer {
	colored := false
	if f, ok := out.(*os.File); ok && !opts.noColor {
		colored = printer.IsTerminal(f)
	}
	return printer.NewPrinter(out, colored).ShowCost(opts.showCost)
}
