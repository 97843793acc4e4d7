package rewrite

import (
	"bufio"
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchOptions controls ProcessBatch.
type BatchOptions struct {
	// Workers defaults to the number of CPUs.
	Workers int
	// Progress, when not nil, receives a progress bar.
	Progress io.Writer
}

// BatchResult is the outcome for one input of a batch. Exactly one of
// Result and Err is set.
type BatchResult struct {
	Input  string  `json:"input"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// ProcessBatch simplifies every input concurrently. Results keep the order of
// inputs. A failing input does not stop the batch; only the end of ctx does,
// in which case the results gathered so far are returned with ctx.Err()
// and the entries of unprocessed inputs are left zero.
func ProcessBatch(
	ctx context.Context,
	logger *zap.Logger,
	engine Simplifier,
	inputs []string,
	opts BatchOptions,
) ([]BatchResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(inputs),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("simplifying"),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	results := make([]BatchResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := engine.Simplify(gctx, input)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error("Error processing expression", zap.String("input", input), zap.Error(err))
			}
			results[i] = BatchResult{Input: input, Result: res, Err: err}
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return results, nil
}

// ReadInputs reads one expression per line. Blank lines and lines starting
// with '#' are skipped.
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	return inputs, scanner.Err()
}

// ReadInputFile is ReadInputs on the file at path; "-" reads standard input.
func ReadInputFile(path string) ([]string, error) {
	if path == "-" {
		return ReadInputs(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadInputs(f)
}
