package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/gnolang/trs/internal/types"
)

const pathSeparator = " <=> "

type styles struct {
	header  *color.Color
	input   *color.Color
	arrow   *color.Color
	result  *color.Color
	cost    *color.Color
	warning *color.Color
}

func newStyles(colored bool) styles {
	s := styles{
		header:  color.New(color.FgCyan, color.Bold),
		input:   color.New(color.FgWhite, color.Bold),
		arrow:   color.New(color.FgHiBlue, color.Bold),
		result:  color.New(color.FgGreen, color.Bold),
		cost:    color.New(color.FgYellow),
		warning: color.New(color.FgHiYellow, color.Bold),
	}
	for _, c := range []*color.Color{s.header, s.input, s.arrow, s.result, s.cost, s.warning} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Printer writes reports in the human readable layout:
//
//	Input:
//	!!!true
//	Possible transformations:
//	!!!true <=> !true
type Printer struct {
	out      io.Writer
	styles   styles
	showCost bool
}

func NewPrinter(out io.Writer, colored bool) *Printer {
	return &Printer{out: out, styles: newStyles(colored)}
}

// ShowCost appends the cost of every reachable expression and the number of
// rewrites that reached it to its line.
func (p *Printer) ShowCost(show bool) *Printer {
	p.showCost = show
	return p
}

func (p *Printer) Report(r types.Report) error {
	var b strings.Builder
	b.WriteString(p.styles.header.Sprint("Input:") + "\n")
	b.WriteString(p.styles.input.Sprint(r.Input) + "\n")
	b.WriteString(p.styles.header.Sprint("Possible transformations:") + "\n")
	for _, t := range r.Transformations {
		b.WriteString(p.Path(t) + "\n")
	}
	if r.Truncated {
		b.WriteString(p.styles.warning.Sprint("search stopped early: expansion budget exhausted") + "\n")
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Printer) Reports(reports []types.Report) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(p.out); err != nil {
				return err
			}
		}
		if err := p.Report(r); err != nil {
			return err
		}
	}
	return nil
}

// Path renders the discovery path of t, the last element highlighted.
func (p *Printer) Path(t types.Transformation) string {
	parts := make([]string, len(t.Path))
	for i, step := range t.Path {
		if i == len(t.Path)-1 {
			parts[i] = p.styles.result.Sprint(step)
		} else {
			parts[i] = step
		}
	}
	line := strings.Join(parts, p.styles.arrow.Sprint(pathSeparator))
	if p.showCost {
		line += " " + p.styles.cost.Sprintf("(cost %d, steps %d)", t.Cost, t.Steps())
	}
	return line
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(d))
	return err
}

// JSONFile writes v as indented JSON to path.
func JSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating JSON output file: %w", err)
	}
	defer f.Close()
	return JSON(f, v)
}
