package types

// Transformation is a reachable expression along with the rewrites that
// produced it, in rendered form.
type Transformation struct {
	Expr string `json:"expr"`
	Cost int    `json:"cost"`
	// Path starts at the input expression and ends at Expr.
	Path []string `json:"path"`
}

// Steps returns the number of rewrites on the path.
func (t Transformation) Steps() int { return len(t.Path) - 1 }

// Report is the outcome of simplifying one expression.
type Report struct {
	Input           string           `json:"input"`
	RuleSet         string           `json:"ruleset"`
	Depth           int              `json:"depth"`
	Order           string           `json:"order"`
	Transformations []Transformation `json:"transformations"`
	// Truncated is set when the expansion budget stopped the search early.
	Truncated bool `json:"truncated,omitempty"`
}
