package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gnolang/trs/internal/expr"
)

// Entry pairs a reachable expression with the path that discovered it.
type Entry struct {
	Expr expr.Expr
	Path []expr.Expr
}

// Steps returns the number of rewrites on the path.
func (e Entry) Steps() int { return len(e.Path) - 1 }

func (e Entry) String() string {
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = p.String()
	}
	return strings.Join(parts, " <=> ")
}

// PathMap maps every discovered expression to its first discovery path.
//
// Keys are compared structurally. Entries keep their discovery order; the
// first entry is always the start expression with the single-element path
// [start]. A PathMap returned by Simplify must be treated as read-only.
type PathMap struct {
	entries []Entry
	// buckets maps a structural hash to the indexes of entries sharing it.
	buckets map[uint64][]int
}

func newPathMap(start expr.Expr) *PathMap {
	m := &PathMap{buckets: make(map[uint64][]int)}
	m.add(start, []expr.Expr{start})
	return m
}

// add records e with path unless e is already present. It returns whether
// the entry was added.
func (m *PathMap) add(e expr.Expr, path []expr.Expr) bool {
	if m.Contains(e) {
		return false
	}
	h := e.Hash()
	m.buckets[h] = append(m.buckets[h], len(m.entries))
	m.entries = append(m.entries, Entry{Expr: e, Path: path})
	return true
}

func (m *PathMap) find(e expr.Expr) (int, bool) {
	for _, i := range m.buckets[e.Hash()] {
		if expr.Equal(m.entries[i].Expr, e) {
			return i, true
		}
	}
	return 0, false
}

// Contains reports whether e has been discovered.
func (m *PathMap) Contains(e expr.Expr) bool {
	_, ok := m.find(e)
	return ok
}

// Get returns the discovery path of e.
func (m *PathMap) Get(e expr.Expr) ([]expr.Expr, bool) {
	i, ok := m.find(e)
	if !ok {
		return nil, false
	}
	path := make([]expr.Expr, len(m.entries[i].Path))
	copy(path, m.entries[i].Path)
	return path, true
}

// Len returns the number of entries, including the start expression.
func (m *PathMap) Len() int { return len(m.entries) }

// Start returns the expression the search started from.
func (m *PathMap) Start() expr.Expr { return m.entries[0].Expr }

// Entries returns all entries in discovery order.
func (m *PathMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Reachable returns the entries reached by at least one rewrite, in
// discovery order.
func (m *PathMap) Reachable() []Entry {
	out := make([]Entry, len(m.entries)-1)
	copy(out, m.entries[1:])
	return out
}

// Sorted returns the reachable entries ordered by cost. Entries of equal
// cost keep their discovery order.
func (m *PathMap) Sorted(order Order) []Entry {
	out := m.Reachable()
	sort.SliceStable(out, func(i, j int) bool {
		return order.less(out[i].Expr, out[j].Expr)
	})
	return out
}

// Order is the presentation order of search results.
type Order int

const (
	// Ascending lists the cheapest expressions first.
	Ascending Order = iota
	// Descending lists the most expensive expressions first.
	Descending
)

func (o Order) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "unknown"
	}
}

// ParseOrder accepts "asc"/"ascending" and "desc"/"descending".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown order %q", s)
	}
}

func (o Order) less(a, b expr.Expr) bool {
	if o == Descending {
		return a.Cost() > b.Cost()
	}
	return a.Cost() < b.Cost()
}
