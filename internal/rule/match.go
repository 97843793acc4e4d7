package rule

import "github.com/gnolang/trs/internal/expr"

// Bindings maps variable identifiers to the expressions they matched.
// A Bindings value is scoped to one match attempt.
type Bindings map[string]expr.Expr

// Lookup returns the expression bound to id.
func (b Bindings) Lookup(id string) (expr.Expr, bool) {
	e, ok := b[id]
	return e, ok
}

// Match reports whether pattern matches candidate, extending env with the
// variables bound along the way.
//
// When Match returns false every binding it added is removed again, so env
// is left exactly as it was passed in.
func Match(pattern, candidate expr.Expr, env Bindings) bool {
	var added []string
	if matcher(pattern, candidate, env, &added) {
		return true
	}
	for _, id := range added {
		delete(env, id)
	}
	return false
}

// matcher walks pattern and candidate in lockstep and records the ids it
// binds in added.
func matcher(pattern, candidate expr.Expr, env Bindings, added *[]string) bool {
	switch p := pattern.(type) {
	case expr.Symbol:
		c, ok := candidate.(expr.Symbol)
		return ok && c.Name == p.Name

	case expr.Constant:
		c, ok := candidate.(expr.Constant)
		return ok && c.Value == p.Value

	case *expr.Operator:
		c, ok := candidate.(*expr.Operator)
		if !ok || c.Tag() != p.Tag() || c.Arity() != p.Arity() {
			return false
		}
		for i := 0; i < p.Arity(); i++ {
			if !matcher(p.Operand(i), c.Operand(i), env, added) {
				return false
			}
		}
		return true

	case expr.Variable:
		if p.Signature != nil && !matcher(p.Signature, candidate, env, added) {
			return false
		}
		if bound, ok := env.Lookup(p.ID); ok {
			return expr.Equal(bound, candidate)
		}
		env[p.ID] = candidate
		*added = append(*added, p.ID)
		return true

	default:
		return false
	}
}

// substitute rebuilds template with every bound variable replaced.
// Unbound variables are kept as they are.
func substitute(template expr.Expr, env Bindings) expr.Expr {
	switch t := template.(type) {
	case expr.Variable:
		if bound, ok := env.Lookup(t.ID); ok {
			return bound
		}
		return t

	case *expr.Operator:
		operands := make([]expr.Expr, t.Arity())
		changed := false
		for i := range operands {
			operands[i] = substitute(t.Operand(i), env)
			if operands[i] != t.Operand(i) {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return expr.Op(t.Tag(), operands...)

	default:
		return template
	}
}
