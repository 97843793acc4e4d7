package expr

import (
	"fmt"
	"strings"
)

// Expr represents a node of a logic expression tree.
//
// The set of variants is closed: Symbol, Constant, Variable and *Operator.
// Every value is immutable once built, so expressions can be shared freely
// between goroutines and used as keys through Hash and Equal.
type Expr interface {
	isExpr()
	String() string
	// Hash returns a structural hash consistent with Equal.
	Hash() uint64
	// Cost is 1 for atoms and 1 + the operand costs for operators.
	Cost() int
}

// Symbol is an opaque named atom.
type Symbol struct {
	Name string
}

func (Symbol) isExpr() {}

func (s Symbol) String() string { return s.Name }

func (Symbol) Cost() int { return 1 }

// Constant is a literal truth value.
type Constant struct {
	Value bool
}

func (Constant) isExpr() {}

func (c Constant) String() string {
	if c.Value {
		return "true"
	}
	return "false"
}

func (Constant) Cost() int { return 1 }

// Variable is a pattern placeholder. It only appears inside rule patterns.
// A nil Signature matches every expression.
type Variable struct {
	ID        string
	Signature Expr
}

func (Variable) isExpr() {}

func (v Variable) String() string {
	if v.Signature == nil {
		return "$" + v.ID
	}
	return "$" + v.ID + ":" + v.Signature.String()
}

func (Variable) Cost() int { return 1 }

// Operator is an n-ary node such as negation, conjunction or disjunction.
type Operator struct {
	tag      string
	operands []Expr
	hash     uint64
	cost     int
}

func (*Operator) isExpr() {}

// Tag returns the operator symbol, e.g. "!" or "&&".
func (o *Operator) Tag() string { return o.tag }

// Arity returns the number of operands.
func (o *Operator) Arity() int { return len(o.operands) }

// Operand returns the i-th operand.
func (o *Operator) Operand(i int) Expr { return o.operands[i] }

// Operands returns a copy of the operand list.
func (o *Operator) Operands() []Expr {
	out := make([]Expr, len(o.operands))
	copy(out, o.operands)
	return out
}

func (o *Operator) Hash() uint64 { return o.hash }

func (o *Operator) Cost() int { return o.cost }

func (o *Operator) String() string {
	if len(o.operands) == 1 {
		return o.tag + o.operands[0].String()
	}
	parts := make([]string, len(o.operands))
	for i, operand := range o.operands {
		parts[i] = operand.String()
	}
	return "(" + strings.Join(parts, o.tag) + ")"
}

// Operator tags. Any of them may be used as a unary prefix, so Op(TagAnd, x)
// renders as &&x.
const (
	TagNot = "!"
	TagAnd = "&&"
	TagOr  = "||"
)

// Helper functions to construct expressions

// Sym creates a symbol. It panics when name is not an identifier or is one
// of the constant literals, since such a symbol would not parse back.
func Sym(name string) Expr {
	if !isIdentifier(name) || isLiteral(name) {
		panic(fmt.Sprintf("expr: invalid symbol name %q", name))
	}
	return Symbol{Name: name}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentifierChar(s[i]) {
			return false
		}
	}
	return true
}

func isLiteral(s string) bool {
	switch s {
	case "true", "True", "false", "False":
		return true
	}
	return false
}

// Const creates a constant.
func Const(v bool) Expr {
	return Constant{Value: v}
}

// True creates the constant true.
func True() Expr { return Constant{Value: true} }

// False creates the constant false.
func False() Expr { return Constant{Value: false} }

// Var creates an unconstrained pattern variable.
func Var(id string) Expr {
	return VarWithSignature(id, nil)
}

// VarWithSignature creates a pattern variable that only binds candidates
// matching sig.
func VarWithSignature(id string, sig Expr) Expr {
	if !isIdentifier(id) {
		panic(fmt.Sprintf("expr: invalid variable id %q", id))
	}
	return Variable{ID: id, Signature: sig}
}

// Op creates an operator node. The operand slice is copied.
// It panics when no operand is given, when tag is not one of the tags
// below, or when a negation gets more than one operand.
func Op(tag string, operands ...Expr) *Operator {
	if len(operands) == 0 {
		panic(fmt.Sprintf("expr: operator %q needs at least one operand", tag))
	}
	switch tag {
	case TagNot:
		if len(operands) != 1 {
			panic(fmt.Sprintf("expr: %q takes one operand, got %d", tag, len(operands)))
		}
	case TagAnd, TagOr:
	default:
		panic(fmt.Sprintf("expr: unknown operator %q", tag))
	}
	o := &Operator{
		tag:      tag,
		operands: make([]Expr, len(operands)),
		cost:     1,
	}
	copy(o.operands, operands)
	for _, operand := range o.operands {
		if operand == nil {
			panic(fmt.Sprintf("expr: nil operand in %q", tag))
		}
		o.cost += operand.Cost()
	}
	o.hash = hashOperator(o.tag, o.operands)
	return o
}

// Not creates a logical negation.
func Not(e Expr) Expr {
	return Op(TagNot, e)
}

// And creates a conjunction.
func And(operands ...Expr) Expr {
	return Op(TagAnd, operands...)
}

// Or creates a disjunction.
func Or(operands ...Expr) Expr {
	return Op(TagOr, operands...)
}
