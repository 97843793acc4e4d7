package expr

import "hash/fnv"

const (
	offset64 uint64 = 14695981039346656037
	prime64  uint64 = 1099511628211
)

// variant seeds keep e.g. Symbol("true") and Constant(true) apart.
const (
	seedSymbol uint64 = iota + 1
	seedConstant
	seedVariable
	seedOperator
	seedAny
)

func hashString(seed uint64, s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return mix(offset64^seed, h.Sum64())
}

func mix(hash, v uint64) uint64 {
	hash ^= v
	hash *= prime64
	return hash
}

func (s Symbol) Hash() uint64 {
	return hashString(seedSymbol, s.Name)
}

func (c Constant) Hash() uint64 {
	if c.Value {
		return mix(offset64^seedConstant, 1)
	}
	return mix(offset64^seedConstant, 0)
}

func (v Variable) Hash() uint64 {
	h := hashString(seedVariable, v.ID)
	if v.Signature == nil {
		return mix(h, seedAny)
	}
	return mix(h, v.Signature.Hash())
}

func hashOperator(tag string, operands []Expr) uint64 {
	h := hashString(seedOperator, tag)
	h = mix(h, uint64(len(operands)))
	for _, operand := range operands {
		h = mix(h, operand.Hash())
	}
	return h
}

// Equal reports whether a and b are structurally equal. Two nil expressions
// are equal; nil never equals a non-nil expression.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x.Name == y.Name
	case Constant:
		y, ok := b.(Constant)
		return ok && x.Value == y.Value
	case Variable:
		y, ok := b.(Variable)
		return ok && x.ID == y.ID && Equal(x.Signature, y.Signature)
	case *Operator:
		y, ok := b.(*Operator)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if x.hash != y.hash || x.tag != y.tag || len(x.operands) != len(y.operands) {
			return false
		}
		for i := range x.operands {
			if !Equal(x.operands[i], y.operands[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Walk visits e and all of its descendants in pre-order. Variable
// signatures are visited after the variable itself.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case Variable:
		Walk(x.Signature, fn)
	case *Operator:
		for _, operand := range x.operands {
			Walk(operand, fn)
		}
	}
}

// IsGround reports whether e contains no pattern variables.
func IsGround(e Expr) bool {
	ground := true
	Walk(e, func(n Expr) {
		if _, ok := n.(Variable); ok {
			ground = false
		}
	})
	return ground
}

// Variables returns the variable identifiers of e in first-occurrence order.
func Variables(e Expr) []string {
	var ids []string
	seen := make(map[string]bool)
	Walk(e, func(n Expr) {
		if v, ok := n.(Variable); ok && !seen[v.ID] {
			seen[v.ID] = true
			ids = append(ids, v.ID)
		}
	})
	return ids
}
