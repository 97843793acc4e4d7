// Package expr defines the immutable expression trees rewritten by trs.
//
// An expression is one of four variants:
//   - Symbol: an opaque named atom (x, y, p1)
//   - Constant: true or false
//   - Variable: a pattern placeholder ($a), only valid inside rules
//   - Operator: an n-ary node identified by a tag (!, &&, ||)
//
// Equality and hashing are structural, so expressions can be compared and
// indexed without regard to how they were built. The textual form produced
// by String is accepted back by Parse.
package expr
