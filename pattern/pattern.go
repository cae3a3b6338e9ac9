// Package pattern defines triple patterns — the atoms of a basic graph
// pattern — and the per-pattern iterator the leapfrog join drives over
// the ring index.
package pattern

import "fmt"

// Term is one position of a triple pattern: either a data constant or a
// query variable. Variables and constants share the integer type but
// live in disjoint spaces, disambiguated by IsVariable.
type Term struct {
	Value      uint64
	IsVariable bool
}

// Const returns a constant term.
func Const(v uint64) Term { return Term{Value: v} }

// Var returns a variable term. Variable IDs are 8-bit: a query names at
// most 256 distinct variables.
func Var(id uint8) Term { return Term{Value: uint64(id), IsVariable: true} }

// Pattern is a triple pattern (s, p, o).
type Pattern struct {
	S, P, O Term
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s %s %s", p.S, p.P, p.O)
}

func (t Term) String() string {
	if t.IsVariable {
		return fmt.Sprintf("?%d", t.Value)
	}
	return fmt.Sprintf("%d", t.Value)
}
