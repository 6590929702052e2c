// Package expr provides a small typed expression AST for the parametric
// background shapes. Only the operators and functions the shape catalog
// needs exist (pow, log, sqrt, exp, arithmetic); parameters are addressed
// positionally, with @0 reserved for the independent variable.
package expr

import (
	"fmt"
	"strconv"
)

// Node is one expression tree node. Eval assumes the tree was validated
// with Check against the supplied parameter count; an out-of-range
// parameter reference evaluates to NaN.
type Node interface {
	Eval(x float64, pars []float64) float64
	String() string
	maxParam() int
}

// UnboundParameterError reports an expression referencing a parameter
// index that was not supplied.
type UnboundParameterError struct {
	Index int
	NPars int
}

func (e UnboundParameterError) Error() string {
	return fmt.Sprintf("expression references parameter @%d but only %d parameters are bound", e.Index, e.NPars)
}

// Check validates that the tree references no parameter beyond nPars.
func Check(n Node, nPars int) error {
	if idx := n.maxParam(); idx > nPars {
		return UnboundParameterError{Index: idx, NPars: nPars}
	}
	return nil
}

// NumParams returns the number of fit parameters the tree references,
// i.e. the highest @i with i >= 1.
func NumParams(n Node) int {
	return n.maxParam()
}

// EvalAll evaluates the tree at every point of xs with the same parameter
// vector.
func EvalAll(n Node, xs, pars []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = n.Eval(x, pars)
	}
	return out
}

type variable struct{}

// X is the independent variable (@0).
func X() Node { return variable{} }

func (variable) Eval(x float64, _ []float64) float64 { return x }
func (variable) String() string                      { return "@0" }
func (variable) maxParam() int                       { return 0 }

type param struct{ idx int }

// P is fit parameter @i (1-based; @0 is the independent variable).
func P(i int) Node {
	if i < 1 {
		panic(fmt.Sprintf("expr: parameter index must be >= 1, got %d", i))
	}
	return param{idx: i}
}

func (p param) Eval(_ float64, pars []float64) float64 {
	if p.idx > len(pars) {
		return nan()
	}
	return pars[p.idx-1]
}

func (p param) String() string { return "@" + strconv.Itoa(p.idx) }
func (p param) maxParam() int  { return p.idx }

type constant struct{ v float64 }

// C is a numeric constant.
func C(v float64) Node { return constant{v: v} }

func (c constant) Eval(_ float64, _ []float64) float64 { return c.v }
func (c constant) String() string                      { return strconv.FormatFloat(c.v, 'g', -1, 64) }
func (constant) maxParam() int                         { return 0 }
