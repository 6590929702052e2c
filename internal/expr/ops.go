package expr

import "math"

func nan() float64 { return math.NaN() }

type binary struct {
	op   string
	l, r Node
}

func (b binary) Eval(x float64, pars []float64) float64 {
	lv := b.l.Eval(x, pars)
	rv := b.r.Eval(x, pars)
	switch b.op {
	case "+":
		return lv + rv
	case "-":
		return lv - rv
	case "*":
		return lv * rv
	default:
		return lv / rv
	}
}

func (b binary) String() string {
	return "(" + b.l.String() + " " + b.op + " " + b.r.String() + ")"
}

func (b binary) maxParam() int {
	return maxInt(b.l.maxParam(), b.r.maxParam())
}

func Add(l, r Node) Node { return binary{op: "+", l: l, r: r} }
func Sub(l, r Node) Node { return binary{op: "-", l: l, r: r} }
func Mul(l, r Node) Node { return binary{op: "*", l: l, r: r} }
func Div(l, r Node) Node { return binary{op: "/", l: l, r: r} }

// Sum folds Add over its arguments.
func Sum(terms ...Node) Node {
	if len(terms) == 0 {
		return C(0)
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = Add(acc, t)
	}
	return acc
}

type neg struct{ n Node }

func Neg(n Node) Node { return neg{n: n} }

func (u neg) Eval(x float64, pars []float64) float64 { return -u.n.Eval(x, pars) }
func (u neg) String() string                         { return "-(" + u.n.String() + ")" }
func (u neg) maxParam() int                          { return u.n.maxParam() }

type pow struct{ base, exp Node }

func Pow(base, exp Node) Node { return pow{base: base, exp: exp} }

func (p pow) Eval(x float64, pars []float64) float64 {
	return math.Pow(p.base.Eval(x, pars), p.exp.Eval(x, pars))
}

func (p pow) String() string {
	return "pow(" + p.base.String() + ", " + p.exp.String() + ")"
}

func (p pow) maxParam() int {
	return maxInt(p.base.maxParam(), p.exp.maxParam())
}

type unaryFn struct {
	name string
	fn   func(float64) float64
	arg  Node
}

func Log(arg Node) Node  { return unaryFn{name: "log", fn: math.Log, arg: arg} }
func Sqrt(arg Node) Node { return unaryFn{name: "sqrt", fn: math.Sqrt, arg: arg} }
func Exp(arg Node) Node  { return unaryFn{name: "exp", fn: math.Exp, arg: arg} }

func (u unaryFn) Eval(x float64, pars []float64) float64 {
	return u.fn(u.arg.Eval(x, pars))
}

func (u unaryFn) String() string { return u.name + "(" + u.arg.String() + ")" }
func (u unaryFn) maxParam() int  { return u.arg.maxParam() }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
