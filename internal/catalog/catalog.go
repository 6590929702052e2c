// Package catalog holds the fixed set of parametric background shape
// families and the factory that turns a (family, parameter count) pair
// into a concrete model instance bound to a histogram.
package catalog

import (
	"fmt"
	"sort"

	"svjfit/internal/expr"
)

// DefaultMassScale is the mass scale dividing the independent variable in
// every family expression.
const DefaultMassScale = 1000.

// Range is a closed parameter interval.
type Range struct {
	Lo float64
	Hi float64
}

// HardRange is an optional clipping interval; a nil side means no clip on
// that side.
type HardRange struct {
	Lo *float64
	Hi *float64
}

// InvalidParameterCountError reports a parameter count outside a family's
// declared valid interval.
type InvalidParameterCountError struct {
	Family string
	N      int
	Min    int
	Max    int
}

func (e InvalidParameterCountError) Error() string {
	return fmt.Sprintf("unavailable npars %d for %s (allowed: %d to %d)", e.N, e.Family, e.Min, e.Max)
}

type countSpec struct {
	build func(scale float64) expr.Node
	// pars overrides the default (-100, 100) range per parameter index.
	pars map[int]Range
	// mins/maxs are family-level hard ranges consulted by the refiner's
	// bound adjustment; empty for every current family.
	mins map[int]HardRange
	maxs map[int]HardRange
}

// Family is one catalog entry: a named functional form with an ordered set
// of valid parameter counts.
type Family struct {
	name   string
	counts map[int]countSpec
	nMin   int
	nMax   int
}

func newFamily(name string, counts map[int]countSpec) *Family {
	f := &Family{name: name, counts: counts}
	first := true
	for n := range counts {
		if first || n < f.nMin {
			f.nMin = n
		}
		if first || n > f.nMax {
			f.nMax = n
		}
		first = false
	}
	return f
}

func (f *Family) Name() string { return f.name }
func (f *Family) NMin() int    { return f.nMin }
func (f *Family) NMax() int    { return f.nMax }

// CheckN fails fast when n is outside the family's valid interval.
func (f *Family) CheckN(n int) error {
	if _, ok := f.counts[n]; !ok {
		return InvalidParameterCountError{Family: f.name, N: n, Min: f.nMin, Max: f.nMax}
	}
	return nil
}

// Expression builds the expression tree for n parameters at the given mass
// scale.
func (f *Family) Expression(n int, scale float64) (expr.Node, error) {
	if err := f.CheckN(n); err != nil {
		return nil, err
	}
	return f.counts[n].build(scale), nil
}

// ParamRange returns the declared range of parameter i (1-based) for the
// n-parameter variant; (-100, 100) when no override exists.
func (f *Family) ParamRange(n, i int) (Range, error) {
	if err := f.CheckN(n); err != nil {
		return Range{}, err
	}
	if r, ok := f.counts[n].pars[i]; ok {
		return r, nil
	}
	return Range{Lo: -100, Hi: 100}, nil
}

// MinRange returns the hard minimum range for parameter i, used to keep
// the refiner from shrinking a bound below it.
func (f *Family) MinRange(n, i int) (HardRange, error) {
	if err := f.CheckN(n); err != nil {
		return HardRange{}, err
	}
	return f.counts[n].mins[i], nil
}

// MaxRange returns the hard maximum range for parameter i, used to clip
// the refiner's bound widening.
func (f *Family) MaxRange(n, i int) (HardRange, error) {
	if err := f.CheckN(n); err != nil {
		return HardRange{}, err
	}
	return f.counts[n].maxs[i], nil
}

// Get looks a family up by name.
func Get(name string) (*Family, error) {
	f, ok := families[name]
	if !ok {
		return nil, fmt.Errorf("unknown model family %q", name)
	}
	return f, nil
}

// KnownFamilies is the ordered set of families a datacard run actually
// fits; the catalog holds more.
func KnownFamilies() []string {
	return []string{"main", "alt", "ua2"}
}

// AllFamilies lists every catalog entry, sorted by name.
func AllFamilies() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// z is the scaled independent variable @0/scale.
func z(scale float64) expr.Node {
	return expr.Div(expr.X(), expr.C(scale))
}

func logz(scale float64) expr.Node {
	return expr.Log(z(scale))
}

// oneMinusZ is (1 - @0/scale).
func oneMinusZ(scale float64) expr.Node {
	return expr.Sub(expr.C(1), z(scale))
}

var families = map[string]*Family{
	// Function from theorists; model NM has N params on 1-x and M params
	// on x, exponents are (p_i + p_{i+1} * log(x)).
	"main": newFamily("main", map[int]countSpec{
		2: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(oneMinusZ(s), expr.P(1)),
					expr.Pow(z(s), expr.Neg(expr.P(2))),
				)
			},
			pars: map[int]Range{1: {-30, 30}, 2: {-10, 10}},
		},
		3: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(oneMinusZ(s), expr.P(1)),
					expr.Pow(z(s), expr.Neg(expr.Add(expr.P(2), expr.Mul(expr.P(3), logz(s))))),
				)
			},
			pars: map[int]Range{1: {-45, 45}, 2: {-10, 10}, 3: {-15, 15}},
		},
		4: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(oneMinusZ(s), expr.P(1)),
					expr.Pow(z(s), expr.Neg(expr.Sum(
						expr.P(2),
						expr.Mul(expr.P(3), logz(s)),
						expr.Mul(expr.P(4), expr.Pow(logz(s), expr.C(2))),
					))),
				)
			},
			pars: map[int]Range{1: {-95, 95}, 2: {-25, 20}, 3: {-2, 2}, 4: {-2, 2}},
		},
		5: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(oneMinusZ(s), expr.Sum(
						expr.P(1),
						expr.Mul(expr.P(2), logz(s)),
						expr.Mul(expr.P(3), expr.Pow(logz(s), expr.C(2))),
					)),
					expr.Pow(z(s), expr.Neg(expr.Add(expr.P(4), expr.Mul(expr.P(5), logz(s))))),
				)
			},
			pars: map[int]Range{1: {-15, 15}, 2: {-95, 95}, 3: {-25, 25}, 4: {-5, 5}, 5: {-1.5, 1.5}},
		},
	}),
	"alt": newFamily("alt", map[int]countSpec{
		2: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Exp(expr.Mul(expr.P(1), z(s))),
					expr.Pow(z(s), expr.P(2)),
				)
			},
			pars: map[int]Range{1: {-50, 50}, 2: {-10, 10}},
		},
		3: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Exp(expr.Mul(expr.P(1), z(s))),
					expr.Pow(z(s), expr.Mul(expr.P(2), expr.Add(expr.C(1), expr.Mul(expr.P(3), logz(s))))),
				)
			},
		},
		4: {
			build: func(s float64) expr.Node {
				inner := expr.Add(expr.C(1), expr.Mul(expr.P(4), logz(s)))
				return expr.Mul(
					expr.Exp(expr.Mul(expr.P(1), z(s))),
					expr.Pow(z(s), expr.Mul(expr.P(2), expr.Add(expr.C(1), expr.Mul(expr.P(3), expr.Mul(logz(s), inner))))),
				)
			},
			pars: map[int]Range{1: {-150, 150}, 2: {-100, 100}, 3: {-10, 10}, 4: {-10, 10}},
		},
	}),
	"ua2": newFamily("ua2", map[int]countSpec{
		2: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(z(s), expr.P(1)),
					expr.Exp(expr.Mul(z(s), expr.P(2))),
				)
			},
		},
		3: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(z(s), expr.P(1)),
					expr.Exp(expr.Mul(z(s), expr.Add(expr.P(2), expr.Mul(expr.P(3), z(s))))),
				)
			},
		},
		4: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(z(s), expr.P(1)),
					expr.Exp(expr.Mul(z(s), expr.Sum(
						expr.P(2),
						expr.Mul(expr.P(3), z(s)),
						expr.Mul(expr.P(4), expr.Pow(z(s), expr.C(2))),
					))),
				)
			},
		},
		5: {
			build: func(s float64) expr.Node {
				return expr.Mul(
					expr.Pow(z(s), expr.P(1)),
					expr.Exp(expr.Mul(z(s), expr.Sum(
						expr.P(2),
						expr.Mul(expr.P(3), z(s)),
						expr.Mul(expr.P(4), expr.Pow(z(s), expr.C(2))),
						expr.Mul(expr.P(5), expr.Pow(z(s), expr.C(3))),
					))),
				)
			},
		},
	}),
	"ua2mod": newFamily("ua2mod", polynomialExpFamily(5)),
	"modexp": newFamily("modexp", map[int]countSpec{
		2: {
			build: func(s float64) expr.Node {
				return expr.Exp(expr.Mul(expr.P(1), expr.Pow(z(s), expr.P(2))))
			},
			pars: map[int]Range{1: {-20, 0}, 2: {0, 10}},
		},
		3: {
			build: func(s float64) expr.Node {
				return expr.Exp(expr.Add(
					expr.Mul(expr.P(1), expr.Pow(z(s), expr.P(2))),
					expr.Mul(expr.P(1), expr.Pow(oneMinusZ(s), expr.P(3))),
				))
			},
			pars: map[int]Range{1: {-20, 0}, 2: {0, 10}, 3: {-10, 0}},
		},
		4: {
			build: func(s float64) expr.Node {
				return expr.Exp(expr.Add(
					expr.Mul(expr.P(1), expr.Pow(z(s), expr.P(2))),
					expr.Mul(expr.P(4), expr.Pow(oneMinusZ(s), expr.P(3))),
				))
			},
			pars: map[int]Range{1: {-20, 0}, 2: {0, 10}, 3: {-10, 0}, 4: {-20, 0}},
		},
	}),
	"polpow": newFamily("polpow", polPowFamily(5)),
}

// polynomialExpFamily builds exp(p1*z + p2*z^2 + ... + pn*z^n) for n from
// 1 to nMax (the ua2mod forms).
func polynomialExpFamily(nMax int) map[int]countSpec {
	counts := make(map[int]countSpec, nMax)
	for n := 1; n <= nMax; n++ {
		n := n
		counts[n] = countSpec{
			build: func(s float64) expr.Node {
				terms := make([]expr.Node, n)
				for i := 1; i <= n; i++ {
					terms[i-1] = expr.Mul(expr.P(i), zPower(s, i))
				}
				return expr.Exp(expr.Sum(terms...))
			},
		}
	}
	return counts
}

// polPowFamily builds pow(1 + p1*z + ... + p_{n-1}*z^{n-1}, -pn) for n
// from 2 to nMax.
func polPowFamily(nMax int) map[int]countSpec {
	counts := make(map[int]countSpec, nMax-1)
	for n := 2; n <= nMax; n++ {
		n := n
		pars := make(map[int]Range, n)
		for i := 1; i < n; i++ {
			pars[i] = Range{Lo: 0, Hi: 50}
		}
		pars[n] = Range{Lo: -50, Hi: 0}
		counts[n] = countSpec{
			build: func(s float64) expr.Node {
				terms := make([]expr.Node, 0, n)
				terms = append(terms, expr.C(1))
				for i := 1; i < n; i++ {
					terms = append(terms, expr.Mul(expr.P(i), zPower(s, i)))
				}
				return expr.Pow(expr.Sum(terms...), expr.Neg(expr.P(n)))
			},
			pars: pars,
		}
	}
	return counts
}

func zPower(scale float64, k int) expr.Node {
	if k == 1 {
		return z(scale)
	}
	return expr.Pow(z(scale), expr.C(float64(k)))
}
