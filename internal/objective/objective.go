// Package objective turns a model expression plus a histogram into scalar
// objective functions consumable by a generic minimizer. Both variants
// rescale the model curve to the histogram total first, so only the shape
// is compared.
package objective

import (
	"math"

	"svjfit/internal/expr"
	"svjfit/internal/hist"
)

// Func is a pure scalar objective over a fit parameter vector.
type Func func(pars []float64) float64

// Chi2 builds a Neyman chi-square objective (model as variance estimate)
// for an expression with nPars fit parameters against h. The expression is
// validated up front; an unbound parameter reference fails here, not
// during minimization.
func Chi2(node expr.Node, h *hist.Histogram, nPars int) (Func, error) {
	if err := expr.Check(node, nPars); err != nil {
		return nil, err
	}
	centers := h.BinCenters()
	vals := append([]float64(nil), h.Vals...)
	total := h.Sum()
	return func(pars []float64) float64 {
		y := rescaled(node, centers, pars, total)
		chi2 := 0.0
		for i, v := range vals {
			d := v - y[i]
			chi2 += d * d / y[i]
		}
		return chi2
	}, nil
}

// RSS builds a residual-sum-of-squares objective: the Euclidean norm of
// (data − rescaled model).
func RSS(node expr.Node, h *hist.Histogram, nPars int) (Func, error) {
	if err := expr.Check(node, nPars); err != nil {
		return nil, err
	}
	centers := h.BinCenters()
	vals := append([]float64(nil), h.Vals...)
	total := h.Sum()
	return func(pars []float64) float64 {
		y := rescaled(node, centers, pars, total)
		rss := 0.0
		for i, v := range vals {
			d := v - y[i]
			rss += d * d
		}
		return math.Sqrt(rss)
	}, nil
}

// rescaled evaluates the expression at the bin centers and scales the
// curve so its total matches the histogram total. A zero-sum curve is
// left unscaled to avoid dividing by zero.
func rescaled(node expr.Node, centers, pars []float64, total float64) []float64 {
	y := expr.EvalAll(node, centers, pars)
	ySum := 0.0
	for _, v := range y {
		ySum += v
	}
	if ySum == 0 {
		return y
	}
	scale := total / ySum
	for i := range y {
		y[i] *= scale
	}
	return y
}
