package fit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"

	"svjfit/internal/catalog"
	"svjfit/internal/fitcache"
	"svjfit/internal/model"
)

// Refine takes the robust optimizer's estimate as a seed and refines it
// with a weighted maximum-likelihood fit of the model against its bound
// histogram, via a Levenberg-Marquardt trust-region engine. Parameter
// bounds are adjusted first: a seed outside its bound widens the violated
// side to seed ± 10·|seed| (clipped by the family hard max range), and a
// seed small relative to both bounds shrinks the range to ±10·|seed|
// (extended by the family hard min range). The out-of-bound check runs
// before the smallness check; a parameter can trigger both.
func Refine(ctx context.Context, m *catalog.Model, seed []float64) (model.FitResult, error) {
	if len(seed) != len(m.Params) {
		return model.FitResult{}, fmt.Errorf("model %s expects %d seed values, got %d", m.Name, len(m.Params), len(seed))
	}
	family, err := catalog.Get(m.Family)
	if err != nil {
		return model.FitResult{}, err
	}

	if err := adjustBounds(family, m, seed); err != nil {
		return model.FitResult{}, err
	}

	h := m.Hist
	centers := h.BinCenters()
	vals := h.Vals
	errs := make([]float64, len(h.Errs))
	for i, e := range h.Errs {
		if e > 0 {
			errs[i] = e
		} else {
			errs[i] = 1
		}
	}
	total := h.Sum()

	lo := make([]float64, len(m.Params))
	hi := make([]float64, len(m.Params))
	for i, p := range m.Params {
		lo[i] = p.Min
		hi[i] = p.Max
	}

	residuals := func(dst, x []float64) {
		pars := clampVector(x, lo, hi)
		y := m.EvalNormalized(centers, pars)
		for i := range dst {
			dst[i] = (vals[i] - total*y[i]) / errs[i]
		}
	}

	dim := len(seed)
	size := len(vals)
	numJac := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        dim,
		Size:       size,
		Func:       residuals,
		Jac:        numJac.Jac,
		InitParams: append([]float64(nil), seed...),
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}
	results, err := lm.LM(problem, &lm.Settings{Iterations: 100, ObjectiveTol: 1e-16})
	if err != nil {
		return model.FitResult{}, fmt.Errorf("likelihood fit of %s: %w", m.Name, err)
	}

	x := clampVector(results.X, lo, hi)
	res := model.FitResult{
		X:          x,
		Fun:        chi2At(residuals, x, size),
		Success:    true,
		XInit:      append([]float64(nil), seed...),
		Expression: m.Expression,
		Hash:       fitcache.Hash(m.Expression, h, seed, fitcache.WithTag("refine")),
		Method:     "Levenberg-Marquardt",
		Errs:       covarianceErrs(numJac, x, size, dim),
	}

	for i, p := range m.Params {
		p.Val = x[i]
	}
	slog.Info("refined fit", "model", m.Name, "fun", res.Fun)
	return res, nil
}

// adjustBounds applies the two bound heuristics in order. Both compare
// against the bounds as they were before any adjustment.
func adjustBounds(family *catalog.Family, m *catalog.Model, seed []float64) error {
	const eps = 1e-10
	for i, p := range m.Params {
		v := seed[i]
		lo, hi := p.Min, p.Max

		maxRange, err := family.MaxRange(m.NPars, i+1)
		if err != nil {
			return err
		}
		if v < lo {
			newLo := v - 10*math.Abs(v)
			if maxRange.Lo != nil {
				newLo = math.Max(newLo, *maxRange.Lo)
			}
			slog.Info("increasing range on the left", "param", p.Name, "old", lo, "new", newLo)
			p.Min = newLo
		} else if v > hi {
			newHi := v + 10*math.Abs(v)
			if maxRange.Hi != nil {
				newHi = math.Min(newHi, *maxRange.Hi)
			}
			slog.Info("increasing range on the right", "param", p.Name, "old", hi, "new", newHi)
			p.Max = newHi
		}

		if math.Abs(v)/(math.Min(math.Abs(lo), math.Abs(hi))+eps) < 0.1 {
			newLo := -10 * math.Abs(v)
			newHi := 10 * math.Abs(v)
			minRange, err := family.MinRange(m.NPars, i+1)
			if err != nil {
				return err
			}
			if minRange.Lo != nil {
				newLo = math.Min(newLo, *minRange.Lo)
			}
			if minRange.Hi != nil {
				newHi = math.Max(newHi, *minRange.Hi)
			}
			slog.Info("decreasing range on both sides", "param", p.Name, "new_lo", newLo, "new_hi", newHi)
			p.Min = newLo
			p.Max = newHi
		}

		p.Val = v
	}
	return nil
}

func clampVector(x, lo, hi []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, lo[i]), hi[i])
	}
	return out
}

func chi2At(residuals func(dst, x []float64), x []float64, size int) float64 {
	dst := make([]float64, size)
	residuals(dst, x)
	sum := 0.0
	for _, r := range dst {
		sum += r * r
	}
	return sum
}

// covarianceErrs derives per-parameter uncertainties from the numeric
// Jacobian at the solution, via (JᵀJ)⁻¹. Returns nil when the matrix is
// singular or a diagonal entry is not positive.
func covarianceErrs(numJac lm.NumJac, x []float64, size, dim int) []float64 {
	jac := mat.NewDense(size, dim, nil)
	numJac.Jac(jac, x)

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	var cov mat.Dense
	if err := cov.Inverse(&jtj); err != nil {
		return nil
	}
	out := make([]float64, dim)
	for i := range out {
		d := cov.At(i, i)
		if d <= 0 || math.IsNaN(d) {
			return nil
		}
		out[i] = math.Sqrt(d)
	}
	return out
}
