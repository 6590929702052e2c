package fit

import (
	"context"
	"fmt"
	"log/slog"

	"svjfit/internal/expr"
	"svjfit/internal/fitcache"
	"svjfit/internal/hist"
	"svjfit/internal/model"
)

const (
	looseTol         = 1e-3
	tightTol         = 1e-6
	nelderMeadMaxFev = 10000
)

// NoConvergenceError reports that every brute-force starting point
// produced a non-finite objective value.
type NoConvergenceError struct {
	Expression string
	Attempts   int
}

func (e NoConvergenceError) Error() string {
	return fmt.Sprintf("not a single fit of the brute force converged (%d attempts, expression %s)", e.Attempts, e.Expression)
}

// Robust fits an expression to a histogram with the two-phase strategy:
// a loose-tolerance BFGS pass from all-ones initial values, then a
// tight-tolerance Nelder-Mead pass seeded by the first. If the second
// phase does not converge (or brute is set), every {-1,+1} sign
// combination of initial values is tried with both methods and the
// minimum finite objective wins. The robust-level result is cached under
// a "robust"-tagged hash; the individual minimizations cache themselves.
func Robust(ctx context.Context, node expr.Node, nPars int, h *hist.Histogram, cache *fitcache.Cache, brute bool) (model.FitResult, error) {
	expression := node.String()
	robustHash := fitcache.Hash(expression, h, nil, fitcache.WithTag("robust"))

	if cached, ok, err := cache.Get(ctx, robustHash); err != nil {
		return model.FitResult{}, err
	} else if ok {
		slog.Info("returning cached robust fit", "hash", robustHash, "expression", expression)
		return cached, nil
	}

	slog.Info("robust fit", "expression", expression, "n_pars", nPars)

	resA, err := Single(ctx, node, nPars, h, nil, Options{Method: MethodBFGS, Tol: looseTol}, cache)
	if err != nil {
		return model.FitResult{}, err
	}
	seed := resA.X
	if len(seed) != nPars {
		seed = ones(nPars)
	}
	resB, err := Single(ctx, node, nPars, h, seed, Options{
		Method:       MethodNelderMead,
		Tol:          tightTol,
		MaxFuncEvals: nelderMeadMaxFev,
	}, cache)
	if err != nil {
		return model.FitResult{}, err
	}

	if resB.Success && !brute {
		if err := cache.Write(ctx, robustHash, resB); err != nil {
			return model.FitResult{}, err
		}
		slog.Info("converged with simple fitting strategy", "fun", resB.Fun)
		return resB, nil
	}

	combos := SignCombinations(nPars)
	slog.Info("fit did not converge with single try; brute forcing",
		"variations", len(combos), "methods", []Method{MethodBFGS, MethodNelderMead})

	var results []model.FitResult
	for _, method := range []Method{MethodBFGS, MethodNelderMead} {
		opts := Options{Method: method, Tol: looseTol}
		if method == MethodNelderMead {
			opts.MaxFuncEvals = nelderMeadMaxFev
		}
		for _, combo := range combos {
			res, err := Single(ctx, node, nPars, h, combo, opts, cache)
			if err != nil {
				return model.FitResult{}, err
			}
			if isFinite(res.Fun) {
				results = append(results, res)
			}
		}
	}
	if len(results) == 0 {
		return model.FitResult{}, NoConvergenceError{
			Expression: expression,
			Attempts:   2 * len(combos),
		}
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.Fun < best.Fun {
			best = res
		}
	}
	slog.Info("best fit from brute force", "fun", best.Fun, "method", best.Method)
	if err := cache.Write(ctx, robustHash, best); err != nil {
		return model.FitResult{}, err
	}
	return best, nil
}

// SignCombinations enumerates every {-1,+1} initial-value vector of
// dimension n, first component varying slowest.
func SignCombinations(n int) [][]float64 {
	total := 1 << n
	combos := make([][]float64, total)
	for mask := 0; mask < total; mask++ {
		combo := make([]float64, n)
		for i := 0; i < n; i++ {
			if mask>>(n-1-i)&1 == 0 {
				combo[i] = -1
			} else {
				combo[i] = 1
			}
		}
		combos[mask] = combo
	}
	return combos
}
