// Package fit drives the numeric minimization pipeline: a cached single
// minimization, the robust two-phase strategy with its brute-force
// fallback, and the precision refiner that turns the robust estimate into
// a maximum-likelihood result.
package fit

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"

	"svjfit/internal/expr"
	"svjfit/internal/fitcache"
	"svjfit/internal/hist"
	"svjfit/internal/model"
	"svjfit/internal/objective"
)

// Method selects the minimization algorithm.
type Method string

const (
	// MethodBFGS is the gradient-based method used with loose tolerance.
	MethodBFGS Method = "BFGS"
	// MethodNelderMead is the derivative-free method used with tight
	// tolerance and a bounded evaluation count.
	MethodNelderMead Method = "Nelder-Mead"
)

// Options are the per-call minimizer settings.
type Options struct {
	Method       Method
	Tol          float64
	MaxFuncEvals int
}

// Single minimizes the chi-square objective of an expression against a
// histogram from the given initial values. The fit cache is consulted
// first by content hash and populated afterwards. Numeric failure is not
// an error: the returned result carries Success=false and whatever the
// minimizer reached. Only invalid input (an unbound parameter, a bad
// dimension) errors.
func Single(ctx context.Context, node expr.Node, nPars int, h *hist.Histogram, initVals []float64, opts Options, cache *fitcache.Cache) (model.FitResult, error) {
	expression := node.String()
	hash := fitcache.Hash(expression, h, initVals,
		fitcache.WithTol(opts.Tol), fitcache.WithMethod(string(opts.Method)))

	if cached, ok, err := cache.Get(ctx, hash); err != nil {
		return model.FitResult{}, err
	} else if ok {
		slog.Debug("returning cached fit", "hash", hash, "method", opts.Method)
		return cached, nil
	}

	chi2, err := objective.Chi2(node, h, nPars)
	if err != nil {
		return model.FitResult{}, err
	}

	if initVals == nil {
		initVals = ones(nPars)
	}
	res := model.FitResult{
		XInit:      append([]float64(nil), initVals...),
		Expression: expression,
		Hash:       hash,
		Method:     string(opts.Method),
		Fun:        math.NaN(),
	}

	problem := optimize.Problem{Func: chi2}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{Absolute: opts.Tol, Iterations: 50},
	}
	if opts.MaxFuncEvals > 0 {
		settings.FuncEvaluations = opts.MaxFuncEvals
	}

	var method optimize.Method
	switch opts.Method {
	case MethodNelderMead:
		method = &optimize.NelderMead{}
	default:
		method = &optimize.BFGS{}
	}

	result, optErr := optimize.Minimize(problem, append([]float64(nil), initVals...), settings, method)
	if result != nil {
		res.X = result.X
		res.Fun = result.F
		res.FuncEvals = result.FuncEvaluations
		res.Success = optErr == nil && result.Status != optimize.Failure && isFinite(result.F)
	}
	if optErr != nil {
		// A failed minimization is a candidate to discard, not a hard
		// error; the caller inspects Success and Fun.
		slog.Debug("minimization did not converge", "method", opts.Method, "err", optErr)
	}

	if err := cache.Write(ctx, hash, res); err != nil {
		return model.FitResult{}, err
	}
	return res, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
