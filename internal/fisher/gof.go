// Package fisher selects the minimal-complexity background model from an
// ordered family of nested fits, via pairwise F-tests on per-model
// goodness-of-fit statistics.
package fisher

import (
	"fmt"
	"math"

	"svjfit/internal/catalog"
	"svjfit/internal/hist"
	"svjfit/internal/model"
)

// GoFType selects the goodness-of-fit statistic.
type GoFType string

const (
	GoFChi2 GoFType = "chi2"
	GoFRSS  GoFType = "rss"
)

// Chi2 computes the chi-square of a fitted model curve against the
// observed dataset, with the model rescaled to the data total. Bins with
// zero observed content do not contribute, and NBins counts only the
// contributing bins.
func Chi2(m *catalog.Model, pars []float64, data *hist.Histogram) model.GoF {
	y := scaledCurve(m, pars, data)
	chi2 := 0.0
	nBins := 0
	for i, d := range data.Vals {
		if d == 0 {
			continue
		}
		r := d - y[i]
		chi2 += r * r / y[i]
		nBins++
	}
	return model.GoF{Value: chi2, NBins: nBins}
}

// RSS computes the residual sum of squares (Euclidean norm of the
// residuals) of a fitted model curve against the observed dataset, over
// bins with nonzero observed content.
func RSS(m *catalog.Model, pars []float64, data *hist.Histogram) model.GoF {
	y := scaledCurve(m, pars, data)
	rss := 0.0
	nBins := 0
	for i, d := range data.Vals {
		if d == 0 {
			continue
		}
		r := d - y[i]
		rss += r * r
		nBins++
	}
	return model.GoF{Value: math.Sqrt(rss), NBins: nBins}
}

// For dispatches on the configured statistic.
func For(typ GoFType, m *catalog.Model, pars []float64, data *hist.Histogram) (model.GoF, error) {
	switch typ {
	case GoFChi2:
		return Chi2(m, pars, data), nil
	case GoFRSS, "":
		return RSS(m, pars, data), nil
	default:
		return model.GoF{}, fmt.Errorf("unknown goodness-of-fit type %q", typ)
	}
}

func scaledCurve(m *catalog.Model, pars []float64, data *hist.Histogram) []float64 {
	y := m.EvalNormalized(data.BinCenters(), pars)
	total := data.Sum()
	for i := range y {
		y[i] *= total
	}
	return y
}
