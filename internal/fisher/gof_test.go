package fisher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"svjfit/internal/catalog"
	"svjfit/internal/hist"
)

func dataHist(t *testing.T, vals []float64) *hist.Histogram {
	t.Helper()
	binning := make([]float64, len(vals)+1)
	errs := make([]float64, len(vals))
	for i := range binning {
		binning[i] = 200 + 50*float64(i)
	}
	for i := range errs {
		errs[i] = 1
	}
	h, err := hist.New(binning, vals, errs, nil)
	require.NoError(t, err)
	return h
}

func fittedModel(t *testing.T, familyName string, nPars int, data *hist.Histogram) *catalog.Model {
	t.Helper()
	m, err := catalog.NewModel(familyName, nPars, data, "gof")
	require.NoError(t, err)
	return m
}

func TestGoFSkipsZeroBins(t *testing.T) {
	data := dataHist(t, []float64{30, 0, 10})
	m := fittedModel(t, "main", 2, data)
	pars := []float64{3, 2}

	chi2 := Chi2(m, pars, data)
	require.Equal(t, 2, chi2.NBins)
	require.True(t, chi2.Value >= 0 && !math.IsNaN(chi2.Value))

	rss := RSS(m, pars, data)
	require.Equal(t, 2, rss.NBins)
	require.True(t, rss.Value >= 0)
}

func TestGoFPerfectShape(t *testing.T) {
	// Data generated exactly from the model shape scores (near) zero.
	m := fittedModel(t, "main", 2, dataHist(t, []float64{1, 1, 1}))
	pars := []float64{3, 2}
	centers := []float64{225, 275, 325}
	y := m.EvalNormalized(centers, pars)
	vals := make([]float64, len(y))
	for i, v := range y {
		vals[i] = 1000 * v
	}
	data := dataHist(t, vals)

	require.InDelta(t, 0.0, Chi2(m, pars, data).Value, 1e-9)
	require.InDelta(t, 0.0, RSS(m, pars, data).Value, 1e-9)
}

func TestForDispatch(t *testing.T) {
	data := dataHist(t, []float64{30, 20, 10})
	m := fittedModel(t, "main", 2, data)
	pars := []float64{3, 2}

	chi2, err := For(GoFChi2, m, pars, data)
	require.NoError(t, err)
	require.Equal(t, Chi2(m, pars, data), chi2)

	rss, err := For(GoFRSS, m, pars, data)
	require.NoError(t, err)
	require.Equal(t, RSS(m, pars, data), rss)

	// Empty type defaults to RSS.
	def, err := For("", m, pars, data)
	require.NoError(t, err)
	require.Equal(t, rss, def)

	_, err = For("bogus", m, pars, data)
	require.Error(t, err)
}
