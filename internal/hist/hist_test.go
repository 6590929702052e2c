package hist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHist(t *testing.T, binning, vals, errs []float64) *Histogram {
	t.Helper()
	h, err := New(binning, vals, errs, nil)
	require.NoError(t, err)
	return h
}

func TestNewValidation(t *testing.T) {
	_, err := New([]float64{0}, nil, nil, nil)
	require.Error(t, err)

	_, err = New([]float64{0, 1, 2}, []float64{1}, []float64{1}, nil)
	require.Error(t, err)

	_, err = New([]float64{0, 2, 1}, []float64{1, 1}, []float64{1, 1}, nil)
	require.Error(t, err)

	h, err := New([]float64{0, 1, 2}, []float64{3, 4}, []float64{1, 2}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, h.NBins())
	require.InDelta(t, 7.0, h.Sum(), 1e-12)
	require.Equal(t, []float64{0.5, 1.5}, h.BinCenters())
}

func TestCut(t *testing.T) {
	h := mustHist(t,
		[]float64{100, 200, 300, 400, 500},
		[]float64{1, 2, 3, 4},
		[]float64{1, 1, 1, 1},
	)

	cut, err := h.Cut(200, 400)
	require.NoError(t, err)
	require.Equal(t, []float64{200, 300, 400}, cut.Binning)
	require.Equal(t, []float64{2, 3}, cut.Vals)

	// Bounds beyond the histogram leave it unchanged.
	same, err := h.Cut(0, 1000)
	require.NoError(t, err)
	require.Equal(t, h.Binning, same.Binning)
	require.Equal(t, h.Vals, same.Vals)

	// A cut boundary inside a bin throws the partial bin out.
	cut, err = h.Cut(250, 1000)
	require.NoError(t, err)
	require.Equal(t, []float64{300, 400, 500}, cut.Binning)
	require.Equal(t, []float64{3, 4}, cut.Vals)

	_, err = h.Cut(400, 200)
	require.Error(t, err)

	// The receiver is never mutated.
	require.Equal(t, []float64{100, 200, 300, 400, 500}, h.Binning)
}

func TestCutEmptyWindow(t *testing.T) {
	h := mustHist(t,
		[]float64{0, 1, 2, 3},
		[]float64{1, 2, 3},
		[]float64{1, 1, 1},
	)

	// Both bounds inside the same bin select no complete bin.
	_, err := h.Cut(1.5, 1.6)
	require.Error(t, err)

	// A window entirely below the first edge does too.
	narrow := mustHist(t, []float64{10, 20, 30}, []float64{1, 2}, []float64{1, 1})
	_, err = narrow.Cut(1, 2)
	require.Error(t, err)

	// A window spanning exactly one bin survives.
	cut, err := h.Cut(1, 2)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, cut.Binning)
	require.Equal(t, []float64{2}, cut.Vals)
}

func TestCopyIsDeep(t *testing.T) {
	h := mustHist(t, []float64{0, 1, 2}, []float64{3, 4}, []float64{1, 2})
	c := h.Copy()
	c.Vals[0] = 99
	require.Equal(t, 3.0, h.Vals[0])
}

func TestPoissonErrorUp(t *testing.T) {
	// One-sigma upper Poisson interval for zero observed counts.
	require.InDelta(t, 1.841, PoissonErrorUp(0), 1e-3)
	// Large counts approach sqrt(n).
	require.InDelta(t, 11.0, PoissonErrorUp(100), 0.3)
}

func TestWithPoissonErrors(t *testing.T) {
	h := mustHist(t, []float64{0, 1, 2}, []float64{0, 100}, []float64{5, 5})
	w := h.WithPoissonErrors()
	require.InDelta(t, 1.841, w.Errs[0], 1e-3)
	require.Greater(t, w.Errs[1], 10.0)
	// Original untouched.
	require.Equal(t, []float64{5, 5}, h.Errs)
}
