package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"svjfit/internal/hist"
)

func testHist(t *testing.T) *hist.Histogram {
	t.Helper()
	h, err := hist.New(
		[]float64{200, 300, 400, 500},
		[]float64{30, 20, 10},
		[]float64{5, 4, 3},
		nil,
	)
	require.NoError(t, err)
	return h
}

func TestNewModel(t *testing.T) {
	h := testHist(t)
	m, err := NewModel("main", 3, h, "bkgfit")
	require.NoError(t, err)
	require.Equal(t, "bkgfit", m.Name)
	require.Equal(t, "main", m.Family)
	require.Equal(t, 3, m.NPars)
	require.Len(t, m.Params, 3)
	for i, p := range m.Params {
		require.Equal(t, fmt.Sprintf("bkgfit_p%d", i+1), p.Name)
		require.Equal(t, 1.0, p.Val)
	}
	// Declared range overrides flow into the parameters.
	require.Equal(t, -45.0, m.Params[0].Min)
	require.Equal(t, 45.0, m.Params[0].Max)
	require.NotEmpty(t, m.Expression)
	require.Same(t, h, m.Hist)
}

func TestNewModelGeneratedName(t *testing.T) {
	m, err := NewModel("ua2", 2, testHist(t), "")
	require.NoError(t, err)
	require.NotEmpty(t, m.Name)

	other, err := NewModel("ua2", 2, testHist(t), "")
	require.NoError(t, err)
	require.NotEqual(t, m.Name, other.Name)
}

func TestNewModelInvalidCount(t *testing.T) {
	_, err := NewModel("alt", 5, testHist(t), "x")
	var cntErr InvalidParameterCountError
	require.ErrorAs(t, err, &cntErr)
}

func TestNewModels(t *testing.T) {
	models, err := NewModels("main", testHist(t), "bsvj")
	require.NoError(t, err)
	require.Len(t, models, 4)
	for i, m := range models {
		require.Equal(t, i+2, m.NPars)
		require.Equal(t, fmt.Sprintf("bsvj_npars%d", i+2), m.Name)
	}
}

func TestParamValuesAndSetToResult(t *testing.T) {
	m, err := NewModel("ua2", 3, testHist(t), "x")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1, 1}, m.ParamValues())

	require.Error(t, m.SetToResult([]float64{1, 2}))

	require.NoError(t, m.SetToResult([]float64{2.5, -4, 0.5}))
	require.Equal(t, []float64{2.5, -4, 0.5}, m.ParamValues())
	require.Equal(t, -7.5, m.Params[0].Min)
	require.Equal(t, 12.5, m.Params[0].Max)
}

func TestEvalNormalized(t *testing.T) {
	m, err := NewModel("main", 2, testHist(t), "x")
	require.NoError(t, err)
	y := m.EvalNormalized(m.Hist.BinCenters(), []float64{3, 2})
	require.Len(t, y, 3)
	total := 0.0
	for _, v := range y {
		require.Greater(t, v, 0.0)
		total += v
	}
	require.InDelta(t, 1.0, total, 1e-12)
}
