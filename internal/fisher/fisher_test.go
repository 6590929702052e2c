package fisher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"svjfit/internal/catalog"
	"svjfit/internal/model"
)

func TestFStatistic(t *testing.T) {
	// ((10 - 9.9) / (3 - 2)) / (9.9 / (50 - 3)) = 0.1 / 0.21063...
	f := FStatistic(10, 9.9, 2, 3, 50)
	require.InDelta(t, 0.4747, f, 1e-3)
}

func TestConfidence(t *testing.T) {
	f := FStatistic(10, 9.9, 2, 3, 50)
	// Survival of F(1, 47) at ~0.47; a modest improvement carries no
	// significance.
	c := Confidence(f, 2, 3, 50)
	require.InDelta(t, 0.49, c, 0.02)

	// A dramatic improvement has survival near zero.
	fBig := FStatistic(100, 9.9, 2, 3, 50)
	require.Less(t, Confidence(fBig, 2, 3, 50), 1e-6)
}

func testReport(confidence01 float64) *Report {
	return &Report{
		GoFType:      GoFRSS,
		NPars:        []int{2, 3},
		GoFs:         []model.GoF{{Value: 10, NBins: 50}, {Value: 9.9, NBins: 50}},
		Confidence:   [][]float64{{0, confidence01}, {0, 0}},
		Significance: DefaultSignificance,
	}
}

func TestPairDecision(t *testing.T) {
	// Confidence above the threshold keeps the simpler model.
	r := testReport(0.49)
	winner, err := r.Pair(0, 1)
	require.NoError(t, err)
	require.Equal(t, 0, winner)

	// Below the threshold the richer model wins.
	r = testReport(0.01)
	winner, err = r.Pair(0, 1)
	require.NoError(t, err)
	require.Equal(t, 1, winner)
}

func TestRun(t *testing.T) {
	// Data follows a two-parameter shape with a small deterministic
	// wiggle, so the three-parameter variant cannot improve enough to
	// justify its extra parameter and the simpler model wins.
	truth := []float64{3, 2}
	ref := fittedModel(t, "main", 2, dataHist(t, make([]float64, 16)))
	binning := make([]float64, 17)
	for i := range binning {
		binning[i] = 200 + 50*float64(i)
	}
	centers := make([]float64, 16)
	for i := range centers {
		centers[i] = 0.5 * (binning[i] + binning[i+1])
	}
	y := ref.EvalNormalized(centers, truth)
	vals := make([]float64, len(y))
	for i, v := range y {
		wiggle := 1 + 0.02*float64(1-2*(i%2))
		vals[i] = 10000 * v * wiggle
	}
	data := dataHist(t, vals)

	m2 := fittedModel(t, "main", 2, data)
	m3 := fittedModel(t, "main", 3, data)
	results := []model.FitResult{
		{X: truth, Success: true},
		// The nested richer model at the same shape (third parameter
		// zero) reproduces the simpler fit exactly.
		{X: []float64{truth[0], truth[1], 0}, Success: true},
	}

	report, err := Run([]*catalog.Model{m2, m3}, results, data, GoFRSS, 0)
	require.NoError(t, err)
	require.Equal(t, GoFRSS, report.GoFType)
	require.Equal(t, []int{2, 3}, report.NPars)
	require.Equal(t, DefaultSignificance, report.Significance)
	require.Equal(t, 0, report.Winner)
	require.Greater(t, report.Confidence[0][1], DefaultSignificance)
	require.Greater(t, report.GoFs[0].Value, 0.0)
}

func TestRunValidation(t *testing.T) {
	data := dataHist(t, []float64{30, 20, 10})
	m := fittedModel(t, "main", 2, data)

	_, err := Run([]*catalog.Model{m}, nil, data, GoFRSS, 0)
	require.Error(t, err)

	_, err = Run([]*catalog.Model{m}, []model.FitResult{{X: []float64{3, 2}}}, data, GoFRSS, 0)
	require.Error(t, err)

	// A fit result with the wrong parameter count errors instead of
	// skewing the selection with a non-finite curve.
	m3 := fittedModel(t, "main", 3, data)
	_, err = Run(
		[]*catalog.Model{m, m3},
		[]model.FitResult{{X: []float64{3, 2}}, {X: []float64{3, 2}}},
		data, GoFRSS, 0,
	)
	require.Error(t, err)
}

func TestPairOrderingViolation(t *testing.T) {
	r := testReport(0.5)
	var ordErr OrderingViolationError
	_, err := r.Pair(1, 0)
	require.ErrorAs(t, err, &ordErr)
	require.Equal(t, 1, ordErr.I)
	require.Equal(t, 0, ordErr.J)

	_, err = r.Pair(1, 1)
	require.ErrorAs(t, err, &ordErr)
}
