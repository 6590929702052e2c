package fisher

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat/distuv"

	"svjfit/internal/catalog"
	"svjfit/internal/hist"
	"svjfit/internal/model"
)

// DefaultSignificance is the F-test significance threshold.
const DefaultSignificance = 0.07

// OrderingViolationError reports a pairwise comparison invoked with the
// higher-complexity model first; a programming-contract violation.
type OrderingViolationError struct {
	I int
	J int
}

func (e OrderingViolationError) Error() string {
	return fmt.Sprintf("pairwise comparison requires i < j, got i=%d j=%d", e.I, e.J)
}

// Report is the full outcome of one model-selection run: per-model
// goodness-of-fit records, the pairwise confidence matrix, and the
// winning index. Confidence[i][j] is filled for i < j only.
type Report struct {
	GoFType      GoFType     `json:"gof_type"`
	NPars        []int       `json:"n_pars"`
	GoFs         []model.GoF `json:"gofs"`
	Confidence   [][]float64 `json:"confidence"`
	Significance float64     `json:"significance"`
	Winner       int         `json:"winner"`
}

// FStatistic is the nested-model F value for a pair of fits: the per-
// parameter improvement of the richer model over its own residual scale.
func FStatistic(gofI, gofJ float64, kI, kJ, nBins int) float64 {
	return ((gofI - gofJ) / float64(kJ-kI)) / (gofJ / float64(nBins-kJ))
}

// Confidence converts an F value to a confidence via the complementary
// CDF of the F-distribution with (kJ-kI, nBins-kJ) degrees of freedom.
func Confidence(f float64, kI, kJ, nBins int) float64 {
	dist := distuv.F{D1: float64(kJ - kI), D2: float64(nBins - kJ)}
	return dist.Survival(f)
}

// Pair applies the pairwise decision rule: when the confidence exceeds
// the significance threshold the null hypothesis (the added complexity of
// j is not justified) is not rejected and i wins; otherwise j wins.
func (r *Report) Pair(i, j int) (int, error) {
	if i >= j {
		return 0, OrderingViolationError{I: i, J: j}
	}
	if r.Confidence[i][j] > r.Significance {
		slog.Info("null hypothesis not rejected",
			"n_pars_i", r.NPars[i], "n_pars_j", r.NPars[j], "a_test", r.Confidence[i][j], "a_crit", r.Significance)
		return i, nil
	}
	slog.Info("null hypothesis rejected",
		"n_pars_i", r.NPars[i], "n_pars_j", r.NPars[j], "a_test", r.Confidence[i][j], "a_crit", r.Significance)
	return j, nil
}

// Run performs the Fisher test over an ordered-by-complexity list of
// already-fitted models. It computes every pairwise confidence up front,
// then reduces greedily: winner(0,1), then the running winner against each
// next model. The greedy reduction is deliberately not a full pairwise
// tournament; downstream consumers depend on its historical selections.
func Run(models []*catalog.Model, results []model.FitResult, data *hist.Histogram, typ GoFType, significance float64) (Report, error) {
	if len(models) != len(results) {
		return Report{}, fmt.Errorf("got %d models but %d fit results", len(models), len(results))
	}
	if len(models) < 2 {
		return Report{}, fmt.Errorf("fisher test needs at least 2 models, got %d", len(models))
	}
	if significance <= 0 {
		significance = DefaultSignificance
	}
	if typ == "" {
		typ = GoFRSS
	}

	report := Report{
		GoFType:      typ,
		NPars:        make([]int, len(models)),
		GoFs:         make([]model.GoF, len(models)),
		Confidence:   make([][]float64, len(models)),
		Significance: significance,
	}
	for i, m := range models {
		if len(results[i].X) != m.NPars {
			return Report{}, fmt.Errorf("model %s expects %d fitted values, got %d", m.Name, m.NPars, len(results[i].X))
		}
		gof, err := For(typ, m, results[i].X, data)
		if err != nil {
			return Report{}, err
		}
		report.NPars[i] = m.NPars
		report.GoFs[i] = gof
		report.Confidence[i] = make([]float64, len(models))
	}

	for i := 0; i < len(models)-1; i++ {
		for j := i + 1; j < len(models); j++ {
			kI, kJ := report.NPars[i], report.NPars[j]
			nBins := report.GoFs[j].NBins
			f := FStatistic(report.GoFs[i].Value, report.GoFs[j].Value, kI, kJ, nBins)
			report.Confidence[i][j] = Confidence(f, kI, kJ, nBins)
		}
	}

	winner, err := report.Pair(0, 1)
	if err != nil {
		return Report{}, err
	}
	for i := 2; i < len(models); i++ {
		winner, err = report.Pair(winner, i)
		if err != nil {
			return Report{}, err
		}
	}
	report.Winner = winner
	slog.Info("fisher test winner", "index", winner, "n_pars", report.NPars[winner])
	return report, nil
}
