package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"svjfit/internal/expr"
	"svjfit/internal/hist"
)

// Parameter is one fit parameter of a model instance: current value plus
// its search range. Fits mutate it in place.
type Parameter struct {
	Name string
	Val  float64
	Min  float64
	Max  float64
}

// Model is one concrete parameterization of a family, bound to the
// histogram it will be fit against. The model owns its parameters; no
// shared registry exists.
type Model struct {
	Name       string
	Family     string
	NPars      int
	Expr       expr.Node
	Expression string
	Params     []*Parameter
	Hist       *hist.Histogram
}

// NewModel instantiates one (family, parameter count) model bound to h.
// Parameters start at 1.0 inside their declared ranges. An empty name gets
// a fresh unique prefix.
func NewModel(familyName string, nPars int, h *hist.Histogram, name string) (*Model, error) {
	family, err := Get(familyName)
	if err != nil {
		return nil, err
	}
	node, err := family.Expression(nPars, DefaultMassScale)
	if err != nil {
		return nil, err
	}
	if err := expr.Check(node, nPars); err != nil {
		return nil, fmt.Errorf("family %s npars %d: %w", familyName, nPars, err)
	}
	if name == "" {
		name = uuid.NewString()
	}
	params := make([]*Parameter, nPars)
	for i := 1; i <= nPars; i++ {
		r, err := family.ParamRange(nPars, i)
		if err != nil {
			return nil, err
		}
		params[i-1] = &Parameter{
			Name: fmt.Sprintf("%s_p%d", name, i),
			Val:  1,
			Min:  r.Lo,
			Max:  r.Hi,
		}
	}
	return &Model{
		Name:       name,
		Family:     familyName,
		NPars:      nPars,
		Expr:       node,
		Expression: node.String(),
		Params:     params,
		Hist:       h,
	}, nil
}

// NewModels instantiates the full ordered-by-complexity sequence of models
// for a family, one per valid parameter count.
func NewModels(familyName string, h *hist.Histogram, name string) ([]*Model, error) {
	family, err := Get(familyName)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = uuid.NewString()
	}
	models := make([]*Model, 0, family.NMax()-family.NMin()+1)
	for n := family.NMin(); n <= family.NMax(); n++ {
		m, err := NewModel(familyName, n, h, fmt.Sprintf("%s_npars%d", name, n))
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// ParamValues returns the current parameter vector.
func (m *Model) ParamValues() []float64 {
	vals := make([]float64, len(m.Params))
	for i, p := range m.Params {
		vals[i] = p.Val
	}
	return vals
}

// SetToResult moves every parameter to the fitted value, re-centering its
// range to value ± 10 so downstream consumers see a tight window.
func (m *Model) SetToResult(vals []float64) error {
	if len(vals) != len(m.Params) {
		return fmt.Errorf("model %s expects %d parameter values, got %d", m.Name, len(m.Params), len(vals))
	}
	for i, p := range m.Params {
		p.Min = vals[i] - 10
		p.Max = vals[i] + 10
		p.Val = vals[i]
	}
	return nil
}

// EvalNormalized evaluates the model at the given points with the given
// parameter vector and normalizes the curve to unit sum. A zero-sum curve
// is returned unscaled.
func (m *Model) EvalNormalized(xs, pars []float64) []float64 {
	y := expr.EvalAll(m.Expr, xs, pars)
	total := 0.0
	for _, v := range y {
		total += v
	}
	if total == 0 {
		return y
	}
	for i := range y {
		y[i] /= total
	}
	return y
}
