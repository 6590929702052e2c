package hist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Histogram is a binned dataset: n+1 ordered bin edges, n bin contents and
// n bin errors, plus opaque metadata carried along from the input file.
// Histograms are never mutated after construction; Cut returns a copy.
type Histogram struct {
	Binning  []float64      `json:"binning"`
	Vals     []float64      `json:"vals"`
	Errs     []float64      `json:"errs"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// New validates the edge/content invariants and returns a histogram.
func New(binning, vals, errs []float64, metadata map[string]any) (*Histogram, error) {
	if len(binning) < 2 {
		return nil, fmt.Errorf("histogram needs at least 2 bin edges, got %d", len(binning))
	}
	if len(vals) != len(binning)-1 || len(errs) != len(binning)-1 {
		return nil, fmt.Errorf(
			"histogram with %d edges needs %d vals and errs, got %d vals and %d errs",
			len(binning), len(binning)-1, len(vals), len(errs),
		)
	}
	for i := 1; i < len(binning); i++ {
		if binning[i] <= binning[i-1] {
			return nil, fmt.Errorf("bin edges must be strictly increasing, edge %d (%v) <= edge %d (%v)",
				i, binning[i], i-1, binning[i-1])
		}
	}
	return &Histogram{Binning: binning, Vals: vals, Errs: errs, Metadata: metadata}, nil
}

func (h *Histogram) NBins() int {
	return len(h.Binning) - 1
}

// Sum returns the total bin content.
func (h *Histogram) Sum() float64 {
	total := 0.0
	for _, v := range h.Vals {
		total += v
	}
	return total
}

// BinCenters returns the midpoint of every bin.
func (h *Histogram) BinCenters() []float64 {
	centers := make([]float64, h.NBins())
	for i := range centers {
		centers[i] = 0.5 * (h.Binning[i] + h.Binning[i+1])
	}
	return centers
}

// Copy returns a deep copy.
func (h *Histogram) Copy() *Histogram {
	c := &Histogram{
		Binning: append([]float64(nil), h.Binning...),
		Vals:    append([]float64(nil), h.Vals...),
		Errs:    append([]float64(nil), h.Errs...),
	}
	if h.Metadata != nil {
		c.Metadata = make(map[string]any, len(h.Metadata))
		for k, v := range h.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Cut throws away all bins with left boundary < xmin or right boundary
// > xmax and returns the narrowed copy. The receiver is left untouched.
// A window that leaves no complete bin is an error.
func (h *Histogram) Cut(xmin, xmax float64) (*Histogram, error) {
	if xmin > xmax {
		return nil, fmt.Errorf("xmin (%v) greater than xmax (%v)", xmin, xmax)
	}
	imin := 0
	if xmin > h.Binning[0] {
		for i, edge := range h.Binning {
			if edge >= xmin {
				imin = i
				break
			}
		}
	}
	imax := h.NBins() + 1
	if xmax < h.Binning[len(h.Binning)-1] {
		for i, edge := range h.Binning {
			if edge > xmax {
				imax = i
				break
			}
		}
	}
	if imax < imin+2 {
		return nil, fmt.Errorf("range (%v, %v) contains no complete bin", xmin, xmax)
	}
	c := h.Copy()
	c.Binning = c.Binning[imin:imax]
	c.Vals = c.Vals[imin : imax-1]
	c.Errs = c.Errs[imin : imax-1]
	return c, nil
}

// PoissonErrorUp returns the one-sigma upper Poisson uncertainty on a count
// of n, via the complementary gamma quantile.
func PoissonErrorUp(n float64) float64 {
	const alpha = 1 - 0.6827
	g := distuv.Gamma{Alpha: n + 1, Beta: 1}
	upper := g.Quantile(1 - alpha/2)
	return upper - n
}

// WithPoissonErrors returns a copy whose bin errors are replaced by the
// one-sigma upper Poisson uncertainty on each bin content. Used for
// asimov-style weighted histograms whose stored errors equal the weights.
func (h *Histogram) WithPoissonErrors() *Histogram {
	c := h.Copy()
	for i, v := range c.Vals {
		c.Errs[i] = PoissonErrorUp(math.Max(v, 0))
	}
	return c
}
