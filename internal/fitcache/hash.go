package fitcache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"svjfit/internal/hist"
)

// HashOption adds an optional component to a fit hash.
type HashOption func(*hashSpec)

type hashSpec struct {
	tol       float64
	hasTol    bool
	method    string
	hasMethod bool
	tag       string
}

// WithTol includes the minimizer tolerance, at 3-decimal precision.
func WithTol(tol float64) HashOption {
	return func(s *hashSpec) {
		s.tol = tol
		s.hasTol = true
	}
}

// WithMethod includes the minimizer method name.
func WithMethod(method string) HashOption {
	return func(s *hashSpec) {
		s.method = method
		s.hasMethod = true
	}
}

// WithTag includes a free-form tag, separating otherwise identical fits.
func WithTag(tag string) HashOption {
	return func(s *hashSpec) { s.tag = tag }
}

// Hash fingerprints a fit request: the expression text, the histogram's
// binning and bin values (not the errors), the initial values, and the
// selected minimizer options. Floats are serialized at fixed 5-decimal
// precision before hashing so that noise below that precision collapses
// to the same key; the key is stable across runs.
func Hash(expression string, h *hist.Histogram, initVals []float64, opts ...HashOption) string {
	var spec hashSpec
	for _, opt := range opts {
		opt(&spec)
	}
	d := xxhash.New()
	_, _ = d.WriteString(expression)
	writeFloats(d, h.Binning)
	writeFloats(d, h.Vals)
	if initVals != nil {
		writeFloats(d, initVals)
	}
	if spec.hasTol {
		_, _ = d.WriteString(fmt.Sprintf("%.3f", spec.tol))
	}
	if spec.hasMethod {
		_, _ = d.WriteString(spec.method)
	}
	if spec.tag != "" {
		_, _ = d.WriteString(spec.tag)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

func writeFloats(d *xxhash.Digest, floats []float64) {
	for _, v := range floats {
		_, _ = d.WriteString(fmt.Sprintf("%.5f", v))
	}
}
