package hist

import (
	"encoding/json"
	"fmt"
)

// Tree is a decoded input file: a dict-of-dicts in which every object
// tagged with "type": "Histogram" (or carrying a "binning" key) has been
// converted to a *Histogram.
type Tree map[string]any

// DecodeTree unmarshals a JSON document and converts every histogram-like
// object in the tree.
func DecodeTree(data []byte) (Tree, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode input tree: %w", err)
	}
	converted, err := convertNode(raw)
	if err != nil {
		return nil, err
	}
	tree, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("input tree root is not an object")
	}
	return Tree(tree), nil
}

// Histogram returns the histogram stored under the given path of keys.
func (t Tree) Histogram(path ...string) (*Histogram, error) {
	var node any = map[string]any(t)
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path element %q: parent is not an object", key)
		}
		node, ok = m[key]
		if !ok {
			return nil, fmt.Errorf("path element %q not found", key)
		}
	}
	h, ok := node.(*Histogram)
	if !ok {
		return nil, fmt.Errorf("node at %v is not a histogram", path)
	}
	return h, nil
}

// CutAll applies Cut to every histogram in the tree, in place on the tree
// structure (the histograms themselves are replaced by narrowed copies).
func (t Tree) CutAll(xmin, xmax float64) error {
	return cutNode(map[string]any(t), xmin, xmax)
}

func cutNode(m map[string]any, xmin, xmax float64) error {
	for k, v := range m {
		switch node := v.(type) {
		case *Histogram:
			cut, err := node.Cut(xmin, xmax)
			if err != nil {
				return fmt.Errorf("cut histogram %q: %w", k, err)
			}
			m[k] = cut
		case map[string]any:
			if err := cutNode(node, xmin, xmax); err != nil {
				return err
			}
		}
	}
	return nil
}

func convertNode(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	if isHistogramNode(m) {
		return histogramFromMap(m)
	}
	for k, child := range m {
		converted, err := convertNode(child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		m[k] = converted
	}
	return m, nil
}

func isHistogramNode(m map[string]any) bool {
	if typ, ok := m["type"].(string); ok && typ == "Histogram" {
		return true
	}
	_, ok := m["binning"]
	return ok
}

func histogramFromMap(m map[string]any) (*Histogram, error) {
	binning, err := floatSlice(m["binning"])
	if err != nil {
		return nil, fmt.Errorf("binning: %w", err)
	}
	vals, err := floatSlice(m["vals"])
	if err != nil {
		return nil, fmt.Errorf("vals: %w", err)
	}
	errs, err := floatSlice(m["errs"])
	if err != nil {
		return nil, fmt.Errorf("errs: %w", err)
	}
	metadata, _ := m["metadata"].(map[string]any)
	return New(binning, vals, errs, metadata)
}

func floatSlice(v any) ([]float64, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]float64, len(raw))
	for i, item := range raw {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("element %d: expected number, got %T", i, item)
		}
		out[i] = f
	}
	return out, nil
}
