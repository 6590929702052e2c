package main

import (
	"encoding/json"
	"fmt"
	"os"

	svjapi "svjfit/pkg/svjfit"
)

// loadBuildRequestFromConfig reads a build request from a JSON file,
// coercing values tolerantly so hand-written configs stay forgiving.
func loadBuildRequestFromConfig(path string) (svjapi.BuildRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return svjapi.BuildRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return svjapi.BuildRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}

	var req svjapi.BuildRequest
	if v, ok := asStringSlice(raw["families"]); ok {
		req.Families = v
	}
	if v, ok := asString(raw["gof_type"]); ok {
		req.GoFType = v
	}
	if v, ok := asFloat64(raw["significance"]); ok {
		req.Significance = v
	}
	if v, ok := asBool(raw["brute"]); ok {
		req.Brute = v
	}
	if v, ok := asIntMap(raw["winners"]); ok {
		req.Winners = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asIntMap(v any) (map[string]int, bool) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(raw))
	for k, item := range raw {
		n, ok := asInt(item)
		if !ok {
			return nil, false
		}
		out[k] = n
	}
	return out, true
}
