package service

import (
	"encoding/json"
	"strings"
)

// JSONShape selects whether the extractor looks for an embedded array or object.
type JSONShape int

const (
	ShapeArray JSONShape = iota
	ShapeObject
)

// ExtractJSON scans freeform model output for an embedded JSON payload and
// strict-parses it. Models routinely wrap structured output in prose or code
// fences, so the scan is greedy: first opening bracket to last closing
// bracket. That can over-capture when several structures appear in one
// response; callers get a parse failure in that case, not a partial result.
// Returns ok=false on absence or parse failure, never an error or panic.
func ExtractJSON(raw string, shape JSONShape) (json.RawMessage, bool) {
	opener, closer := "[", "]"
	if shape == ShapeObject {
		opener, closer = "{", "}"
	}

	start := strings.Index(raw, opener)
	if start < 0 {
		return nil, false
	}
	end := strings.LastIndex(raw, closer)
	if end < start {
		return nil, false
	}

	candidate := raw[start : end+1]
	var probe interface{}
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, false
	}

	switch probe.(type) {
	case []interface{}:
		if shape != ShapeArray {
			return nil, false
		}
	case map[string]interface{}:
		if shape != ShapeObject {
			return nil, false
		}
	default:
		return nil, false
	}

	return json.RawMessage(candidate), true
}

// asString pulls a trimmed string field out of loosely typed model output.
func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asMarks coerces the marks field, defaulting when absent or non-numeric.
func asMarks(v interface{}, fallback int) int {
	f, ok := v.(float64)
	if !ok || f <= 0 {
		return fallback
	}
	return int(f)
}
