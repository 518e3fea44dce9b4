package model

// Bloom's taxonomy: six ordered cognitive levels, each with the canonical
// action verbs used both to instruct generation and to audit verb alignment.

const (
	BloomRemember   = "remember"
	BloomUnderstand = "understand"
	BloomApply      = "apply"
	BloomAnalyze    = "analyze"
	BloomEvaluate   = "evaluate"
	BloomCreate     = "create"
)

var BloomLevels = []string{
	BloomRemember,
	BloomUnderstand,
	BloomApply,
	BloomAnalyze,
	BloomEvaluate,
	BloomCreate,
}

var BloomVerbs = map[string][]string{
	BloomRemember:   {"define", "list", "recall", "identify", "name", "state"},
	BloomUnderstand: {"explain", "describe", "summarize", "interpret", "classify"},
	BloomApply:      {"apply", "demonstrate", "calculate", "solve", "use", "implement"},
	BloomAnalyze:    {"analyze", "compare", "contrast", "differentiate", "examine"},
	BloomEvaluate:   {"evaluate", "justify", "critique", "assess", "judge", "defend"},
	BloomCreate:     {"create", "design", "develop", "construct", "propose", "formulate"},
}

func IsValidBloomLevel(level string) bool {
	_, ok := BloomVerbs[level]
	return ok
}
