package judge

import (
	"encoding/json"
	"regexp"
)

// The judge is asked for a bare JSON object, but models sometimes wrap it
// in prose or code fences. Recovery scans for the first brace-delimited
// fragment with no nested braces.
var fragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)

type parseOutcome int

const (
	parsedDirect parseOutcome = iota
	parsedRecovered
	unparseable
)

// rawVerdict is the judge's reply shape. Pointer fields keep "absent"
// distinguishable from zero so missing keys can fall back to defaults.
type rawVerdict struct {
	Safety       *int   `json:"safety"`
	Naturalness  *int   `json:"naturalness"`
	Completeness *int   `json:"completeness"`
	Consistency  *int   `json:"consistency"`
	Pass         *bool  `json:"pass"`
	Reason       string `json:"reason"`
}

// parseVerdict tries the raw response first, then a single embedded object
// fragment. Callers must treat unparseable as "default to pass".
func parseVerdict(raw string) (rawVerdict, parseOutcome) {
	var v rawVerdict
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, parsedDirect
	}
	if frag := fragmentPattern.FindString(raw); frag != "" {
		var rv rawVerdict
		if err := json.Unmarshal([]byte(frag), &rv); err == nil {
			return rv, parsedRecovered
		}
	}
	return rawVerdict{}, unparseable
}
