package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON strips a single fenced code block (` ```json ... ``` ` or
// ` ``` ... ``` `) from raw LLM output if present, and returns the inner
// text. If no fenced block is found, the trimmed input is returned as-is so
// callers can still attempt to parse bare JSON.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// UnmarshalJSON extracts a fenced JSON block (if present) from raw and
// decodes it into v. Every LLM call site (validator, planner, analyser,
// aggregator) must tolerate both malformed and under-specified JSON per the
// source design notes; callers treat a non-nil error as "fail per this
// component's documented default", never as a reason to abort the run.
func UnmarshalJSON(raw string, v any) error {
	return json.Unmarshal([]byte(ExtractJSON(raw)), v)
}
