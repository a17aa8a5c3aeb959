// Package analyzer classifies raw agent output into progress, error,
// test-only and completion signals using fixed pattern passes.
package analyzer

import "strings"

// Result holds the classification of one iteration's output. Derived
// fresh each iteration, never mutated afterwards.
type Result struct {
	// FilesChanged counts lines that mention mutating a source,
	// markup, or config file. A proxy for real work, not a guarantee.
	FilesChanged int `json:"files_changed"`

	// HasError is true iff a genuine error signal survives the
	// two-stage filter.
	HasError bool `json:"has_error"`

	// TestOnly is true iff the output mentions running tests and no
	// implementation activity.
	TestOnly bool `json:"test_only"`

	// DoneSignals counts completion-phrase families present, 0-4.
	DoneSignals int `json:"done_signals"`
}

// Analyze classifies raw output text. Pure and total: the same input
// always yields the same result, and any input (including empty or
// binary garbage) produces a valid result.
func Analyze(raw string) Result {
	lines := strings.Split(raw, "\n")
	return Result{
		FilesChanged: countFileChanges(lines),
		HasError:     len(filterBenign(collectErrorLines(lines))) > 0,
		TestOnly:     detectTestOnly(raw),
		DoneSignals:  countDoneSignals(raw),
	}
}

// countFileChanges counts lines carrying both a mutation verb and a
// recognized file token.
func countFileChanges(lines []string) int {
	n := 0
	for _, line := range lines {
		if mutationVerbs.MatchString(line) && sourceFileToken.MatchString(line) {
			n++
		}
	}
	return n
}

// collectErrorLines is stage 1 of error detection: every line matching
// the broad error vocabulary.
func collectErrorLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		if errorVocabulary.matcher.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

// filterBenign is stage 2: drop lines matching any known-benign
// pattern. Idempotent — running it on its own output removes nothing
// further.
func filterBenign(lines []string) []string {
	var out []string
	for _, line := range lines {
		if !matchesBenign(line) {
			out = append(out, line)
		}
	}
	return out
}

func matchesBenign(line string) bool {
	for _, p := range benignPatterns {
		if p.matcher.MatchString(line) {
			return true
		}
	}
	return false
}

// detectTestOnly reports test activity without implementation
// activity anywhere in the output.
func detectTestOnly(raw string) bool {
	return testActivity.matcher.MatchString(raw) && !implementationActivity.matcher.MatchString(raw)
}

// countDoneSignals counts how many completion families appear at
// least once. Bounded by the number of families.
func countDoneSignals(raw string) int {
	n := 0
	for _, family := range doneSignalFamilies {
		if family.matcher.MatchString(raw) {
			n++
		}
	}
	return n
}
