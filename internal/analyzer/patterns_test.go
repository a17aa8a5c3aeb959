package analyzer

import "testing"

func benignByName(t *testing.T, name string) pattern {
	t.Helper()
	for _, p := range benignPatterns {
		if p.name == name {
			return p
		}
	}
	t.Fatalf("no benign pattern named %q", name)
	return pattern{}
}

func familyByName(t *testing.T, name string) pattern {
	t.Helper()
	for _, p := range doneSignalFamilies {
		if p.name == name {
			return p
		}
	}
	t.Fatalf("no done-signal family named %q", name)
	return pattern{}
}

func TestBenignPatternsAreExcluding(t *testing.T) {
	for _, p := range benignPatterns {
		if !p.exclude {
			t.Errorf("benign pattern %q must be excluding", p.name)
		}
	}
	for _, p := range doneSignalFamilies {
		if p.exclude {
			t.Errorf("done-signal family %q must not be excluding", p.name)
		}
	}
}

func TestLogErrorField(t *testing.T) {
	p := benignByName(t, "log-error-field")
	matches := []string{
		`{"error": null}`,
		`"err":"something"`,
		`result: err = nil`,
		`error=<nil>`,
	}
	misses := []string{
		"Error: disk full",
		"error = real problem",
	}
	assertPattern(t, p, matches, misses)
}

func TestErrorHandlingCode(t *testing.T) {
	p := benignByName(t, "error-handling-code")
	matches := []string{
		"if err != nil {",
		`return errors.New("boom")`,
		"added error handling for the fetch path",
		"wired up the onError callback",
		"resp.raise_for_status()",
		"promise.catch(handleFailure)",
	}
	misses := []string{
		"Error: no such file",
		"command failed with exit 1",
	}
	assertPattern(t, p, matches, misses)
}

func TestErrorTestVocabulary(t *testing.T) {
	p := benignByName(t, "error-test-vocabulary")
	matches := []string{
		"testing error responses",
		"all error cases pass",
		"expects an error when input is empty",
		"should throw an error on overflow",
		"0 failed",
		"completed with no errors",
		"finished without errors",
	}
	misses := []string{
		"Error: timeout",
		"3 failed, 2 passed",
	}
	assertPattern(t, p, matches, misses)
}

func TestStackFramePattern(t *testing.T) {
	p := benignByName(t, "stack-frame")
	matches := []string{
		"    at Object.run (/app/lib/errors.js:10:5)",
		`  File "handler.py", line 42, in process_error`,
		"\tmain.go:17: handler returned error",
	}
	misses := []string{
		"Error at startup",
		"at the top level, an error occurred",
	}
	assertPattern(t, p, matches, misses)
}

func TestToolWarningPattern(t *testing.T) {
	p := benignByName(t, "tool-warning")
	matches := []string{
		"npm WARN old package",
		"warning: unused variable 'err'",
		"this API is deprecated, use the error-aware variant",
	}
	misses := []string{
		"Error: fatal",
	}
	assertPattern(t, p, matches, misses)
}

func TestDoneSignalFamilies(t *testing.T) {
	cases := []struct {
		family  string
		matches []string
		misses  []string
	}{
		{
			family:  "all-tasks-complete",
			matches: []string{"All tasks complete", "all items are now done", "All features have been finished"},
			misses:  []string{"all tasks", "tasks complete soon"},
		},
		{
			family:  "project-complete",
			matches: []string{"The project is complete", "implementation finished", "project ready for review"},
			misses:  []string{"project kickoff", "completely separate project\nnothing here"},
		},
		{
			family:  "nothing-left",
			matches: []string{"nothing left to do", "there is nothing more to implement", "nothing remaining to fix"},
			misses:  []string{"nothing happened", "left nothing to chance"},
		},
		{
			family:  "no-remaining-work",
			matches: []string{"no remaining tasks", "No pending items", "no outstanding work"},
			misses:  []string{"no remaining milk", "remaining tasks: 3"},
		},
	}
	for _, c := range cases {
		t.Run(c.family, func(t *testing.T) {
			assertPattern(t, familyByName(t, c.family), c.matches, c.misses)
		})
	}
}

func TestMutationVerbs(t *testing.T) {
	matches := []string{"Created", "modified", "UPDATED", "wrote", "deleted"}
	for _, s := range matches {
		if !mutationVerbs.MatchString(s) {
			t.Errorf("mutationVerbs should match %q", s)
		}
	}
	misses := []string{"creates", "update", "writing", "deletion", "recreatedly"}
	for _, s := range misses {
		if mutationVerbs.MatchString(s) {
			t.Errorf("mutationVerbs should not match %q", s)
		}
	}
}

func TestSourceFileToken(t *testing.T) {
	matches := []string{
		"src/main.go", "lib/app.py", "a/b/c.ts", "README.md",
		"config.yaml", "schema.sql", "style.scss", "notes.txt",
	}
	for _, s := range matches {
		if !sourceFileToken.MatchString(s) {
			t.Errorf("sourceFileToken should match %q", s)
		}
	}
	misses := []string{"binary.exe", "archive.tar.gz", "no extension", "photo.png"}
	for _, s := range misses {
		if sourceFileToken.MatchString(s) {
			t.Errorf("sourceFileToken should not match %q", s)
		}
	}
}

func assertPattern(t *testing.T, p pattern, matches, misses []string) {
	t.Helper()
	for _, s := range matches {
		if !p.matcher.MatchString(s) {
			t.Errorf("pattern %q should match %q", p.name, s)
		}
	}
	for _, s := range misses {
		if p.matcher.MatchString(s) {
			t.Errorf("pattern %q should not match %q", p.name, s)
		}
	}
}
