package analyzer

import "regexp"

// pattern is one named predicate in a classification stage. Excluding
// patterns (exclude=true) remove lines that a collecting pattern
// picked up; the two polarities never appear in the same list.
type pattern struct {
	name    string
	matcher *regexp.Regexp
	exclude bool
}

// Pass 1: a line counts as a file change when it carries both a
// mutation verb and a token with a known file extension.
var (
	mutationVerbs = regexp.MustCompile(`(?i)\b(created|modified|updated|wrote|deleted)\b`)

	sourceFileToken = regexp.MustCompile(`\.(go|py|js|jsx|ts|tsx|java|rb|rs|c|h|cc|cpp|hpp|cs|php|swift|kt|scala|sh|bash|md|rst|txt|html|css|scss|json|yaml|yml|toml|ini|cfg|conf|xml|sql)\b`)
)

// Pass 2, stage 1: broad vocabulary, deliberately over-matching.
var errorVocabulary = pattern{
	name:    "error-vocabulary",
	matcher: regexp.MustCompile(`(?i)(error|failed|exception|traceback)`),
}

// Pass 2, stage 2: known-benign shapes removed from stage-1 matches.
// Each entry is independently testable by name.
var benignPatterns = []pattern{
	{
		name:    "log-error-field",
		matcher: regexp.MustCompile(`(?i)("(error|err)"\s*:|\b(error|err)\s*=\s*(nil\b|<nil>|null\b|none\b))`),
		exclude: true,
	},
	{
		name:    "error-handling-code",
		matcher: regexp.MustCompile(`(?i)(\bif err != nil\b|\berrors\.(New|Is|As|Wrap|Unwrap|Join)\b|\berror handling\b|\bhandle[_ ]?error\b|\bon[_ ]?error\b|\berror_handler\b|\bErrorBoundary\b|\braise_for_status\b|\.catch\(|\brescue\b)`),
		exclude: true,
	},
	{
		name:    "error-test-vocabulary",
		matcher: regexp.MustCompile(`(?i)(\btest(s|ed|ing)?\b[^\n]*\berrors?\b|\berror (test|case|cases|scenario|path)s?\b|\bexpect(s|ed)?\b[^\n]*\berror\b|\bshould (return|throw|raise)\b[^\n]*\berror\b|\b0 (errors|failed)\b|\bno errors?\b|\bwithout errors?\b)`),
		exclude: true,
	},
	{
		name:    "stack-frame",
		matcher: regexp.MustCompile(`^\s+(at \S+|File "[^"]*", line \d+|\S+\.(go|py|js|ts|rb):\d+)`),
		exclude: true,
	},
	{
		name:    "tool-warning",
		matcher: regexp.MustCompile(`(?i)(\bdeprecat(ed|ion)\b|\bnpm warn\b|\bwarning:|\bwarn:)`),
		exclude: true,
	},
}

// Pass 3: test activity vs implementation activity.
var (
	testActivity = pattern{
		name:    "test-runner",
		matcher: regexp.MustCompile(`(?i)\b(running tests?|go test|pytest|npm test|yarn test|jest|vitest|mocha|cargo test|rspec|phpunit|test suite|tests? (pass|passed|fail|failed|ran)|unit tests?)\b`),
	}

	implementationActivity = pattern{
		name:    "implementation-activity",
		matcher: regexp.MustCompile(`(?i)\b(creat(e|ed|ing)|implement(s|ed|ing|ation)?|add(ed|ing)|build(ing)?|built|wrote|writing|refactor(ed|ing)?|fix(ed|ing)|modif(y|ied|ying)|updat(e|ed|ing))\b`),
	}
)

// Pass 4: four independent completion-phrase families. Each family
// contributes at most one vote regardless of occurrence count.
var doneSignalFamilies = []pattern{
	{
		name:    "all-tasks-complete",
		matcher: regexp.MustCompile(`(?i)\ball (tasks|items|features)\b[^\n]*\b(complete|completed|done|finished)\b`),
	},
	{
		name:    "project-complete",
		matcher: regexp.MustCompile(`(?i)\b(project|implementation)\b[^\n]*\b(complete|completed|finished|ready)\b`),
	},
	{
		name:    "nothing-left",
		matcher: regexp.MustCompile(`(?i)\bnothing (left|remaining|more) to\b`),
	},
	{
		name:    "no-remaining-work",
		matcher: regexp.MustCompile(`(?i)\bno (remaining|pending|outstanding) (tasks|items|work)\b`),
	},
}
