// Package prompt assembles the instruction text piped to the agent on
// each iteration.
package prompt

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/craig-ford/ralph-kiro/internal/tasks"
)

var (
	loopVarRe  = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
	ifOpenRe   = regexp.MustCompile(`\{\{#if\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
	ifCloseStr = "{{/if}}"
)

// Vars maps loop variable names to values for prompt rendering.
type Vars map[string]string

// Render expands loop variables in a prompt. {{variable}} is replaced
// when the variable is known; unknown placeholders pass through
// verbatim, since prompt files often contain template syntax meant for
// the agent rather than the loop. {{#if variable}}...{{/if}} blocks
// are included only when the variable is known and non-empty.
func Render(tmpl string, vars Vars) (string, error) {
	result, err := processConditionals(tmpl, vars)
	if err != nil {
		return "", err
	}

	expanded := loopVarRe.ReplaceAllStringFunc(result, func(match string) string {
		m := loopVarRe.FindStringSubmatch(match)
		if m == nil {
			return match
		}
		if val, ok := vars[m[1]]; ok {
			return val
		}
		return match
	})

	return expanded, nil
}

// processConditionals handles {{#if var}}...{{/if}} blocks, supporting
// nesting. Innermost blocks resolve first: for each {{/if}} the last
// preceding {{#if}} is its opener.
func processConditionals(tmpl string, vars Vars) (string, error) {
	result := tmpl
	for {
		closeIdx := strings.Index(result, ifCloseStr)
		if closeIdx == -1 {
			break
		}

		prefix := result[:closeIdx]
		openLocs := ifOpenRe.FindAllStringIndex(prefix, -1)
		if openLocs == nil {
			return "", fmt.Errorf("dangling {{/if}} without matching {{#if}}")
		}

		lastOpen := openLocs[len(openLocs)-1]
		openStart := lastOpen[0]
		openEnd := lastOpen[1]

		openTag := prefix[openStart:openEnd]
		m := ifOpenRe.FindStringSubmatch(openTag)
		if m == nil {
			return "", fmt.Errorf("failed to parse conditional tag: %s", openTag)
		}
		varName := m[1]

		body := result[openEnd:closeIdx]
		closeEnd := closeIdx + len(ifCloseStr)

		var replacement string
		if val, ok := vars[varName]; ok && val != "" {
			replacement = body
		}

		result = result[:openStart] + replacement + result[closeEnd:]
	}

	if ifOpenRe.MatchString(result) {
		return "", fmt.Errorf("unclosed conditional block: %s", ifOpenRe.FindString(result))
	}

	return result, nil
}

// Builder renders the per-iteration prompt from a user-authored file.
type Builder struct {
	Path          string
	IncludeStatus bool
}

// Load reads the prompt file. A missing file is a hard error: the loop
// cannot run without instructions.
func (b *Builder) Load() (string, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", b.Path, err)
	}
	return string(data), nil
}

// Build renders the iteration's prompt: the file content with loop
// variables expanded, preceded by a status header when configured.
func (b *Builder) Build(loopCount int, list tasks.Summary) (string, error) {
	body, err := b.Load()
	if err != nil {
		return "", err
	}

	vars := Vars{
		"loop_count":      fmt.Sprintf("%d", loopCount),
		"tasks_completed": fmt.Sprintf("%d", list.Completed),
		"tasks_total":     fmt.Sprintf("%d", list.Total),
		"tasks_remaining": fmt.Sprintf("%d", list.Total-list.Completed),
	}

	rendered, err := Render(body, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", b.Path, err)
	}

	if !b.IncludeStatus {
		return rendered, nil
	}

	var header strings.Builder
	header.WriteString("## Loop Status\n\n")
	fmt.Fprintf(&header, "Iteration: %d\n", loopCount)
	if list.Total > 0 {
		fmt.Fprintf(&header, "Tasks: %d/%d complete\n", list.Completed, list.Total)
	} else {
		header.WriteString("Tasks: none tracked\n")
	}
	header.WriteString("\n---\n\n")

	return header.String() + rendered, nil
}
