package agent

import (
	"fmt"
	"os/exec"
	"strings"
)

// knownAgents are probed in order when no agent command is configured.
var knownAgents = []string{"kiro", "claude", "opencode", "codex", "amp"}

// Detect returns the first known agent CLI found on PATH.
func Detect() (string, error) {
	for _, name := range knownAgents {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no agent CLI found on PATH (looked for: %s)", strings.Join(knownAgents, ", "))
}
