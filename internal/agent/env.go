package agent

import (
	"os"
	"sort"
)

// Environ builds the subprocess environment: the parent environment
// with the given overrides appended. Later entries win for duplicate
// keys, so overrides shadow inherited values. A nil return means
// "inherit unchanged".
func Environ(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
