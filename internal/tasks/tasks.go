// Package tasks reads checklist-style task files and computes completion.
package tasks

import (
	"os"
	"regexp"
	"strings"
)

// Item states as they appear in checklist markers.
const (
	StateTodo       = "todo"
	StateInProgress = "in_progress"
	StateDone       = "done"
)

// Item is a single checklist entry.
type Item struct {
	Title string
	State string
}

// Summary is the completion count over a checklist file.
type Summary struct {
	Total     int
	Completed int
}

// itemRegex matches markdown checklist lines: "- [ ] title", "* [x] title",
// with "/" marking in-progress.
var itemRegex = regexp.MustCompile(`^\s*[-*]\s+\[([ xX/])\]\s*(.+)$`)

// Parse extracts checklist items from text.
func Parse(text string) []Item {
	var items []Item
	for _, line := range strings.Split(text, "\n") {
		m := itemRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := Item{Title: strings.TrimSpace(m[2])}
		switch m[1] {
		case "x", "X":
			item.State = StateDone
		case "/":
			item.State = StateInProgress
		default:
			item.State = StateTodo
		}
		items = append(items, item)
	}
	return items
}

// Summarize reduces items to completion counts.
func Summarize(items []Item) Summary {
	s := Summary{Total: len(items)}
	for _, item := range items {
		if item.State == StateDone {
			s.Completed++
		}
	}
	return s
}

// ReadFile parses the checklist file at path. A missing file yields an
// empty summary rather than an error; anything else that prevents
// reading is reported.
func ReadFile(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, nil
		}
		return Summary{}, err
	}
	return Summarize(Parse(string(data))), nil
}

// Fraction returns completed/total, or 0 when the list is empty.
func (s Summary) Fraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Complete reports whether a non-empty list is fully checked off.
func (s Summary) Complete() bool {
	return s.Total > 0 && s.Completed == s.Total
}
