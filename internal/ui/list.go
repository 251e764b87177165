package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// listBuilder accumulates rendered rows.
type listBuilder struct {
	rows []string
}

func (l *listBuilder) line(s string) {
	l.rows = append(l.rows, s)
}

func (l *listBuilder) String() string {
	return strings.Join(l.rows, "\n")
}

// window returns the [start, end) render bounds that keep cursor
// visible when showing at most visible of total rows.
func window(cursor, total, visible int) (start, end int) {
	if visible < 1 {
		visible = 1
	}
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end = min(start+visible, total)
	return start, end
}

// highlightMatches renders label with the filter-matched runes
// highlighted and the rest in base.
func highlightMatches(label string, matchedIndexes []int, base lipgloss.Style) string {
	matchSet := make(map[int]bool, len(matchedIndexes))
	for _, idx := range matchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder
	for i, r := range []rune(label) {
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}
