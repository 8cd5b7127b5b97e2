package chatcmder

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var timeNow = time.Now

// streamedRows returns how many terminal rows text occupies at width columns.
func streamedRows(text string, width int) int {
	if width <= 0 {
		return strings.Count(text, "\n") + 1
	}

	rows := 0
	for _, line := range strings.Split(text, "\n") {
		w := lipgloss.Width(line)
		if w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
