package sse

import "strings"

// LineFramer accumulates decoded text and yields complete "\n" terminated
// lines. The fragment after the last separator stays pending until a later
// Feed terminates it or Flush is called at end of stream.
//
// Lines are returned without the "\n". A "\r" before the separator is left
// in place; callers that care trim it.
type LineFramer struct {
	pending strings.Builder
}

// NewLineFramer returns an empty LineFramer.
func NewLineFramer() *LineFramer {
	return &LineFramer{}
}

// Feed appends text and returns every line it completes, in order.
func (f *LineFramer) Feed(text string) []string {
	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			f.pending.WriteString(text)
			return lines
		}

		line := text[:i]
		if f.pending.Len() > 0 {
			f.pending.WriteString(line)
			line = f.pending.String()
			f.pending.Reset()
		}

		lines = append(lines, line)
		text = text[i+1:]
	}
}

// Flush returns the pending fragment, if any, and clears it.
func (f *LineFramer) Flush() (string, bool) {
	if f.pending.Len() == 0 {
		return "", false
	}
	line := f.pending.String()
	f.pending.Reset()
	return line, true
}

// Pending returns the buffered partial line without consuming it.
func (f *LineFramer) Pending() string {
	return f.pending.String()
}

// Reset drops any pending fragment.
func (f *LineFramer) Reset() {
	f.pending.Reset()
}
