// Package sse provides the incremental text pipeline used to read line framed
// event streams from HTTP response bodies: a UTF-8 TextDecoder that survives
// code points split across reads, a LineFramer that yields complete lines
// while holding back a trailing partial line, and a Reader that assembles
// SSE events from an io.Reader on top of both.
//
// Chunk boundaries delivered by the transport are arbitrary. Nothing in this
// package assumes a read ends on a line, rune, or payload boundary.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE standard.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n".
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// DataPrefix is the field marker that introduces an event payload line.
const DataPrefix = "data:"

// CutField splits an SSE line into its field name and value. The single
// optional space after the colon is stripped. A line without a colon is a
// field name with an empty value.
func CutField(line string) (field, value string) {
	before, after, ok := strings.Cut(line, ":")
	if !ok {
		return line, ""
	}
	if len(after) > 0 && after[0] == ' ' {
		after = after[1:]
	}
	return before, after
}
