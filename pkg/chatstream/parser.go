package chatstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/chatter/pkg/sse"
)

// ErrIncompletePayload is returned by ParseLine when the payload ends in the
// middle of a JSON value. Such lines are dropped without logging.
var ErrIncompletePayload = errors.New("incomplete event payload")

// ParseError describes an event line whose payload could not be decoded.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing event line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseLine parses a single framed line.
//
// Lines that are blank or do not start with "data:" yield (nil, nil), as do
// payloads with an unrecognized type. A truncated payload yields an error
// matching ErrIncompletePayload; any other decode failure yields a
// *ParseError.
func ParseLine(line string) (Event, error) {
	trimmed := strings.TrimRight(line, " \t\r")
	if trimmed == "" || !strings.HasPrefix(trimmed, sse.DataPrefix) {
		return nil, nil
	}

	_, payload := sse.CutField(line)

	dec := json.NewDecoder(strings.NewReader(payload))
	var p Payload
	if err := dec.Decode(&p); err != nil {
		// An empty payload counts as truncated, so a bare "data:" is dropped.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ParseError{Line: line, Err: ErrIncompletePayload}
		}
		return nil, &ParseError{Line: line, Err: err}
	}
	if strings.TrimSpace(payload[dec.InputOffset():]) != "" {
		return nil, &ParseError{Line: line, Err: errors.New("trailing data after payload")}
	}

	ev, ok := p.Event()
	if !ok {
		return nil, nil
	}
	return ev, nil
}
