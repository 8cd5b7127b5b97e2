package sse

import (
	"errors"
	"io"
	"strings"
)

const readBufSize = 32 * 1024

// LineReader yields complete lines from a source io.Reader. Bytes are pulled
// from the source one Read at a time and pushed through a TextDecoder and a
// LineFramer, so lines survive any chunking the transport applies. Newline
// delimited JSON bodies are read with a LineReader directly.
type LineReader struct {
	src     io.Reader
	buf     []byte
	decoder *TextDecoder
	framer  *LineFramer

	// lines holds complete lines framed but not yet returned.
	lines []string
	eof   bool
}

// NewLineReader returns a LineReader over src.
func NewLineReader(src io.Reader) *LineReader {
	return &LineReader{
		src:     src,
		buf:     make([]byte, readBufSize),
		decoder: NewTextDecoder(),
		framer:  NewLineFramer(),
	}
}

// Next returns the next line without its "\n". A trailing "\r" is kept.
// The final line is returned even when the source does not terminate it.
// Next returns io.EOF once the source is exhausted and every line was
// returned; any other error comes from the source.
func (r *LineReader) Next() (string, error) {
	for len(r.lines) == 0 {
		if r.eof {
			return "", io.EOF
		}
		if err := r.fill(); err != nil {
			return "", err
		}
	}

	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

// fill performs one Read on the source and frames whatever it produced.
func (r *LineReader) fill() error {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		r.lines = append(r.lines, r.framer.Feed(r.decoder.Decode(r.buf[:n]))...)
	}

	if err == nil {
		return nil
	}
	if !errors.Is(err, io.EOF) {
		return err
	}

	r.eof = true
	r.lines = append(r.lines, r.framer.Feed(r.decoder.Flush())...)
	if line, ok := r.framer.Flush(); ok {
		r.lines = append(r.lines, line)
	}
	return nil
}

// Reader reads SSE events from a source io.Reader.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │ chunks
// ▼
// ┌──────────────────┐   ┌──────────────────┐
// │   TextDecoder    │──▶│    LineFramer    │
// └──────────────────┘   └──────────────────┘
// │ lines
// ▼
// ┌──────────────────┐
// │   Reader.Next()  │──▶ Event
// └──────────────────┘
type Reader struct {
	lines *LineReader

	// current accumulates fields for the event being built.
	current *Event
	hasData bool
}

// NewReader returns a Reader that parses SSE events from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		lines:   NewLineReader(src),
		current: &Event{},
	}
}

// Next returns the next parsed SSE event. It blocks until a complete event is
// available (terminated by a blank line in the stream) or the source ends.
// Next returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for {
		line, err := r.lines.Next()
		if errors.Is(err, io.EOF) {
			// Stream ended without a trailing blank line: yield what we have.
			if r.hasData {
				return r.take(), nil
			}
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		raw := strings.TrimSuffix(line, "\r")

		// A blank line signals the end of the current event.
		if raw == "" {
			if r.hasData {
				return r.take(), nil
			}
			// Leading blank lines and keep-alive newlines.
			continue
		}

		// Lines starting with ':' are comments.
		if strings.HasPrefix(raw, ":") {
			continue
		}

		r.parseLine(raw)
	}
}

// parseLine accumulates a single non-empty, non-comment SSE line into the
// current event.
func (r *Reader) parseLine(line string) {
	field, value := CutField(line)

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored per the SSE standard.
	}
}

func (r *Reader) take() *Event {
	ev := r.current
	r.current = &Event{}
	r.hasData = false
	return ev
}
