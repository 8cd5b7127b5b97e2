package sse

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const decodeBufSize = 4096

// TextDecoder converts raw byte chunks into UTF-8 text. A multi-byte sequence
// cut off at the end of a chunk is held back and prefixed onto the next
// chunk, so a code point split across two reads is decoded exactly once.
//
// Invalid bytes in the middle of a chunk are replaced with U+FFFD.
// A TextDecoder is not safe for concurrent use.
type TextDecoder struct {
	t       transform.Transformer
	pending []byte
	buf     []byte
}

// NewTextDecoder returns a TextDecoder with no retained bytes.
func NewTextDecoder() *TextDecoder {
	return &TextDecoder{
		t:   unicode.UTF8.NewDecoder(),
		buf: make([]byte, decodeBufSize),
	}
}

// Decode returns the longest decodable text from the retained bytes followed
// by p. Any incomplete trailing sequence is retained for the next call.
func (d *TextDecoder) Decode(p []byte) string {
	return d.decode(p, false)
}

// Flush decodes whatever bytes are still retained. Incomplete sequences are
// decoded permissively as U+FFFD rather than dropped. The decoder is ready
// for a new stream afterwards.
func (d *TextDecoder) Flush() string {
	s := d.decode(nil, true)
	d.Reset()
	return s
}

// Pending reports how many bytes are retained waiting for the rest of a
// code point.
func (d *TextDecoder) Pending() int {
	return len(d.pending)
}

// Reset discards retained bytes and transformer state.
func (d *TextDecoder) Reset() {
	d.t.Reset()
	d.pending = d.pending[:0]
}

func (d *TextDecoder) decode(p []byte, atEOF bool) string {
	src := p
	if len(d.pending) > 0 {
		src = make([]byte, 0, len(d.pending)+len(p))
		src = append(src, d.pending...)
		src = append(src, p...)
		d.pending = d.pending[:0]
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.buf, src, atEOF)
		out.Write(d.buf[:nDst])
		src = src[nSrc:]

		switch {
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.buf = make([]byte, 2*len(d.buf))
			}
			continue
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append(d.pending, src...)
		}

		return out.String()
	}
}
