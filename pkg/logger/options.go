package logger

import (
	"io"
	"log/slog"
)

// Option tunes a logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug. Without it loggers log at Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the charmbracelet/log handler used by the chat commands.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON selects slog's JSON handler, as used by "chatter serve". It wins
// over WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter sends output to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters sends output to every non-nil writer in ws.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) {
		c.writers = c.writers[:0]
		for _, w := range ws {
			if w != nil {
				c.writers = append(c.writers, w)
			}
		}
	}
}

// WithSource adds the calling file and line to each record.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}
