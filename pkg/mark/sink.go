package mark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Sink receives recoverable problems. Pipeline stages call it and carry on.
type Sink func(Diagnostic)

// Discard drops every diagnostic.
func Discard(Diagnostic) {}

// WriterSink writes each diagnostic to w preceded by a blank line.
func WriterSink(w io.Writer) Sink {
	return func(d Diagnostic) {
		fmt.Fprintf(w, "\n%s\n", d)
	}
}

// LogSink reports each diagnostic as a structured warning on logger.
func LogSink(logger *slog.Logger) Sink {
	return func(d Diagnostic) {
		attrs := []slog.Attr{slog.String("problem", d.Problem)}
		if d.Context != "" {
			attrs = append(attrs, slog.String("context", d.Context))
		}
		if m := d.ProblemMark; m != nil {
			attrs = append(attrs,
				slog.String("file", m.Name),
				slog.Int("line", m.Line+1),
				slog.Int("column", m.Column+1),
			)
		}
		if d.Note != "" {
			attrs = append(attrs, slog.String("note", d.Note))
		}
		logger.LogAttrs(context.Background(), slog.LevelWarn, "config problem", attrs...)
	}
}

// Collector buffers diagnostics until they are flushed. It is useful when
// several alternatives are tried and only the failing ones should be reported.
type Collector struct {
	diags []Diagnostic
}

// Sink returns a Sink appending to c.
func (c *Collector) Sink() Sink {
	return func(d Diagnostic) {
		c.diags = append(c.diags, d)
	}
}

// Len returns the number of buffered diagnostics.
func (c *Collector) Len() int {
	return len(c.diags)
}

// Diagnostics returns the buffered diagnostics in arrival order.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diags
}

// Flush sends every buffered diagnostic to sink and empties c.
func (c *Collector) Flush(sink Sink) {
	for _, d := range c.diags {
		sink(d)
	}
	c.diags = nil
}
