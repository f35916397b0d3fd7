package mark

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestWriterSink verifies each diagnostic is preceded by a blank line
func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink(&buf)
	sink(Diagnostic{Problem: "first"})
	sink(Diagnostic{Problem: "second"})

	if got, want := buf.String(), "\nfirst\n\nsecond\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestLogSink verifies the structured attributes
func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := markAt("{\"a\": 1,\n \"a\": 2}", 10)

	LogSink(logger)(Diagnostic{
		Context:     "Error while constructing a mapping",
		Problem:     "found duplicate key",
		ProblemMark: &m,
	})

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log record is not JSON: %v\n%s", err, buf.String())
	}
	checks := map[string]interface{}{
		"level":   "WARN",
		"msg":     "config problem",
		"problem": "found duplicate key",
		"file":    "test.json",
		"line":    float64(2),
		"column":  float64(2),
	}
	for k, want := range checks {
		if rec[k] != want {
			t.Errorf("%s = %v, want %v", k, rec[k], want)
		}
	}
}

// TestCollector verifies buffering and flushing in order
func TestCollector(t *testing.T) {
	var c Collector
	sink := c.Sink()
	sink(Diagnostic{Problem: "one"})
	sink(Diagnostic{Problem: "two"})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	var got []string
	c.Flush(func(d Diagnostic) { got = append(got, d.Problem) })
	if strings.Join(got, ",") != "one,two" {
		t.Errorf("flushed %v", got)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Flush = %d, want 0", c.Len())
	}
}
