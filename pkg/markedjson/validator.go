package markedjson

import (
	"io"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// Validate checks a document without keeping the result.
//
// Returns nil if the document loads cleanly, a *mark.Error for a syntax
// error, or Problems listing every recoverable problem (duplicate keys,
// non-string keys, unresolvable bare words) in source order. A sink given
// with WithSink receives the same problems.
//
// Example:
//
//	if err := markedjson.Validate([]byte(`{"a": 1, "a": 2}`)); err != nil {
//	    var problems markedjson.Problems
//	    if errors.As(err, &problems) {
//	        fmt.Println(len(problems)) // 1
//	    }
//	}
func Validate(data []byte, opts ...Option) error {
	var c mark.Collector
	if _, _, err := LoadBytes(data, append(opts, withCollector(&c))...); err != nil {
		return err
	}
	return problemsOf(&c)
}

// ValidateReader is Validate over a stream.
func ValidateReader(r io.Reader, opts ...Option) error {
	var c mark.Collector
	if _, _, err := Load(r, append(opts, withCollector(&c))...); err != nil {
		return err
	}
	return problemsOf(&c)
}

func problemsOf(c *mark.Collector) error {
	if c.Len() == 0 {
		return nil
	}
	return Problems(c.Diagnostics())
}
