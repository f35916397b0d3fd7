// Package markedjson loads JSON-shaped configuration documents into marked
// value trees.
//
// Every value in the tree, map keys included, carries the Mark of the source
// text it came from, so code that inspects a configuration long after it was
// parsed can still point at the exact character that is wrong.
//
// The accepted language is the flow subset of YAML that JSON documents use:
// objects, arrays, double-quoted strings with the JSON escapes, numbers,
// true, false and null. One extension is supported: a "<<" key whose value
// is an object (or a list of objects) splices those entries into the
// enclosing object. The object's own keys always win over merged ones.
//
// # Errors
//
// Problems come in two classes. Syntax problems (undecodable bytes, a
// character that cannot start a token, a missing ':' or ',') abort the load
// and are returned as a *mark.Error. Value problems (a duplicate key, a key
// that is not a string, a bare word that is not a number, bool or null) are
// reported to a diagnostic sink and the load continues, skipping the
// offending entry. Load reports whether any such problem occurred.
//
//	root, hadErrors, err := markedjson.LoadString(`{"port": 8080, "port": 9090}`,
//	    markedjson.WithName("server.json"),
//	    markedjson.WithSink(mark.WriterSink(os.Stderr)))
//	if err != nil {
//	    return err // fatal syntax error, with marks
//	}
//	if hadErrors {
//	    // duplicate "port" was reported and dropped; root still has port 8080
//	}
//
// # Thread Safety
//
// All package-level functions are safe for concurrent use. Each call builds
// its own pipeline; the only shared state is read-only tables.
package markedjson

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shapestone/shape-markedjson/internal/composer"
	"github.com/shapestone/shape-markedjson/internal/constructor"
	"github.com/shapestone/shape-markedjson/internal/parser"
	"github.com/shapestone/shape-markedjson/internal/reader"
	"github.com/shapestone/shape-markedjson/internal/resolver"
	"github.com/shapestone/shape-markedjson/internal/scanner"
	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/value"
)

// DefaultName is the source name used when the input has none.
const DefaultName = "<file>"

type options struct {
	name string
	sink mark.Sink
}

// Option configures a load.
type Option func(*options)

// WithName sets the source name recorded in every Mark.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithSink sets where recoverable problems are reported. By default they are
// discarded and only the hadErrors result tells that something was wrong.
func WithSink(sink mark.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// withCollector records every recoverable problem in c while still passing
// it to any sink set by an earlier option.
func withCollector(c *mark.Collector) Option {
	return func(o *options) {
		collect, downstream := c.Sink(), o.sink
		if downstream == nil {
			o.sink = collect
			return
		}
		o.sink = func(d mark.Diagnostic) {
			collect(d)
			downstream(d)
		}
	}
}

// Loader runs the full pipeline over one input. It is single-use.
type Loader struct {
	rd        *reader.Reader
	sink      mark.Sink
	hadErrors bool
	used      bool
}

// NewLoader reads all of r and prepares a Loader over it. Undecodable input
// is reported here.
func NewLoader(r io.Reader, opts ...Option) (*Loader, error) {
	o := options{name: nameOf(r)}
	for _, opt := range opts {
		opt(&o)
	}
	rd, err := reader.New(o.name, r)
	if err != nil {
		return nil, err
	}
	return newLoader(rd, o), nil
}

func newLoader(rd *reader.Reader, o options) *Loader {
	l := &Loader{rd: rd}
	downstream := o.sink
	if downstream == nil {
		downstream = mark.Discard
	}
	l.sink = func(d mark.Diagnostic) {
		l.hadErrors = true
		downstream(d)
	}
	return l
}

// Single loads the only document of the input. It returns nil for an input
// holding no document.
func (l *Loader) Single() (*value.Value, error) {
	if l.used {
		return nil, fmt.Errorf("markedjson: loader for %s already used", l.rd.Name())
	}
	l.used = true

	sc := scanner.New(l.rd)
	p := parser.New(sc, l.sink)
	c := composer.New(p, resolver.New(l.sink))
	node, err := c.Single()
	if err != nil {
		return nil, err
	}
	return constructor.New(l.sink).Construct(node)
}

// HadErrors reports whether a recoverable problem was reported so far.
func (l *Loader) HadErrors() bool {
	return l.hadErrors
}

// Load reads a single document from r. It returns the root value (nil for an
// empty document), whether recoverable problems were reported, and a fatal
// error if the document could not be parsed at all.
func Load(r io.Reader, opts ...Option) (*value.Value, bool, error) {
	l, err := NewLoader(r, opts...)
	if err != nil {
		return nil, false, err
	}
	root, err := l.Single()
	if err != nil {
		return nil, l.hadErrors, err
	}
	return root, l.hadErrors, nil
}

// LoadBytes is Load over an in-memory document.
func LoadBytes(data []byte, opts ...Option) (*value.Value, bool, error) {
	o := options{name: DefaultName}
	for _, opt := range opts {
		opt(&o)
	}
	rd, err := reader.FromBytes(o.name, data)
	if err != nil {
		return nil, false, err
	}
	l := newLoader(rd, o)
	root, err := l.Single()
	if err != nil {
		return nil, l.hadErrors, err
	}
	return root, l.hadErrors, nil
}

// LoadString is Load over a string.
func LoadString(s string, opts ...Option) (*value.Value, bool, error) {
	return Load(strings.NewReader(s), opts...)
}

// LoadFile loads the file at path. The path is the default source name.
func LoadFile(path string, opts ...Option) (*value.Value, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("markedjson: %w", err)
	}
	return LoadBytes(data, append([]Option{WithName(path)}, opts...)...)
}

// nameOf returns the name of r if it has one, as *os.File does.
func nameOf(r io.Reader) string {
	if named, ok := r.(interface{ Name() string }); ok {
		return named.Name()
	}
	return DefaultName
}
