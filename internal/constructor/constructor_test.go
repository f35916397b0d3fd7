package constructor

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/shapestone/shape-markedjson/internal/composer"
	"github.com/shapestone/shape-markedjson/internal/parser"
	"github.com/shapestone/shape-markedjson/internal/reader"
	"github.com/shapestone/shape-markedjson/internal/resolver"
	"github.com/shapestone/shape-markedjson/internal/scanner"
	"github.com/shapestone/shape-markedjson/pkg/mark"
	"github.com/shapestone/shape-markedjson/pkg/value"
)

func composeNode(t *testing.T, input string) *composer.Node {
	t.Helper()
	rd, err := reader.FromBytes("test", []byte(input))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	node, err := composer.New(parser.New(scanner.New(rd), nil), resolver.New(nil)).Single()
	if err != nil {
		t.Fatalf("Single() error: %v", err)
	}
	return node
}

func construct(t *testing.T, input string) (*value.Value, []mark.Diagnostic, error) {
	t.Helper()
	var c mark.Collector
	v, err := New(c.Sink()).Construct(composeNode(t, input))
	return v, c.Diagnostics(), err
}

func mustMap(t *testing.T, v *value.Value) *value.Map {
	t.Helper()
	m, err := v.AsMap()
	if err != nil {
		t.Fatalf("AsMap() error: %v", err)
	}
	return m
}

// TestConstructScalars verifies each scalar tag becomes the right kind
func TestConstructScalars(t *testing.T) {
	v, diags, err := construct(t, `[null, true, false, -3, 0.5, 1e3, "s"]`)
	if err != nil {
		t.Fatalf("Construct() error: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	items, _ := v.AsList()
	wantKinds := []value.Kind{
		value.KindNull, value.KindBool, value.KindBool, value.KindInt,
		value.KindFloat, value.KindFloat, value.KindString,
	}
	for i, item := range items {
		if item.Kind() != wantKinds[i] {
			t.Errorf("item %d kind = %s, want %s", i, item.Kind(), wantKinds[i])
		}
	}
	if b, _ := items[1].AsBool(); !b {
		t.Error("true constructed as false")
	}
	if b, _ := items[2].AsBool(); b {
		t.Error("false constructed as true")
	}
	if i, _ := items[3].AsInt(); i != -3 {
		t.Errorf("int = %d", i)
	}
	if f, _ := items[5].AsFloat(); f != 1000 {
		t.Errorf("float = %v", f)
	}
	if items[6].Mark().Column != 34 {
		t.Errorf("string column = %d, want 34", items[6].Mark().Column)
	}
}

// TestConstructNumberLimits verifies out-of-range numbers are reported
func TestConstructNumberLimits(t *testing.T) {
	v, diags, err := construct(t, `[9223372036854775807, -9223372036854775808, 9223372036854775808, 1e400]`)
	if err != nil {
		t.Fatalf("Construct() error: %v", err)
	}
	items, _ := v.AsList()

	if i, _ := items[0].AsInt(); i != math.MaxInt64 {
		t.Errorf("max int = %d", i)
	}
	if i, _ := items[1].AsInt(); i != math.MinInt64 {
		t.Errorf("min int = %d", i)
	}
	if items[2].Kind() != value.KindFloat {
		t.Errorf("overflowing int kind = %s, want float", items[2].Kind())
	}
	if f, _ := items[3].AsFloat(); !math.IsInf(f, 1) {
		t.Errorf("1e400 = %v, want +Inf", f)
	}

	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(diags))
	}
	if diags[0].ProblemMark.Column != 44 || diags[1].ProblemMark.Column != 65 {
		t.Errorf("diagnostic columns = %d, %d", diags[0].ProblemMark.Column, diags[1].ProblemMark.Column)
	}
}

// TestDuplicateKeys verifies the first value wins and later ones are reported.
// Keeping the first occurrence is intentional: parsers that let the last
// duplicate win (encoding/json among them) differ on purpose, since the
// reported later key is the one a user is told to remove.
func TestDuplicateKeys(t *testing.T) {
	v, diags, err := construct(t, `{"a": 1, "b": 2, "a": 3}`)
	if err != nil {
		t.Fatalf("Construct() error: %v", err)
	}
	m := mustMap(t, v)
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
	a, _ := m.Get("a")
	if i, _ := a.AsInt(); i != 1 {
		t.Errorf("a = %d, want 1", i)
	}

	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	d := diags[0]
	if d.Context != "Error while constructing a mapping" || d.Problem != "found duplicate key" {
		t.Errorf("diagnostic = %q / %q", d.Context, d.Problem)
	}
	if d.ContextMark.Column != 0 || d.ProblemMark.Column != 17 {
		t.Errorf("marks at %d and %d, want 0 and 17", d.ContextMark.Column, d.ProblemMark.Column)
	}
}

// TestNonStringKey verifies non-string keys are reported and skipped
func TestNonStringKey(t *testing.T) {
	v, diags, err := construct(t, `{1: "x", "ok": true}`)
	if err != nil {
		t.Fatalf("Construct() error: %v", err)
	}
	if got := mustMap(t, v).Keys(); !reflect.DeepEqual(got, []string{"ok"}) {
		t.Errorf("Keys() = %v", got)
	}
	if len(diags) != 1 || diags[0].Problem != "found key that is not a string" {
		t.Fatalf("diagnostics = %v", diags)
	}
	if diags[0].ProblemMark.Column != 1 {
		t.Errorf("problem column = %d, want 1", diags[0].ProblemMark.Column)
	}
}

// TestMerge verifies merge key flattening and precedence
func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "own keys win",
			input: `{"<<": {"a": 1, "b": 2}, "b": 3}`,
			want:  `{"a": 1, "b": 3}`,
		},
		{
			name:  "later sources win",
			input: `{"<<": [{"a": 1}, {"a": 2, "c": 3}]}`,
			want:  `{"a": 2, "c": 3}`,
		},
		{
			name:  "nested merge",
			input: `{"<<": {"<<": {"x": 1}, "y": 2}, "z": 3}`,
			want:  `{"x": 1, "y": 2, "z": 3}`,
		},
		{
			name:  "own key before merge in source",
			input: `{"a": 0, "<<": {"a": 1, "b": 1}}`,
			want:  `{"b": 1, "a": 0}`,
		},
		{
			name:  "empty source",
			input: `{"<<": {}, "k": null}`,
			want:  `{"k": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, diags, err := construct(t, tt.input)
			if err != nil {
				t.Fatalf("Construct() error: %v", err)
			}
			if len(diags) != 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Construct() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestMergeLeavesNodesIntact verifies flattening does not rewrite the tree
func TestMergeLeavesNodesIntact(t *testing.T) {
	n := composeNode(t, `{"<<": {"a": 1}, "b": 2}`)
	if _, err := New(nil).Construct(n); err != nil {
		t.Fatalf("Construct() error: %v", err)
	}
	if len(n.Pairs) != 2 || n.Pairs[0].Key.Value != MergeKey {
		t.Errorf("node pairs changed: %+v", n.Pairs)
	}
}

// TestMergeErrors verifies malformed merge sources are fatal
func TestMergeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		problem string
		column  int
	}{
		{
			name:    "scalar source",
			input:   `{"<<": 1}`,
			problem: "expected a mapping or list of mappings for merging, but found scalar node",
			column:  7,
		},
		{
			name:    "scalar in source list",
			input:   `{"<<": [{}, "x"]}`,
			problem: "expected a mapping for merging, but found scalar node",
			column:  12,
		},
		{
			name:    "sequence in source list",
			input:   `{"<<": [[]]}`,
			problem: "expected a mapping for merging, but found sequence node",
			column:  8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := construct(t, tt.input)
			if !errors.Is(err, mark.ErrConstructor) {
				t.Fatalf("error = %v, want constructor error", err)
			}
			var merr *mark.Error
			errors.As(err, &merr)
			if merr.Context != "while constructing a mapping" || merr.Problem != tt.problem {
				t.Errorf("error = %q / %q", merr.Context, merr.Problem)
			}
			if merr.ProblemMark.Column != tt.column || merr.ContextMark.Column != 0 {
				t.Errorf("marks at %d and %d", merr.ProblemMark.Column, merr.ContextMark.Column)
			}
		})
	}
}

// TestUnknownTag verifies a node without a constructor is fatal
func TestUnknownTag(t *testing.T) {
	n := &composer.Node{Kind: composer.ScalarNode, Value: "x"}
	_, err := New(nil).Construct(n)
	if !errors.Is(err, mark.ErrConstructor) {
		t.Fatalf("error = %v, want constructor error", err)
	}
	var merr *mark.Error
	errors.As(err, &merr)
	if want := `could not determine a constructor for the tag "!"`; merr.Problem != want {
		t.Errorf("Problem = %q, want %q", merr.Problem, want)
	}
}

// TestConstructNil verifies an empty document yields no value
func TestConstructNil(t *testing.T) {
	v, err := New(nil).Construct(nil)
	if err != nil || v != nil {
		t.Errorf("Construct(nil) = %v, %v", v, err)
	}
}
