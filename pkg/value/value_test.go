package value

import (
	"errors"
	"math"
	"testing"

	"github.com/shapestone/shape-markedjson/pkg/mark"
)

func at(col int) mark.Mark {
	return mark.Mark{Name: "test", Column: col, Offset: col}
}

// TestAccessors verifies each As* accessor against every kind
func TestAccessors(t *testing.T) {
	values := []*Value{
		NewNull(at(0)),
		NewBool(true, at(0)),
		NewInt(42, at(0)),
		NewFloat(1.5, at(0)),
		NewString("s", at(0)),
		NewList(nil, at(0)),
		NewMap(nil, at(0)),
	}

	for _, v := range values {
		_, err := v.AsBool()
		if (err == nil) != (v.Kind() == KindBool) {
			t.Errorf("%s: AsBool() error = %v", v.Kind(), err)
		}
		_, err = v.AsInt()
		if (err == nil) != (v.Kind() == KindInt) {
			t.Errorf("%s: AsInt() error = %v", v.Kind(), err)
		}
		_, err = v.AsFloat()
		if (err == nil) != (v.Kind() == KindFloat || v.Kind() == KindInt) {
			t.Errorf("%s: AsFloat() error = %v", v.Kind(), err)
		}
		_, err = v.AsString()
		if (err == nil) != (v.Kind() == KindString) {
			t.Errorf("%s: AsString() error = %v", v.Kind(), err)
		}
		_, err = v.AsList()
		if (err == nil) != (v.Kind() == KindList) {
			t.Errorf("%s: AsList() error = %v", v.Kind(), err)
		}
		_, err = v.AsMap()
		if (err == nil) != (v.Kind() == KindMap) {
			t.Errorf("%s: AsMap() error = %v", v.Kind(), err)
		}
	}
}

// TestAsFloatWidensInt verifies ints are readable as floats
func TestAsFloatWidensInt(t *testing.T) {
	f, err := NewInt(7, at(0)).AsFloat()
	if err != nil {
		t.Fatalf("AsFloat() error: %v", err)
	}
	if f != 7 {
		t.Errorf("AsFloat() = %v, want 7", f)
	}
}

// TestTypeError verifies the error carries both kinds and the mark
func TestTypeError(t *testing.T) {
	v := NewString("x", mark.Mark{Name: "cfg", Line: 2, Column: 4})
	_, err := v.AsInt()

	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("AsInt() error = %T, want *TypeError", err)
	}
	if te.Want != KindInt || te.Got != KindString {
		t.Errorf("TypeError = %+v", te)
	}
	if te.Mark.Line != 2 || te.Mark.Column != 4 {
		t.Errorf("TypeError mark = %+v", te.Mark)
	}
}

// TestEqual verifies structural equality ignoring marks
func TestEqual(t *testing.T) {
	m1 := NewOrderedMap()
	m1.Insert(NewString("a", at(1)), NewInt(1, at(6)))
	m1.Insert(NewString("b", at(9)), NewList([]*Value{NewNull(at(15))}, at(14)))

	m2 := NewOrderedMap()
	m2.Insert(NewString("b", at(0)), NewList([]*Value{NewNull(at(0))}, at(0)))
	m2.Insert(NewString("a", at(0)), NewInt(1, at(0)))

	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"maps in other order", NewMap(m1, at(0)), NewMap(m2, at(3)), true},
		{"int vs float", NewInt(1, at(0)), NewFloat(1, at(0)), false},
		{"nan", NewFloat(math.NaN(), at(0)), NewFloat(math.NaN(), at(0)), false},
		{"signed zero", NewFloat(0, at(0)), NewFloat(math.Copysign(0, -1), at(0)), false},
		{"strings", NewString("x", at(0)), NewString("x", at(5)), true},
		{"list length", NewList([]*Value{NewNull(at(0))}, at(0)), NewList(nil, at(0)), false},
		{"nil", nil, nil, true},
		{"nil vs null", nil, NewNull(at(0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestString verifies the debugging form keeps map order
func TestString(t *testing.T) {
	m := NewOrderedMap()
	m.Insert(NewString("z", at(0)), NewBool(false, at(0)))
	m.Insert(NewString("a", at(0)), NewList([]*Value{NewInt(1, at(0)), NewFloat(2.5, at(0))}, at(0)))
	v := NewMap(m, at(0))

	if got, want := v.String(), `{"z": false, "a": [1, 2.5]}`; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

// TestPartition verifies part values and their advanced marks
func TestPartition(t *testing.T) {
	// "key=value" with the opening quote at column 10
	v := NewString("key=value", at(10))

	before, sep, after, err := v.Partition("=")
	if err != nil {
		t.Fatalf("Partition() error: %v", err)
	}
	checkPart(t, "before", before, "key", 11)
	checkPart(t, "sep", sep, "=", 14)
	checkPart(t, "after", after, "value", 15)

	before, sep, after, err = v.Partition("#")
	if err != nil {
		t.Fatalf("Partition() error: %v", err)
	}
	checkPart(t, "before", before, "key=value", 11)
	checkPart(t, "sep", sep, "", 20)
	checkPart(t, "after", after, "", 20)
}

// TestRPartition verifies splitting at the last separator
func TestRPartition(t *testing.T) {
	v := NewString("a.b.c", at(0))

	before, sep, after, err := v.RPartition(".")
	if err != nil {
		t.Fatalf("RPartition() error: %v", err)
	}
	checkPart(t, "before", before, "a.b", 1)
	checkPart(t, "sep", sep, ".", 4)
	checkPart(t, "after", after, "c", 5)

	before, _, after, err = v.RPartition("/")
	if err != nil {
		t.Fatalf("RPartition() error: %v", err)
	}
	checkPart(t, "before", before, "", 1)
	checkPart(t, "after", after, "a.b.c", 1)
}

// TestPartitionRequiresString verifies non-string values are rejected
func TestPartitionRequiresString(t *testing.T) {
	if _, _, _, err := NewInt(1, at(0)).Partition("="); err == nil {
		t.Error("Partition() on int: expected error")
	}
}

func checkPart(t *testing.T, name string, v *Value, want string, col int) {
	t.Helper()
	s, err := v.AsString()
	if err != nil {
		t.Fatalf("%s: AsString() error: %v", name, err)
	}
	if s != want {
		t.Errorf("%s = %q, want %q", name, s, want)
	}
	if v.Mark().Column != col {
		t.Errorf("%s column = %d, want %d", name, v.Mark().Column, col)
	}
}
