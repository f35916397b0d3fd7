package markedjson

import (
	"testing"
)

// TestDocumentObject verifies nested objects and lists keep insertion order
func TestDocumentObject(t *testing.T) {
	doc := NewDocument()
	doc.Object().
		Set("name", "svc").
		Set("port", 8080).
		SetObject("tls", func(o *ObjectBuilder) {
			o.Set("enabled", false)
		}).
		SetSequence("hosts", func(s *SequenceBuilder) {
			s.Add("a").AddObject(func(o *ObjectBuilder) {
				o.Set("weight", 0.5)
			}).AddSequence(func(s *SequenceBuilder) {})
		}).
		Set("port", 9090)

	data, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}
	want := `{"name":"svc","port":9090,"tls":{"enabled":false},"hosts":["a",{"weight":0.5},[]]}`
	if string(data) != want {
		t.Errorf("ToJSON() = %s, want %s", data, want)
	}

	root, hadErrors, err := LoadBytes(data)
	if err != nil || hadErrors {
		t.Fatalf("LoadBytes() = %v, %v", hadErrors, err)
	}
	if !root.Equal(doc.Build()) {
		t.Errorf("loaded %s, want %s", root, doc.Build())
	}
}

// TestDocumentRoots verifies each kind of root
func TestDocumentRoots(t *testing.T) {
	doc := NewDocument()
	if doc.Build() != nil {
		t.Error("empty document built a value")
	}

	doc.Sequence().Add(1).Add(nil)
	if got := doc.Build().String(); got != "[1, null]" {
		t.Errorf("sequence root = %s", got)
	}

	doc.Value("plain")
	if got := doc.Build().String(); got != `"plain"` {
		t.Errorf("scalar root = %s", got)
	}
}

// TestBuilderErrors verifies the first conversion error is kept
func TestBuilderErrors(t *testing.T) {
	doc := NewDocument()
	doc.Object().
		Set("ok", 1).
		SetObject("inner", func(o *ObjectBuilder) {
			o.Set("bad", make(chan int))
		})
	if doc.Err() == nil {
		t.Error("Err() = nil for nested unsupported value")
	}
	if _, err := doc.ToJSON(); err == nil {
		t.Error("ToJSON() succeeded despite builder error")
	}

	seq := NewSequence().Add(struct{}{}).Add(1)
	if seq.Err() == nil {
		t.Error("SequenceBuilder.Err() = nil")
	}
	if got := seq.Build().String(); got != "[1]" {
		t.Errorf("sequence = %s, want [1]", got)
	}

	if err := NewDocument().Value(complex(1, 1)).Err(); err == nil {
		t.Error("Document.Value() accepted complex number")
	}
}
