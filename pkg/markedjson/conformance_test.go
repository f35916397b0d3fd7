package markedjson

import (
	"reflect"
	"testing"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/shapestone/shape-markedjson/pkg/value"
)

// JSON documents are YAML flow documents, so gopkg.in/yaml.v3 serves as a
// reference for both the loaded data and the line/column of every node.

var conformanceDocs = []string{
	`{"name": "svc", "port": 8080, "ratio": 0.5, "on": true, "none": null}`,
	`[1, -2, 3.25, "x", [], {}]`,
	"{\n  \"a\": {\n    \"b\": [\n      1,\n      {\"c\": \"d\"}\n    ]\n  },\n  \"e\": \"f\"\n}",
	`"top"`,
	`{"esc": "tab\there \"quoted\" \u00e9"}`,
}

// normalize turns our int64 into int, the type yaml.v3 decodes small ints as.
func normalize(x interface{}) interface{} {
	switch v := x.(type) {
	case int64:
		return int(v)
	case []interface{}:
		for i := range v {
			v[i] = normalize(v[i])
		}
	case map[string]interface{}:
		for k := range v {
			v[k] = normalize(v[k])
		}
	}
	return x
}

// TestConformanceValues verifies loaded data matches yaml.v3
func TestConformanceValues(t *testing.T) {
	for _, doc := range conformanceDocs {
		t.Run(doc, func(t *testing.T) {
			root, hadErrors, err := LoadString(doc)
			if err != nil || hadErrors {
				t.Fatalf("LoadString() = %v, %v", hadErrors, err)
			}

			var want interface{}
			if err := yamlv3.Unmarshal([]byte(doc), &want); err != nil {
				t.Fatalf("yaml.v3 Unmarshal() error: %v", err)
			}
			if got := normalize(ToInterface(root)); !reflect.DeepEqual(got, want) {
				t.Errorf("got %#v\nyaml.v3 %#v", got, want)
			}
		})
	}
}

// TestConformancePositions verifies every node sits where yaml.v3 puts it
func TestConformancePositions(t *testing.T) {
	for _, doc := range conformanceDocs {
		t.Run(doc, func(t *testing.T) {
			root, _, err := LoadString(doc)
			if err != nil {
				t.Fatalf("LoadString() error: %v", err)
			}

			var node yamlv3.Node
			if err := yamlv3.Unmarshal([]byte(doc), &node); err != nil {
				t.Fatalf("yaml.v3 Unmarshal() error: %v", err)
			}
			comparePositions(t, "$", root, node.Content[0])
		})
	}
}

func comparePositions(t *testing.T, path string, v *value.Value, n *yamlv3.Node) {
	t.Helper()
	m := v.Mark()
	if m.Line+1 != n.Line || m.Column+1 != n.Column {
		t.Errorf("%s at %d:%d, yaml.v3 has %d:%d", path, m.Line+1, m.Column+1, n.Line, n.Column)
	}

	switch v.Kind() {
	case value.KindList:
		items, _ := v.AsList()
		if len(items) != len(n.Content) {
			t.Fatalf("%s has %d items, yaml.v3 has %d", path, len(items), len(n.Content))
		}
		for i, item := range items {
			comparePositions(t, path+"[]", item, n.Content[i])
		}
	case value.KindMap:
		mp, _ := v.AsMap()
		entries := mp.Entries()
		if 2*len(entries) != len(n.Content) {
			t.Fatalf("%s has %d entries, yaml.v3 has %d", path, len(entries), len(n.Content)/2)
		}
		for i, e := range entries {
			key, _ := e.Key.AsString()
			comparePositions(t, path+"."+key+"(key)", e.Key, n.Content[2*i])
			comparePositions(t, path+"."+key, e.Value, n.Content[2*i+1])
		}
	}
}
