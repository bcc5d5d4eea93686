package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParsePreservesKeyOrder(t *testing.T) {
	raw := `{"name":"demo","scripts":{"start":"node .","build":"tsc","test":"jest"},"version":"1.0.0","dependencies":{"z":"1","a":"2"}}`
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := m.Keys(), []string{"name", "scripts", "version", "dependencies"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	scripts := m.Object(Scripts)
	if scripts == nil {
		t.Fatalf("expected scripts object")
	}
	if got, want := scripts.Keys(), []string{"start", "build", "test"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("script keys = %v, want %v", got, want)
	}
	if m.String("name") != "demo" {
		t.Fatalf("unexpected name %q", m.String("name"))
	}
}

func TestEncodeRoundTripIsStable(t *testing.T) {
	raw := "{\n  \"name\": \"demo\",\n  \"private\": true,\n  \"count\": 12345678901234567890,\n  \"eslintConfig\": {\n    \"extends\": []\n  },\n  \"dependencies\": {},\n  \"homepage\": \"https://example.com/?a=1&b=<2>\"\n}\n"
	m, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("round trip mismatch:\n%s\nwant:\n%s", out, raw)
	}
}

func TestSetKeepsPositionAndDeleteRemoves(t *testing.T) {
	m := New()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("c", "3")
	m.Set("a", "updated")
	m.Delete("b")
	if got, want := m.Keys(), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if m.String("a") != "updated" {
		t.Fatalf("expected overwritten value")
	}
	m.Set("b", "again")
	if got, want := m.Keys(), []string{"a", "c", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("re-added key should append, got %v", got)
	}
}

func TestSortedAndClone(t *testing.T) {
	m := New()
	m.Set("zeta", "1")
	m.Set("alpha", "2")
	nested := New()
	nested.Set("x", "y")
	m.Set("nested", nested)

	sorted := m.Sorted()
	if got, want := sorted.Keys(), []string{"alpha", "nested", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sorted keys = %v", got)
	}

	clone := m.Clone()
	clone.Object("nested").Set("x", "changed")
	if m.Object("nested").String("x") != "y" {
		t.Fatalf("clone must not share nested objects")
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"x"`, `{"a":`} {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestWriteAndLoadDir(t *testing.T) {
	dir := t.TempDir()
	m := New()
	m.Set("name", "app")
	m.Set("version", "0.1.0")
	if err := m.Write(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasSuffix(string(raw), "}\n") {
		t.Fatalf("expected trailing newline, got %q", raw)
	}
	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.String("name") != "app" || loaded.String("version") != "0.1.0" {
		t.Fatalf("unexpected manifest %v", loaded.Keys())
	}
}

func TestMarshalInsideStdlibValues(t *testing.T) {
	m := New()
	m.Set("b", json.Number("2"))
	m.Set("a", []any{"x", true})
	out, err := json.Marshal(map[string]any{"pkg": m})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"pkg":{"b":2,"a":["x",true]}}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}
