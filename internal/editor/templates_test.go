package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinTemplates(t *testing.T) {
	set := NewTemplateSet(BuiltinTemplates(), nil)

	for _, name := range []string{"Hello World", "Ask Name"} {
		tmpl, ok := set.Get(name)
		if !ok {
			t.Errorf("builtin %q missing", name)
			continue
		}
		if strings.TrimSpace(tmpl.Code) == "" {
			t.Errorf("builtin %q has no code", name)
		}
	}
	if tmpl, _ := set.Get("Ask Name"); !strings.Contains(tmpl.Code, "input(") {
		t.Error("Ask Name template does not read input")
	}
}

func TestParseTemplates(t *testing.T) {
	data := []byte(`
templates:
  - name: Loop
    description: Count to five
    code: |
      for i in range(5):
          print(i)
  - name: Hello World
    code: print("hi")
`)

	got, err := ParseTemplates(data)
	if err != nil {
		t.Fatalf("ParseTemplates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d templates, want 2", len(got))
	}
	if got[0].Name != "Loop" || got[0].Description != "Count to five" {
		t.Errorf("first template = %+v", got[0])
	}
	if got[0].Code != "for i in range(5):\n    print(i)\n" {
		t.Errorf("block scalar code = %q", got[0].Code)
	}
}

func TestParseTemplates_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad yaml", "templates: [", "parse templates"},
		{"missing name", "templates:\n  - code: x\n", "missing name"},
		{"missing code", "templates:\n  - name: A\n", "missing code"},
		{"duplicate", "templates:\n  - name: A\n    code: x\n  - name: A\n    code: y\n", "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplates([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTemplates_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte("templates:\n  - name: One\n    code: print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "One" {
		t.Errorf("LoadTemplates() = %+v", got)
	}

	if _, err := LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadTemplates() on missing file should fail")
	}
}

func TestTemplateSet_OverrideAndOrder(t *testing.T) {
	extra := []Template{
		{Name: "Loop", Code: "for i in range(3): print(i)"},
		{Name: "Hello World", Code: "print('custom')"},
	}
	set := NewTemplateSet(BuiltinTemplates(), extra)

	if got := strings.Join(set.Names(), ","); got != "Hello World,Ask Name,Loop" {
		t.Errorf("Names() = %s", got)
	}
	if tmpl, _ := set.Get("Hello World"); tmpl.Code != "print('custom')" {
		t.Errorf("override not applied: %q", tmpl.Code)
	}
}

func TestTemplateSet_AtWraps(t *testing.T) {
	set := NewTemplateSet(BuiltinTemplates(), nil)

	first, _ := set.At(0)
	wrapped, _ := set.At(set.Len())
	if first.Name != wrapped.Name {
		t.Errorf("At(Len()) = %q, want %q", wrapped.Name, first.Name)
	}
	last, _ := set.At(-1)
	if last.Name != "Ask Name" {
		t.Errorf("At(-1) = %q", last.Name)
	}

	if _, ok := NewTemplateSet(nil, nil).At(0); ok {
		t.Error("At() on empty set reported ok")
	}
}
