package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDocument_SaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.py")

	doc := NewDocument()
	if doc.Name() != "untitled" {
		t.Errorf("Name() = %q, want untitled", doc.Name())
	}
	if err := doc.Save("print(1)\n"); !errors.Is(err, ErrNoPath) {
		t.Errorf("Save() unnamed error = %v, want ErrNoPath", err)
	}

	if err := doc.SaveAs(path, "print(1)\n"); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	if doc.Name() != "hello.py" {
		t.Errorf("Name() = %q", doc.Name())
	}
	if doc.Modified("print(1)\n") {
		t.Error("Modified() true right after save")
	}
	if !doc.Modified("print(2)\n") {
		t.Error("Modified() false for changed text")
	}

	opened, text, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if text != "print(1)\n" || opened.Path != path {
		t.Errorf("Open() = %q at %q", text, opened.Path)
	}
	if opened.Modified(text) {
		t.Error("freshly opened document reports modified")
	}
}

func TestDocument_SaveUpdatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, _, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := doc.Save("new"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("file = %q, want new", data)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.py"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want ErrNotExist", err)
	}
}
