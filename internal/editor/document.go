package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoPath is returned by Save when the document has never been named.
var ErrNoPath = errors.New("document has no file name")

// Document tracks the file behind the editor buffer.
type Document struct {
	Path  string
	saved string
}

// NewDocument returns an unnamed, empty document.
func NewDocument() *Document {
	return &Document{}
}

// Open reads path into a new document.
func Open(path string) (*Document, string, error) {
	text, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return &Document{Path: path, saved: text}, text, nil
}

// Name returns the file's base name, or "untitled".
func (d *Document) Name() string {
	if d.Path == "" {
		return "untitled"
	}
	return filepath.Base(d.Path)
}

// Modified reports whether text differs from what was last loaded or saved.
func (d *Document) Modified(text string) bool {
	return text != d.saved
}

// Save writes text to the document's path.
func (d *Document) Save(text string) error {
	if d.Path == "" {
		return ErrNoPath
	}
	if err := Save(d.Path, text); err != nil {
		return err
	}
	d.saved = text
	return nil
}

// SaveAs names the document and saves it.
func (d *Document) SaveAs(path, text string) error {
	if err := Save(path, text); err != nil {
		return err
	}
	d.Path = path
	d.saved = text
	return nil
}

// Load reads a UTF-8 source file.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	return string(data), nil
}

// Save writes text to path, replacing any existing file.
func Save(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
