package editor

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template is a named code snippet that replaces the buffer when loaded.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Code        string `yaml:"code"`
}

// templateFile is the on-disk layout of a template library:
//
//	templates:
//	  - name: Loop
//	    description: Count to five
//	    code: |
//	      for i in range(5):
//	          print(i)
type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// BuiltinTemplates returns the snippets every editor starts with.
func BuiltinTemplates() []Template {
	return []Template{
		{
			Name:        "Hello World",
			Description: "Print a greeting",
			Code:        "print(\"Hello, World!\")\n",
		},
		{
			Name:        "Ask Name",
			Description: "Read a line of input and answer it",
			Code:        "name = input(\"What is your name? \")\nprint(\"Hello, \" + name + \"!\")\n",
		},
	}
}

// LoadTemplates reads a YAML template library.
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes a YAML template library and validates each entry.
func ParseTemplates(data []byte) ([]Template, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	var errs []error
	seen := make(map[string]bool)
	for i, t := range f.Templates {
		switch {
		case t.Name == "":
			errs = append(errs, fmt.Errorf("template %d: missing name", i+1))
		case t.Code == "":
			errs = append(errs, fmt.Errorf("template %q: missing code", t.Name))
		case seen[t.Name]:
			errs = append(errs, fmt.Errorf("template %q: duplicate name", t.Name))
		}
		seen[t.Name] = true
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return f.Templates, nil
}

// TemplateSet is an ordered collection of templates.
type TemplateSet struct {
	items []Template
}

// NewTemplateSet builds a set from base, then extra. An extra template with
// the same name as a base one replaces it in place.
func NewTemplateSet(base, extra []Template) *TemplateSet {
	s := &TemplateSet{}
	index := make(map[string]int)
	for _, group := range [][]Template{base, extra} {
		for _, t := range group {
			if i, ok := index[t.Name]; ok {
				s.items[i] = t
				continue
			}
			index[t.Name] = len(s.items)
			s.items = append(s.items, t)
		}
	}
	return s
}

// Len returns the number of templates.
func (s *TemplateSet) Len() int {
	return len(s.items)
}

// At returns the i-th template, wrapping around.
func (s *TemplateSet) At(i int) (Template, bool) {
	if len(s.items) == 0 {
		return Template{}, false
	}
	i %= len(s.items)
	if i < 0 {
		i += len(s.items)
	}
	return s.items[i], true
}

// Get looks a template up by name.
func (s *TemplateSet) Get(name string) (Template, bool) {
	for _, t := range s.items {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// Names returns template names in order.
func (s *TemplateSet) Names() []string {
	names := make([]string, len(s.items))
	for i, t := range s.items {
		names[i] = t.Name
	}
	return names
}
