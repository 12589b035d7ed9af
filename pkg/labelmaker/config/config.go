package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
)

// PatternFile represents a YAML pattern file
type PatternFile struct {
	Options    FileOptions         `yaml:"options"`
	Patterns   map[string]string   `yaml:"patterns"`   // pattern → category
	Categories map[string][]string `yaml:"categories"` // category → patterns
}

// FileOptions holds matching options that a pattern file may turn on
type FileOptions struct {
	FoldCase        bool `yaml:"fold_case"`
	RejectConflicts bool `yaml:"reject_conflicts"`
}

// Entry is a single pattern → category pair
type Entry struct {
	Pattern  string
	Category string
}

// LoadPatterns loads a pattern file from YAML
//
// Expected format:
//
//	options:
//	  fold_case: true
//	patterns:
//	  rawr: Sad Noise
//	categories:
//	  Therapod: [Tyrannosaurus rex, Velociraptor]
func LoadPatterns(path string) (*PatternFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pf PatternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for cat := range pf.Categories {
		if strings.TrimSpace(cat) == "" {
			return nil, fmt.Errorf("%s: empty category name: %w", path, internalerr.ErrInvalidConfig)
		}
	}

	return &pf, nil
}

// Entries flattens the file in a deterministic order: the categories
// section first (sorted by category), then the patterns section (sorted by
// pattern). A pattern listed in both ends up with its patterns-section label.
func (pf *PatternFile) Entries() []Entry {
	var entries []Entry

	cats := make([]string, 0, len(pf.Categories))
	for cat := range pf.Categories {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		for _, p := range pf.Categories[cat] {
			entries = append(entries, Entry{Pattern: p, Category: cat})
		}
	}

	patterns := make([]string, 0, len(pf.Patterns))
	for p := range pf.Patterns {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	for _, p := range patterns {
		entries = append(entries, Entry{Pattern: p, Category: pf.Patterns[p]})
	}

	return entries
}

// Dict represents a pipe-delimited pattern dictionary
type Dict struct {
	Entries []DictEntry
}

// DictEntry maps one or more patterns to a category
type DictEntry struct {
	Patterns []string
	Category string
}

// LoadDict loads a pattern dictionary from a file
// Format: pattern1|pattern2|...|category
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict := &Dict{Entries: []DictEntry{}}
	lines := strings.Split(string(data), "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}

		// Trim all parts
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		dict.Entries = append(dict.Entries, DictEntry{
			Patterns: parts[:len(parts)-1],
			Category: parts[len(parts)-1],
		})
	}

	return dict, nil
}

// Flatten returns the dictionary as pattern → category pairs in file order
func (d *Dict) Flatten() []Entry {
	var entries []Entry
	for _, e := range d.Entries {
		for _, p := range e.Patterns {
			entries = append(entries, Entry{Pattern: p, Category: e.Category})
		}
	}
	return entries
}
