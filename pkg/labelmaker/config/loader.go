package config

import (
	"fmt"

	"github.com/cognicore/labelmaker/pkg/labelmaker"
)

// Loader loads pattern sources and builds a ready LabelMaker
type Loader struct {
	PatternsPath string
	DictPath     string

	// Options are the base matching options. Options set in the pattern
	// file are added on top.
	Options labelmaker.Options
}

// Components holds the loaded pattern set and the LabelMaker built from it
type Components struct {
	LabelMaker *labelmaker.LabelMaker
	Patterns   map[string]string
	Options    labelmaker.Options
}

// Load reads the configured files and returns a finalized LabelMaker.
// YAML entries are inserted before dictionary entries, so the dictionary
// wins when both label the same pattern (unless RejectConflicts is set).
func (l *Loader) Load() (*Components, error) {
	opts := l.Options
	var entries []Entry

	// Load pattern file
	if l.PatternsPath != "" {
		pf, err := LoadPatterns(l.PatternsPath)
		if err != nil {
			return nil, fmt.Errorf("load patterns: %w", err)
		}
		opts.FoldCase = opts.FoldCase || pf.Options.FoldCase
		opts.RejectConflicts = opts.RejectConflicts || pf.Options.RejectConflicts
		entries = append(entries, pf.Entries()...)
	}

	// Load dictionary
	if l.DictPath != "" {
		dict, err := LoadDict(l.DictPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		entries = append(entries, dict.Flatten()...)
	}

	lm := labelmaker.New(opts)
	for _, e := range entries {
		if err := lm.Insert(e.Pattern, e.Category); err != nil {
			return nil, fmt.Errorf("insert %q → %q: %w", e.Pattern, e.Category, err)
		}
	}
	if err := lm.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	return &Components{
		LabelMaker: lm,
		Patterns:   lm.Patterns(),
		Options:    opts,
	}, nil
}
