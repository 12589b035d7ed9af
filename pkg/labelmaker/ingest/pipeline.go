// Package ingest labels documents with a LabelMaker and records the results.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cognicore/labelmaker/pkg/labelmaker"
	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
)

// Labeler is the part of a LabelMaker the pipeline needs
type Labeler interface {
	CategorizeMatch(text string) (labelmaker.Match, bool, error)
}

// Doc is an incoming document. Body may contain HTML.
type Doc struct {
	URL   string
	Title string
	Body  string
}

// Validate checks if the document has required fields
func (d Doc) Validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("doc url: %w", internalerr.ErrInvalidInput)
	}
	return nil
}

// Labeled is the outcome of labeling one document
type Labeled struct {
	URL      string
	Title    string
	Category string
	Pattern  string
	Matched  bool
}

// Report summarizes a batch
type Report struct {
	Total      int
	Labeled    int
	Unlabeled  int
	Failed     int
	Categories map[string]int
}

// Pipeline orchestrates the labeling flow:
// html → plain text → longest-match categorization → store
type Pipeline struct {
	labeler Labeler
	store   store.Store
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStore records every labeled document in st
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithLogger sets the logger used for per-document failures
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates a labeling pipeline around l
func NewPipeline(l Labeler, opts ...Option) *Pipeline {
	p := &Pipeline{
		labeler: l,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Text returns the string that is categorized for d
func Text(d Doc) string {
	body := PlainText(d.Body)
	switch {
	case d.Title == "":
		return body
	case body == "":
		return d.Title
	}
	return d.Title + "\n" + body
}

// Process labels a single document and stores the result if a store is set.
// A document without a match is still recorded, with an empty category.
func (p *Pipeline) Process(ctx context.Context, d Doc) (Labeled, error) {
	if err := d.Validate(); err != nil {
		return Labeled{}, err
	}

	m, ok, err := p.labeler.CategorizeMatch(Text(d))
	if err != nil {
		return Labeled{}, fmt.Errorf("categorize %s: %w", d.URL, err)
	}

	out := Labeled{URL: d.URL, Title: d.Title, Matched: ok}
	if ok {
		out.Category = m.Category
		out.Pattern = m.Pattern
	}

	if p.store != nil {
		err := p.store.UpsertDoc(ctx, store.Doc{
			URL:       out.URL,
			Title:     out.Title,
			Category:  out.Category,
			Pattern:   out.Pattern,
			LabeledAt: p.now(),
		})
		if err != nil {
			return Labeled{}, fmt.Errorf("store %s: %w", d.URL, err)
		}
	}

	return out, nil
}

// ProcessAll labels docs in order. Per-document failures are logged and
// counted; only context cancellation stops the batch early.
func (p *Pipeline) ProcessAll(ctx context.Context, docs []Doc) (Report, error) {
	rep := Report{Categories: make(map[string]int)}

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Total++

		out, err := p.Process(ctx, d)
		if err != nil {
			rep.Failed++
			p.logger.Warn("label failed", "url", d.URL, "error", err)
			continue
		}
		if !out.Matched {
			rep.Unlabeled++
			continue
		}
		rep.Labeled++
		rep.Categories[out.Category]++
	}

	return rep, nil
}
