// Package maintenance keeps stored labels in step with the current pattern set.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/cognicore/labelmaker/pkg/labelmaker/ingest"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
)

// DocSource abstracts how we iterate documents for relabeling.
type DocSource interface {
	Next(ctx context.Context) (ingest.Doc, bool, error)
}

// SliceSource serves docs from memory
type SliceSource struct {
	docs []ingest.Doc
	pos  int
}

// NewSliceSource creates a source over docs
func NewSliceSource(docs []ingest.Doc) *SliceSource {
	return &SliceSource{docs: docs}
}

// Next implements DocSource
func (s *SliceSource) Next(ctx context.Context) (ingest.Doc, bool, error) {
	if err := ctx.Err(); err != nil {
		return ingest.Doc{}, false, err
	}
	if s.pos >= len(s.docs) {
		return ingest.Doc{}, false, nil
	}
	d := s.docs[s.pos]
	s.pos++
	return d, true, nil
}

// Relabeler re-runs documents through a labeler after the pattern set
// changes and rewrites the stored label where it differs.
type Relabeler struct {
	Store   store.Store
	Labeler ingest.Labeler
	Source  DocSource
}

// Result summarizes the relabeling run.
type Result struct {
	Processed int
	Updated   int
	Errors    int
}

// Relabel replays docs from the source. Docs the store has never seen are
// added. A source error ends the run.
func (r *Relabeler) Relabel(ctx context.Context) (Result, error) {
	var res Result
	if r.Store == nil || r.Labeler == nil || r.Source == nil {
		return res, errors.New("relabeler: invalid configuration")
	}

	// no store: labels are compared here, not written by the pipeline
	pipeline := ingest.NewPipeline(r.Labeler)

	for {
		d, ok, err := r.Source.Next(ctx)
		if err != nil {
			return res, fmt.Errorf("next doc: %w", err)
		}
		if !ok {
			break
		}
		res.Processed++

		out, err := pipeline.Process(ctx, d)
		if err != nil {
			res.Errors++
			continue
		}

		prev, found, err := r.Store.GetDocByURL(ctx, d.URL)
		if err != nil {
			res.Errors++
			continue
		}
		if found && prev.Category == out.Category && prev.Pattern == out.Pattern {
			continue
		}

		err = r.Store.UpsertDoc(ctx, store.Doc{
			URL:      out.URL,
			Title:    out.Title,
			Category: out.Category,
			Pattern:  out.Pattern,
		})
		if err != nil {
			res.Errors++
			continue
		}
		res.Updated++
	}
	return res, nil
}
