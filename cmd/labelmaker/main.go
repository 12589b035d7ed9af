package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/cognicore/labelmaker/internal/rss"
	"github.com/cognicore/labelmaker/pkg/labelmaker"
	"github.com/cognicore/labelmaker/pkg/labelmaker/config"
	"github.com/cognicore/labelmaker/pkg/labelmaker/ingest"
	"github.com/cognicore/labelmaker/pkg/labelmaker/maintenance"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store/sqlite"
)

type source struct {
	patternsPath string
	dictPath     string
	setName      string
	opts         labelmaker.Options
}

func main() {
	var (
		patternsPath = flag.String("patterns", "", "YAML pattern file")
		dictPath     = flag.String("dict", "", "Pipe-separated dictionary file")
		text         = flag.String("text", "", "Text to categorize")
		dataPath     = flag.String("data", "", "Input JSONL file to label")
		dbPath       = flag.String("db", "", "SQLite database for pattern sets and labeled docs")
		setName      = flag.String("set-name", "default", "Pattern set name in the database")
		foldCase     = flag.Bool("fold-case", false, "Match case-insensitively")
		explain      = flag.Bool("explain", false, "Print the winning match and every occurrence")
		relabel      = flag.Bool("relabel", false, "With --data and --db, only rewrite docs whose label changed")
	)
	flag.Parse()

	if *text == "" && *dataPath == "" {
		log.Fatal("--text or --data required")
	}

	if *relabel && (*dataPath == "" || *dbPath == "") {
		log.Fatal("--relabel needs --data and --db")
	}

	ctx := context.Background()

	var st store.Store
	if *dbPath != "" {
		var err error
		st, err = sqlite.OpenSQLite(ctx, *dbPath)
		if err != nil {
			log.Fatal("Failed to open database:", err)
		}
		defer st.Close()
	}

	lm, err := buildLabeler(ctx, source{
		patternsPath: *patternsPath,
		dictPath:     *dictPath,
		setName:      *setName,
		opts:         labelmaker.Options{FoldCase: *foldCase},
	}, st)
	if err != nil {
		log.Fatal("Failed to build labeler:", err)
	}

	stats := lm.Stats()
	log.Printf("Loaded %d patterns in %d categories", stats.Patterns, stats.Categories)

	if *text != "" {
		if err := categorize(os.Stdout, lm, *text, *explain); err != nil {
			log.Fatal(err)
		}
	}

	if *dataPath != "" {
		items, err := rss.LoadFromJSONL(*dataPath)
		if err != nil {
			log.Fatal("Failed to load data:", err)
		}

		docs := make([]ingest.Doc, 0, len(items))
		for _, item := range items {
			docs = append(docs, ingest.Doc{URL: item.URL, Title: item.Title, Body: item.Body})
		}

		if *relabel {
			r := maintenance.Relabeler{Store: st, Labeler: lm, Source: maintenance.NewSliceSource(docs)}
			res, err := r.Relabel(ctx)
			if err != nil {
				log.Fatal("Relabeling failed:", err)
			}
			fmt.Printf("Relabeled %d docs: %d updated, %d errors\n", res.Processed, res.Updated, res.Errors)
			return
		}

		var opts []ingest.Option
		if st != nil {
			opts = append(opts, ingest.WithStore(st))
		}
		rep, err := ingest.NewPipeline(lm, opts...).ProcessAll(ctx, docs)
		if err != nil {
			log.Fatal("Labeling failed:", err)
		}
		printReport(os.Stdout, rep)
	}
}

// buildLabeler loads patterns from files when any are given and records
// them as a new pattern set in st. Without files it rebuilds the latest
// set named src.setName from st.
func buildLabeler(ctx context.Context, src source, st store.Store) (*labelmaker.LabelMaker, error) {
	if src.patternsPath != "" || src.dictPath != "" {
		loader := config.Loader{
			PatternsPath: src.patternsPath,
			DictPath:     src.dictPath,
			Options:      src.opts,
		}
		comps, err := loader.Load()
		if err != nil {
			return nil, err
		}

		if st != nil {
			set, err := st.SavePatternSet(ctx, src.setName, comps.Patterns)
			if err != nil {
				return nil, fmt.Errorf("save pattern set: %w", err)
			}
			log.Printf("Saved pattern set %s (%s)", set.Name, set.ID)
		}
		return comps.LabelMaker, nil
	}

	if st == nil {
		return nil, errors.New("no patterns: need --patterns, --dict or --db")
	}

	set, found, err := st.LatestPatternSet(ctx, src.setName)
	if err != nil {
		return nil, fmt.Errorf("load pattern set: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("pattern set %q: %w", src.setName, labelmaker.ErrNotFound)
	}
	return labelmaker.BuildWithOptions(set.Patterns, src.opts)
}

func categorize(w io.Writer, lm *labelmaker.LabelMaker, text string, explain bool) error {
	m, ok, err := lm.CategorizeMatch(text)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "(none)")
		return nil
	}
	fmt.Fprintln(w, m.Category)

	if !explain {
		return nil
	}
	fmt.Fprintf(w, "  winner: %q at [%d,%d) length %d\n", m.Pattern, m.Start, m.End, m.Length)

	all, err := lm.Matches(text)
	if err != nil {
		return err
	}
	for _, o := range all {
		fmt.Fprintf(w, "  match:  %q → %s at [%d,%d)\n", o.Pattern, o.Category, o.Start, o.End)
	}
	return nil
}

func printReport(w io.Writer, rep ingest.Report) {
	fmt.Fprintf(w, "Processed %d docs: %d labeled, %d unlabeled, %d failed\n",
		rep.Total, rep.Labeled, rep.Unlabeled, rep.Failed)

	cats := make([]string, 0, len(rep.Categories))
	for c := range rep.Categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if rep.Categories[cats[i]] != rep.Categories[cats[j]] {
			return rep.Categories[cats[i]] > rep.Categories[cats[j]]
		}
		return cats[i] < cats[j]
	})
	for _, c := range cats {
		fmt.Fprintf(w, "  %-24s %d\n", c, rep.Categories[c])
	}
}
