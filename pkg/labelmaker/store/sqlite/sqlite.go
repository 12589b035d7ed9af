package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDSource
	now func() time.Time

	closed atomic.Bool
}

var errClosed = fmt.Errorf("sqlite store closed: %w", internalerr.ErrStoreUnavailable)

// OpenSQLite opens a SQLite database with WAL mode enabled.
// Foreign keys and the busy timeout are set per connection through the DSN.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:  db,
		ids: store.NewIDSource(),
		now: time.Now,
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS pattern_sets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pattern_sets_name ON pattern_sets(name, id);

CREATE TABLE IF NOT EXISTS pattern_set_entries (
	set_id TEXT NOT NULL,
	pattern TEXT NOT NULL,
	category TEXT NOT NULL,
	PRIMARY KEY(set_id, pattern),
	FOREIGN KEY(set_id) REFERENCES pattern_sets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS docs (
	url TEXT PRIMARY KEY,
	title TEXT,
	category TEXT NOT NULL DEFAULT '',
	pattern TEXT NOT NULL DEFAULT '',
	labeled_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_docs_category ON docs(category);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SavePatternSet stores a snapshot of patterns under name
func (s *sqliteStore) SavePatternSet(ctx context.Context, name string, patterns map[string]string) (store.PatternSet, error) {
	if s.closed.Load() {
		return store.PatternSet{}, errClosed
	}
	if name == "" {
		return store.PatternSet{}, fmt.Errorf("pattern set name: %w", internalerr.ErrInvalidInput)
	}

	now := s.now().UTC()
	set := store.PatternSet{
		ID:        s.ids.New(now),
		Name:      name,
		CreatedAt: now,
		Patterns:  store.CopyPatterns(patterns),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.PatternSet{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pattern_sets (id, name, created_at) VALUES (?, ?, ?)`,
		set.ID, set.Name, set.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return store.PatternSet{}, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pattern_set_entries (set_id, pattern, category) VALUES (?, ?, ?)`)
	if err != nil {
		return store.PatternSet{}, err
	}
	defer stmt.Close()

	for p, c := range set.Patterns {
		if _, err := stmt.ExecContext(ctx, set.ID, p, c); err != nil {
			return store.PatternSet{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return store.PatternSet{}, err
	}
	return set, nil
}

// GetPatternSet returns a pattern set by ID
func (s *sqliteStore) GetPatternSet(ctx context.Context, id string) (store.PatternSet, error) {
	if s.closed.Load() {
		return store.PatternSet{}, errClosed
	}
	var (
		set     store.PatternSet
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM pattern_sets WHERE id=?`, id,
	).Scan(&set.ID, &set.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PatternSet{}, fmt.Errorf("pattern set %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.PatternSet{}, err
	}

	set.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.PatternSet{}, fmt.Errorf("pattern set %s created_at: %w", id, err)
	}

	set.Patterns, err = s.loadEntries(ctx, id)
	if err != nil {
		return store.PatternSet{}, err
	}
	return set, nil
}

// LatestPatternSet returns the most recently saved set with the given name
func (s *sqliteStore) LatestPatternSet(ctx context.Context, name string) (store.PatternSet, bool, error) {
	if s.closed.Load() {
		return store.PatternSet{}, false, errClosed
	}
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM pattern_sets WHERE name=? ORDER BY id DESC LIMIT 1`, name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PatternSet{}, false, nil
	}
	if err != nil {
		return store.PatternSet{}, false, err
	}

	set, err := s.GetPatternSet(ctx, id)
	if err != nil {
		return store.PatternSet{}, false, err
	}
	return set, true, nil
}

// ListPatternSets returns all sets, oldest first
func (s *sqliteStore) ListPatternSets(ctx context.Context) ([]store.PatternSetInfo, error) {
	if s.closed.Load() {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT ps.id, ps.name, ps.created_at, COUNT(e.pattern)
FROM pattern_sets ps
LEFT JOIN pattern_set_entries e ON e.set_id = ps.id
GROUP BY ps.id
ORDER BY ps.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []store.PatternSetInfo
	for rows.Next() {
		var (
			info    store.PatternSetInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.Name, &created, &info.Size); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("pattern set %s created_at: %w", info.ID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// UpsertDoc inserts or updates a document
func (s *sqliteStore) UpsertDoc(ctx context.Context, d store.Doc) error {
	if s.closed.Load() {
		return errClosed
	}
	if d.URL == "" {
		return fmt.Errorf("doc url: %w", internalerr.ErrInvalidInput)
	}
	if d.LabeledAt.IsZero() {
		d.LabeledAt = s.now()
	}

	const stmt = `
INSERT INTO docs (url, title, category, pattern, labeled_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	title=excluded.title,
	category=excluded.category,
	pattern=excluded.pattern,
	labeled_at=excluded.labeled_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		d.URL,
		d.Title,
		d.Category,
		d.Pattern,
		d.LabeledAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetDocByURL returns a document by URL
func (s *sqliteStore) GetDocByURL(ctx context.Context, url string) (store.Doc, bool, error) {
	if s.closed.Load() {
		return store.Doc{}, false, errClosed
	}
	var (
		d       store.Doc
		title   sql.NullString
		labeled string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, title, category, pattern, labeled_at FROM docs WHERE url=?`, url,
	).Scan(&d.URL, &title, &d.Category, &d.Pattern, &labeled)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, false, nil
	}
	if err != nil {
		return store.Doc{}, false, err
	}

	d.Title = title.String
	if d.LabeledAt, err = time.Parse(time.RFC3339Nano, labeled); err != nil {
		return store.Doc{}, false, fmt.Errorf("doc %s labeled_at: %w", url, err)
	}
	return d, true, nil
}

// CategoryCounts returns the number of documents per category
func (s *sqliteStore) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	if s.closed.Load() {
		return nil, errClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM docs GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			cat string
			n   int64
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

func (s *sqliteStore) loadEntries(ctx context.Context, id string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern, category FROM pattern_set_entries WHERE set_id=?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patterns := make(map[string]string)
	for rows.Next() {
		var p, c string
		if err := rows.Scan(&p, &c); err != nil {
			return nil, err
		}
		patterns[p] = c
	}
	return patterns, rows.Err()
}
