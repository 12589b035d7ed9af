package rss

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// maxLine bounds a single JSONL record.
const maxLine = 4 << 20

// Item represents a simplified RSS/news item
type Item struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Outlet      string    `json:"outlet"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"text"`
}

// LoadFromJSONL loads items from a JSONL file
func LoadFromJSONL(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items, err := ReadJSONL(f, slog.Default().With("file", path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return items, nil
}

// ReadJSONL decodes one item per line. Blank lines are ignored, malformed
// lines are logged and skipped. Finding no item at all is an error.
func ReadJSONL(r io.Reader, logger *slog.Logger) ([]Item, error) {
	var items []Item

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			logger.Warn("skipping malformed item", "line", n, "error", err)
			continue
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items found")
	}

	return items, nil
}
