package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cognicore/labelmaker/internal/rss"
	"github.com/cognicore/labelmaker/pkg/labelmaker/ingest"
)

// Hacker News API endpoint
const apiBase = "https://hacker-news.firebaseio.com/v0"

// HNItem represents a Hacker News story or comment
type HNItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type client struct {
	http  *http.Client
	base  string
	delay time.Duration
}

func main() {
	var (
		count   = flag.Int("n", 100, "Number of top stories to download")
		outPath = flag.String("out", "testdata/hn/docs.jsonl", "Output JSONL file")
		delay   = flag.Duration("delay", 50*time.Millisecond, "Pause between item requests")
	)
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*outPath), 0755); err != nil {
		log.Fatal("Failed to create output directory:", err)
	}
	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("Failed to create output file:", err)
	}
	defer out.Close()

	c := &client{
		http:  &http.Client{Timeout: 30 * time.Second},
		base:  apiBase,
		delay: *delay,
	}

	log.Printf("Downloading top %d Hacker News stories...", *count)
	n, err := c.download(context.Background(), *count, out)
	if err != nil {
		log.Fatal("Download failed:", err)
	}
	log.Printf("Downloaded %d stories to %s", n, *outPath)
}

// download writes up to count top stories to w as rss items, one per line
func (c *client) download(ctx context.Context, count int, w io.Writer) (int, error) {
	var ids []int64
	if err := c.getJSON(ctx, c.base+"/topstories.json", &ids); err != nil {
		return 0, fmt.Errorf("top stories: %w", err)
	}
	if count < len(ids) {
		ids = ids[:count]
	}

	enc := json.NewEncoder(w)
	downloaded := 0
	for i, id := range ids {
		var item HNItem
		if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.base, id), &item); err != nil {
			log.Printf("Failed to get item %d: %v", id, err)
			continue
		}

		// Only stories with a title
		if item.Type != "story" || item.Title == "" {
			continue
		}

		if err := enc.Encode(toRSS(item)); err != nil {
			return downloaded, err
		}
		downloaded++

		if (i+1)%10 == 0 {
			log.Printf("Downloaded %d/%d stories...", downloaded, len(ids))
		}
		if c.delay > 0 {
			time.Sleep(c.delay)
		}
	}
	return downloaded, nil
}

func toRSS(item HNItem) rss.Item {
	body := ingest.PlainText(item.Text)
	if item.URL != "" {
		if body != "" {
			body += " "
		}
		body += "[Source: " + item.URL + "]"
	}
	return rss.Item{
		URL:         fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID),
		Title:       item.Title,
		Outlet:      "news.ycombinator.com",
		PublishedAt: time.Unix(item.Time, 0).UTC(),
		Body:        body,
	}
}

func (c *client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
