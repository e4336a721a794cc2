package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	fetchTimeout   = 15 * time.Second
	maxPageSize    = 2 << 20
	fetchUserAgent = "workmatch/1.0"
)

// JobPage is the text content of a fetched posting page.
type JobPage struct {
	Title string
	Text  string
}

// FetchJobPage downloads a posting page and extracts its title and visible
// text.
func FetchJobPage(ctx context.Context, client *http.Client, url string) (JobPage, error) {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JobPage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return JobPage{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobPage{}, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	return ParseJobPage(io.LimitReader(resp.Body, maxPageSize))
}

// ParseJobPage extracts the document title and visible text from HTML.
// Script and style contents are skipped.
func ParseJobPage(r io.Reader) (JobPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return JobPage{}, fmt.Errorf("parsing html: %w", err)
	}

	var page JobPage
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Text = strings.Join(parts, "\n")
	return page, nil
}
