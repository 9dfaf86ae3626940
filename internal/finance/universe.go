package finance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

const defaultUniverseURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// UniverseSource returns the current set of index-member symbols.
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

// WikipediaUniverse reads the S&P 500 constituents table.
type WikipediaUniverse struct {
	URL    string
	Client *http.Client
}

// NewWikipediaUniverse builds a lookup against url, or the default page when empty.
func NewWikipediaUniverse(url string, client *http.Client) *WikipediaUniverse {
	if url == "" {
		url = defaultUniverseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &WikipediaUniverse{URL: url, Client: client}
}

// Symbols fetches the page and returns the sorted "Symbol" column of its constituents table.
func (w *WikipediaUniverse) Symbols(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; benchbot/1.0)")
	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("universe fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 120))
		return nil, fmt.Errorf("universe returned %d: %s", resp.StatusCode, string(body))
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("universe parse: %w", err)
	}
	syms := parseConstituents(doc)
	if len(syms) == 0 {
		return nil, fmt.Errorf("universe: no symbols found at %s", w.URL)
	}
	return syms, nil
}

// parseConstituents picks the table with id "constituents", or the first table, and
// extracts the column headed "Symbol".
func parseConstituents(doc *html.Node) []string {
	tables := findAll(doc, "table")
	if len(tables) == 0 {
		return nil
	}
	table := tables[0]
	for _, t := range tables {
		if attr(t, "id") == "constituents" {
			table = t
			break
		}
	}

	col := -1
	var out []string
	for _, tr := range findAll(table, "tr") {
		cells := cellsOf(tr)
		if col < 0 {
			for i, c := range cells {
				if c.Data == "th" && strings.EqualFold(textOf(c), "Symbol") {
					col = i
				}
			}
			continue
		}
		if col >= len(cells) {
			continue
		}
		if s := strings.ToUpper(textOf(cells[col])); s != "" {
			out = append(out, s)
		}
	}
	out = NormalizeSymbols(out)
	sort.Strings(out)
	return out
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func cellsOf(tr *html.Node) []*html.Node {
	var out []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			out = append(out, c)
		}
	}
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// StaticUniverse is a fixed universe.
type StaticUniverse []string

func (s StaticUniverse) Symbols(ctx context.Context) ([]string, error) {
	out := NormalizeSymbols(s)
	sort.Strings(out)
	return out, nil
}
