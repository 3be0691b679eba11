package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/sajulotto/service/internal/cache"
)

// Source tags for loader-produced sources. Sources built directly by
// library callers keep the configured default tag instead.
const (
	TagURL  = "url"
	TagFile = "file"
)

// textExtensions lists the file types the directory loader picks up.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// Source is one unit of ingestible text.
type Source struct {
	ID    string `json:"id"`              // URL or file path
	Title string `json:"title,omitempty"` // Human-readable source title
	Text  string `json:"text"`            // Raw text to classify
	Tag   string `json:"tag,omitempty"`   // Origin kind (transcript, file, url)
}

// Validate checks the source invariants before classification.
func (s *Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source: empty id")
	}
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("source %s: empty text", s.ID)
	}
	return nil
}

// SourceLoader resolves ingestion arguments into sources. URLs are
// fetched (with an optional page cache), directories are scanned flat
// for text files, everything else is read as a single file.
type SourceLoader struct {
	fetcher *Fetcher
	pages   cache.Cache // nil disables page caching
}

// NewSourceLoader creates a loader. pages may be nil.
func NewSourceLoader(fetcher *Fetcher, pages cache.Cache) *SourceLoader {
	return &SourceLoader{
		fetcher: fetcher,
		pages:   pages,
	}
}

// Load resolves one argument into its sources. tagOverride, when set,
// replaces the origin-kind tag on every produced source.
func (l *SourceLoader) Load(ctx context.Context, arg, tagOverride string) ([]Source, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		src, err := l.loadURL(ctx, arg, pickTag(tagOverride, TagURL))
		if err != nil {
			return nil, err
		}
		return []Source{src}, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", arg, err)
	}
	if info.IsDir() {
		return l.loadDir(arg, pickTag(tagOverride, TagFile))
	}

	src, err := loadFile(arg, pickTag(tagOverride, TagFile))
	if err != nil {
		return nil, err
	}
	return []Source{src}, nil
}

func (l *SourceLoader) loadURL(ctx context.Context, rawURL, tag string) (Source, error) {
	key := cache.Key("page", rawURL)
	if l.pages != nil {
		if data, found := l.pages.Get(key); found {
			return sourceFromHTML(rawURL, string(data), tag)
		}
	}

	result, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return Source{}, err
	}
	if l.pages != nil {
		_ = l.pages.Set(key, []byte(result.HTML), 0)
	}
	return sourceFromHTML(rawURL, result.HTML, tag)
}

func (l *SourceLoader) loadDir(dir, tag string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir %s: %w", dir, err)
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !textExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		src, err := loadFile(filepath.Join(dir, entry.Name()), tag)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func loadFile(path, tag string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read source file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return sourceFromHTML(path, string(data), tag)
	}

	return Source{
		ID:    path,
		Title: titleFromID(path),
		Text:  string(data),
		Tag:   tag,
	}, nil
}

// sourceFromHTML parses a page and keeps its title and visible text.
func sourceFromHTML(id, content, tag string) (Source, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return Source{}, fmt.Errorf("parse html %s: %w", id, err)
	}

	title := htmlTitle(doc)
	if title == "" {
		title = titleFromID(id)
	}

	return Source{
		ID:    id,
		Title: title,
		Text:  visibleText(doc),
		Tag:   tag,
	}, nil
}

// visibleText collects text nodes from the parse tree. The head subtree
// is skipped (the title already lands in Source.Title), as are script,
// style, noscript and iframe subtrees.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "head", "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}

// htmlTitle returns the text of the first <title> element, if any.
func htmlTitle(n *html.Node) string {
	var title string

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return title
}

// titleFromID derives a readable fallback title from a URL or path.
func titleFromID(id string) string {
	path := id
	if parsed, err := url.Parse(id); err == nil && parsed.Host != "" {
		if strings.Trim(parsed.Path, "/") == "" {
			return parsed.Host
		}
		path = parsed.Path
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := segments[len(segments)-1]

	// De-slugify: underscores and hyphens become spaces
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}

func pickTag(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
