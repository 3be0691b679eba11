package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/sajulotto/service/internal/cache"
)

func TestSource_Validate(t *testing.T) {
	src := Source{ID: "a.txt", Text: "some text"}
	if err := src.Validate(); err != nil {
		t.Errorf("Expected valid source, got %v", err)
	}

	src = Source{Text: "some text"}
	if err := src.Validate(); err == nil {
		t.Error("Expected error for empty id")
	}

	src = Source{ID: "a.txt", Text: "   "}
	if err := src.Validate(); err == nil {
		t.Error("Expected error for blank text")
	}
}

func TestSourceLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saju_notes.txt")
	content := "갑목 일주는 왕성한 기운과 성격 특징이 있습니다."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewSourceLoader(NewFetcher(testHTTPConfig(), nil, nil), nil)
	sources, err := loader.Load(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}

	src := sources[0]
	if src.ID != path {
		t.Errorf("Expected ID %s, got %s", path, src.ID)
	}
	if src.Text != content {
		t.Errorf("Unexpected text: %s", src.Text)
	}
	if src.Title != "saju notes" {
		t.Errorf("Expected de-slugified title, got %q", src.Title)
	}
	if src.Tag != TagFile {
		t.Errorf("Expected tag %s, got %s", TagFile, src.Tag)
	}
}

func TestSourceLoader_TagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("내용이 충분히 긴 텍스트입니다."), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewSourceLoader(NewFetcher(testHTTPConfig(), nil, nil), nil)
	sources, err := loader.Load(context.Background(), path, "transcript")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sources[0].Tag != "transcript" {
		t.Errorf("Expected override tag, got %s", sources[0].Tag)
	}
}

func TestSourceLoader_LoadDirPicksTextFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":  "첫번째 파일의 본문 내용입니다.",
		"b.md":   "두번째 파일의 본문 내용입니다.",
		"c.html": "<html><head><title>해설 페이지</title></head><body><p>본문 문장</p><script>var x = 1;</script></body></html>",
		"d.csv":  "1,2,3",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	loader := NewSourceLoader(NewFetcher(testHTTPConfig(), nil, nil), nil)
	sources, err := loader.Load(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources (csv and subdir skipped), got %d", len(sources))
	}

	byName := make(map[string]Source, len(sources))
	for _, src := range sources {
		byName[filepath.Base(src.ID)] = src
	}

	if byName["c.html"].Title != "해설 페이지" {
		t.Errorf("Expected html title, got %q", byName["c.html"].Title)
	}
	if byName["c.html"].Text != "본문 문장" {
		t.Errorf("Expected script-free text, got %q", byName["c.html"].Text)
	}
	if byName["a.txt"].Text != files["a.txt"] {
		t.Errorf("Unexpected text for a.txt: %q", byName["a.txt"].Text)
	}
}

func TestSourceLoader_LoadURLUsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "<html><head><title>원격 해설</title></head><body>원격 본문</body></html>")
	}))
	defer server.Close()

	pages := cache.NewMemoryCache(time.Minute, time.Minute)
	loader := NewSourceLoader(NewFetcher(testHTTPConfig(), nil, nil), pages)

	first, err := loader.Load(context.Background(), server.URL+"/page", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := loader.Load(context.Background(), server.URL+"/page", "")
	if err != nil {
		t.Fatalf("Expected no error on cached load, got %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("Expected 1 server hit, got %d", hits.Load())
	}
	if first[0].Title != "원격 해설" || second[0].Title != first[0].Title {
		t.Errorf("Expected identical titles, got %q and %q", first[0].Title, second[0].Title)
	}
	if first[0].Tag != TagURL {
		t.Errorf("Expected tag %s, got %s", TagURL, first[0].Tag)
	}
}

func TestSourceLoader_MissingPath(t *testing.T) {
	loader := NewSourceLoader(NewFetcher(testHTTPConfig(), nil, nil), nil)
	_, err := loader.Load(context.Background(), "/nonexistent/path.txt", "")
	if err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestVisibleText_SkipsScriptAndStyle(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		"<html><body><p>one</p><style>.x{color:red}</style><p>two</p><noscript>no</noscript></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if got := visibleText(doc); got != "one two" {
		t.Errorf("Expected %q, got %q", "one two", got)
	}
}

func TestTitleFromID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"https://example.com/wiki/사주_분석", "사주 분석"},
		{"https://example.com/", "example.com"},
		{"notes/draw-history.csv", "draw history"},
		{"transcript_2024.txt", "transcript 2024"},
	}
	for _, tt := range tests {
		if got := titleFromID(tt.id); got != tt.want {
			t.Errorf("titleFromID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
