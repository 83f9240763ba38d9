package extract

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
)

const articleHTML = `<!doctype html>
<html><head>
<title>  Structured Concurrency in Go </title>
<meta name="description" content="How errgroup works.">
<meta name="author" content="Ada">
<meta property="og:title" content="Structured Concurrency">
<meta property="og:image" content="https://cdn.example.com/og.png">
<script>var tracking = 1;</script>
</head><body>
<nav><a href="/">Home</a> <a href="#top">Top</a> <a href="mailto:x@y.z">Mail</a></nav>
<article>
<h1>Structured Concurrency</h1>
<img src="/img/diagram.png" alt="diagram" width="640" height="480">
<p>Goroutines are cheap, but leaking them is not. The errgroup package ties the lifetime of a group of goroutines to a context so that the first failure cancels the rest.</p>
<h2>Waiting</h2>
<p>Wait blocks until every goroutine in the group has returned and reports the first non-nil error. This makes fan-out code easy to read and hard to get wrong.</p>
<p>See <a href="https://pkg.go.dev/golang.org/x/sync/errgroup">the docs</a> and <a href="/posts/context">our context post</a>.</p>
</article>
</body></html>`

func TestParseHTML(t *testing.T) {
	base, _ := url.Parse("https://blog.example.com/posts/errgroup")
	page, err := ParseHTML(articleHTML, base, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if page.Meta.Title != "Structured Concurrency in Go" || page.Meta.Description != "How errgroup works." {
		t.Fatalf("unexpected meta: %+v", page.Meta)
	}
	if page.Meta.Author != "Ada" || page.Meta.OGTitle != "Structured Concurrency" || page.Meta.OGImage == "" {
		t.Fatalf("unexpected meta: %+v", page.Meta)
	}
	if !strings.Contains(page.Content, "errgroup package ties the lifetime") {
		t.Fatalf("article text missing: %q", page.Content)
	}
	if strings.Contains(page.Content, "tracking") {
		t.Fatalf("script text leaked into content")
	}
	if len(page.Images) != 1 || page.Images[0].Src != "https://blog.example.com/img/diagram.png" || page.Images[0].Width != 640 {
		t.Fatalf("unexpected images: %+v", page.Images)
	}
	if len(page.Headings) != 2 || page.Headings[0] != (Heading{Level: 1, Text: "Structured Concurrency"}) || page.Headings[1].Level != 2 {
		t.Fatalf("unexpected headings: %+v", page.Headings)
	}
	var hrefs []string
	for _, l := range page.Links {
		hrefs = append(hrefs, l.Href)
	}
	want := []string{"https://blog.example.com/", "https://pkg.go.dev/golang.org/x/sync/errgroup", "https://blog.example.com/posts/context"}
	if strings.Join(hrefs, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected links: %v", hrefs)
	}
}

func TestParseHTML_Limits(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `<h3>Section %d</h3><img src="/i%d.png"><a href="/p%d">p%d</a><p>text</p>`, i, i, i, i)
	}
	b.WriteString("</body></html>")

	base, _ := url.Parse("https://example.com/")
	page, err := ParseHTML(b.String(), base, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(page.Images) != MaxImages || len(page.Headings) != MaxHeadings || len(page.Links) != MaxLinks {
		t.Fatalf("limits not applied: %d images, %d headings, %d links", len(page.Images), len(page.Headings), len(page.Links))
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	got := Truncate(strings.Repeat("é", 20), 5)
	if got != strings.Repeat("é", 5)+TruncatedMarker {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestParseHTML_TruncatesContent(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("word ", 100) + "</p></body></html>"
	page, err := ParseHTML(body, nil, 50)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasSuffix(page.Content, TruncatedMarker) {
		t.Fatalf("expected truncation marker: %q", page.Content)
	}
	if n := len([]rune(strings.TrimSuffix(page.Content, TruncatedMarker))); n != 50 {
		t.Fatalf("expected 50 runes before marker, got %d", n)
	}
}
