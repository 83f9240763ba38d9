package extract

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Page is the structured content pulled out of one HTML document.
type Page struct {
	Content  string
	Meta     Meta
	Images   []Image
	Headings []Heading
	Links    []Link
}

var (
	selTitle    = cascadia.MustCompile("head title")
	selMeta     = cascadia.MustCompile("meta[content]")
	selImages   = cascadia.MustCompile("img[src]")
	selHeadings = cascadia.MustCompile("h1, h2, h3, h4, h5, h6")
	selLinks    = cascadia.MustCompile("a[href]")
	selBody     = cascadia.MustCompile("body")
	selNoise    = cascadia.MustCompile("script, style, noscript, template")
)

// ParseHTML extracts readable text, metadata, images, headings and links.
// Content is truncated to maxChars runes (DefaultMaxChars when <= 0).
func ParseHTML(raw string, pageURL *url.URL, maxChars int) (Page, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	page := Page{
		Meta:     parseMeta(doc),
		Images:   parseImages(doc, pageURL),
		Headings: parseHeadings(doc),
		Links:    parseLinks(doc, pageURL),
	}

	// Readability rewrites the tree it is given, so it works on its own parse.
	if article, err := readability.FromReader(strings.NewReader(raw), pageURL); err == nil {
		page.Content = collapseLines(article.TextContent)
		if page.Meta.Author == "" {
			page.Meta.Author = strings.TrimSpace(article.Byline)
		}
	}
	if page.Content == "" {
		page.Content = bodyText(doc)
	}
	page.Content = Truncate(page.Content, maxChars)
	return page, nil
}

// Truncate cuts s to maxChars runes and appends TruncatedMarker when it
// had to cut.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + TruncatedMarker
}

func parseMeta(doc *html.Node) Meta {
	var m Meta
	if n := selTitle.MatchFirst(doc); n != nil {
		m.Title = collapseSpace(nodeText(n))
	}
	for _, n := range selMeta.MatchAll(doc) {
		key := strings.ToLower(attr(n, "name"))
		if key == "" {
			key = strings.ToLower(attr(n, "property"))
		}
		content := strings.TrimSpace(attr(n, "content"))
		switch key {
		case "description":
			m.Description = firstNonEmpty(m.Description, content)
		case "author":
			m.Author = firstNonEmpty(m.Author, content)
		case "og:title":
			m.OGTitle = firstNonEmpty(m.OGTitle, content)
		case "og:description":
			m.OGDescription = firstNonEmpty(m.OGDescription, content)
		case "og:image":
			m.OGImage = firstNonEmpty(m.OGImage, content)
		}
	}
	return m
}

func parseImages(doc *html.Node, base *url.URL) []Image {
	var out []Image
	for _, n := range selImages.MatchAll(doc) {
		if len(out) == MaxImages {
			break
		}
		src, ok := resolve(base, attr(n, "src"))
		if !ok {
			continue
		}
		out = append(out, Image{
			Src:    src,
			Alt:    strings.TrimSpace(attr(n, "alt")),
			Width:  atoi(attr(n, "width")),
			Height: atoi(attr(n, "height")),
		})
	}
	return out
}

func parseHeadings(doc *html.Node) []Heading {
	var out []Heading
	for _, n := range selHeadings.MatchAll(doc) {
		if len(out) == MaxHeadings {
			break
		}
		text := collapseSpace(nodeText(n))
		if text == "" {
			continue
		}
		out = append(out, Heading{Level: int(n.Data[1] - '0'), Text: text})
	}
	return out
}

func parseLinks(doc *html.Node, base *url.URL) []Link {
	seen := make(map[string]bool)
	var out []Link
	for _, n := range selLinks.MatchAll(doc) {
		if len(out) == MaxLinks {
			break
		}
		href, ok := resolve(base, attr(n, "href"))
		if !ok || seen[href] {
			continue
		}
		seen[href] = true
		out = append(out, Link{Href: href, Text: collapseSpace(nodeText(n))})
	}
	return out
}

// resolve makes ref absolute against base and keeps only http(s) targets.
func resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	u = base.ResolveReference(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func bodyText(doc *html.Node) string {
	body := selBody.MatchFirst(doc)
	if body == nil {
		return ""
	}
	for _, n := range selNoise.MatchAll(body) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return collapseSpace(nodeText(body))
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseLines keeps paragraph breaks but squeezes runs of whitespace.
func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = collapseSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
