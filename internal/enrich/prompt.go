package enrich

import (
	"fmt"
	"strings"

	"github.com/mhismail3/moosetabs/internal/extract"
)

const systemPrompt = `You analyze a set of the user's open browser tabs.
Each tab is given as a section with its extraction status and, when available, its page content.
Follow the per-tab instructions exactly. Answer every requested action in order, using markdown headings.
Cite tabs by their number and title. Do not invent content for tabs you could not read.`

const (
	instructionSkip   = "Skip this tab. It is a browser page with no web content; do not search for it or guess its content."
	instructionSearch = "The content could not be extracted. Web-search this URL to learn what the page contains."
	instructionLimit  = "The browser does not allow reading this page. Use only its title and URL."
	instructionNone   = "No content is available. Use only its title and URL."
)

func statusLine(r extract.Result) (status, instruction string) {
	switch r.Category() {
	case extract.CategorySuccess:
		return "content extracted", ""
	case extract.CategoryBrowserInternal:
		return "browser-internal page", instructionSkip
	case extract.CategorySearchable:
		return "extraction failed, searchable", instructionSearch
	case extract.CategoryRestricted:
		return "restricted page", instructionLimit
	default:
		return "unavailable", instructionNone
	}
}

func buildPrompt(results []extract.Result, actions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tabs (%d)\n\n", len(results))
	for i, r := range results {
		status, instruction := statusLine(r)
		fmt.Fprintf(&b, "## Tab %d: %s\n", i+1, titleOf(r))
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		fmt.Fprintf(&b, "Status: %s\n", status)
		if instruction != "" {
			fmt.Fprintf(&b, "Instruction: %s\n", instruction)
		}
		if r.Success {
			writeContent(&b, r)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Requested actions\n\n")
	for i, a := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(a))
	}
	return b.String()
}

func writeContent(b *strings.Builder, r extract.Result) {
	if d := firstNonEmpty(r.Meta.Description, r.Meta.OGDescription); d != "" {
		fmt.Fprintf(b, "Description: %s\n", d)
	}
	if r.Meta.Author != "" {
		fmt.Fprintf(b, "Author: %s\n", r.Meta.Author)
	}
	if len(r.Headings) > 0 {
		heads := make([]string, 0, len(r.Headings))
		for _, h := range r.Headings {
			heads = append(heads, h.Text)
		}
		fmt.Fprintf(b, "Headings: %s\n", strings.Join(heads, " | "))
	}
	b.WriteString("\nContent:\n")
	b.WriteString(r.Content)
	b.WriteString("\n")
}

func titleOf(r extract.Result) string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	if r.Meta.Title != "" {
		return r.Meta.Title
	}
	return "(untitled)"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
