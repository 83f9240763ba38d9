// Package extract reads page content for the enriched flow. Every tab yields
// a Result; failures are recorded on the Result, never returned.
package extract

// Meta is the page metadata block.
type Meta struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Author        string `json:"author,omitempty"`
	OGTitle       string `json:"ogTitle,omitempty"`
	OGDescription string `json:"ogDescription,omitempty"`
	OGImage       string `json:"ogImage,omitempty"`
}

type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type Link struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

const (
	MaxImages   = 10
	MaxHeadings = 20
	MaxLinks    = 30

	DefaultMaxChars = 15000
	TruncatedMarker = "\n\n[Content truncated...]"
)

// Result is the outcome of extracting one tab. URL and Title always come from
// the tab snapshot.
type Result struct {
	TabID    int       `json:"tabId"`
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Success  bool      `json:"success"`
	Content  string    `json:"content,omitempty"`
	Meta     Meta      `json:"meta"`
	Images   []Image   `json:"images,omitempty"`
	Headings []Heading `json:"headings,omitempty"`
	Links    []Link    `json:"links,omitempty"`

	// Restricted marks a web page the host refuses to let us read.
	Restricted bool `json:"restricted,omitempty"`
	// BrowserInternal marks a page with no web equivalent.
	BrowserInternal bool `json:"browserInternal,omitempty"`
	// Searchable marks a web URL whose extraction failed; the model may look
	// it up itself.
	Searchable bool   `json:"searchable,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Category is the single authoritative status of a Result.
type Category string

const (
	CategorySuccess         Category = "success"
	CategoryRestricted      Category = "restricted"
	CategoryBrowserInternal Category = "browser_internal"
	CategorySearchable      Category = "searchable"
	CategoryFailed          Category = "failed"
)

func (r Result) Category() Category {
	switch {
	case r.Success:
		return CategorySuccess
	case r.BrowserInternal:
		return CategoryBrowserInternal
	case r.Restricted:
		return CategoryRestricted
	case r.Searchable:
		return CategorySearchable
	default:
		return CategoryFailed
	}
}

// Summary counts results per category.
type Summary struct {
	Total           int `json:"total"`
	Successful      int `json:"successful"`
	Restricted      int `json:"restricted"`
	BrowserInternal int `json:"browserInternal"`
	Searchable      int `json:"searchable"`
	Failed          int `json:"failed"`
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Category() {
		case CategorySuccess:
			s.Successful++
		case CategoryRestricted:
			s.Restricted++
		case CategoryBrowserInternal:
			s.BrowserInternal++
		case CategorySearchable:
			s.Searchable++
		default:
			s.Failed++
		}
	}
	return s
}
