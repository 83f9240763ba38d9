package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
)

// PageSource returns the HTML of a web page.
type PageSource interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPSource fetches pages with a plain GET.
type HTTPSource struct {
	http      *resty.Client
	userAgent string
}

// NewHTTPSource returns an HTTPSource over client. Nil uses a default client.
func NewHTTPSource(client *http.Client, userAgent string) *HTTPSource {
	var rc *resty.Client
	if client != nil {
		rc = resty.NewWithClient(client)
	} else {
		rc = resty.New()
	}
	rc.SetDisableWarn(true)
	return &HTTPSource{http: rc, userAgent: userAgent}
}

func (s *HTTPSource) Fetch(ctx context.Context, pageURL string) (string, error) {
	req := s.http.R().SetContext(ctx).SetHeader("Accept", "text/html,application/xhtml+xml")
	if s.userAgent != "" {
		req.SetHeader("User-Agent", s.userAgent)
	}
	resp, err := req.Get(pageURL)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetch page: %s", resp.Status())
	}
	ct := strings.ToLower(resp.Header().Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		return "", fmt.Errorf("unsupported content type %q", ct)
	}
	return resp.String(), nil
}

// BrowserSource renders pages in headless Chrome so script-built content is
// present.
type BrowserSource struct {
	userAgent string
}

func NewBrowserSource(userAgent string) *BrowserSource {
	return &BrowserSource{userAgent: userAgent}
}

func (s *BrowserSource) Fetch(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", true))
	if s.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.userAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return html, nil
}
