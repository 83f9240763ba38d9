package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mhismail3/moosetabs/internal/organize"
)

type stubSource struct {
	html  string
	err   error
	calls int
}

func (s *stubSource) Fetch(context.Context, string) (string, error) {
	s.calls++
	return s.html, s.err
}

func TestExtract_BrowserInternalIsNeverSearchable(t *testing.T) {
	src := &stubSource{err: errors.New("unreachable")}
	res := New(src, Config{}).Extract(context.Background(), organize.Tab{ID: 4, Title: "Settings", URL: "chrome://settings"})
	if !res.BrowserInternal || res.Searchable || res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.URL != "chrome://settings" || res.Title != "Settings" || res.TabID != 4 {
		t.Fatalf("snapshot fields must be kept: %+v", res)
	}
	if src.calls != 0 {
		t.Fatalf("browser pages must not be fetched")
	}
}

func TestExtract_RestrictedIsNotFetched(t *testing.T) {
	src := &stubSource{}
	res := New(src, Config{}).Extract(context.Background(), organize.Tab{ID: 1, URL: "https://chromewebstore.google.com/detail/x"})
	if res.Category() != CategoryRestricted || src.calls != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtract_FailedWebURLIsSearchable(t *testing.T) {
	res := New(&stubSource{err: errors.New("blocked")}, Config{}).Extract(context.Background(), organize.Tab{ID: 2, URL: "https://news.example.com/a"})
	if !res.Searchable || res.Category() != CategorySearchable || res.Error == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	res = New(&stubSource{html: "<html><body></body></html>"}, Config{}).Extract(context.Background(), organize.Tab{ID: 3, URL: "https://empty.example.com"})
	if !res.Searchable {
		t.Fatalf("empty page must be searchable: %+v", res)
	}
}

func TestExtract_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			if r.Header.Get("User-Agent") != "moose-test" {
				t.Errorf("unexpected user agent: %q", r.Header.Get("User-Agent"))
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(articleHTML))
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ex := New(NewHTTPSource(srv.Client(), "moose-test"), Config{Timeout: 5 * time.Second})

	ok := ex.Extract(context.Background(), organize.Tab{ID: 1, Title: "Errgroup", URL: srv.URL + "/article"})
	if !ok.Success || ok.Meta.OGTitle != "Structured Concurrency" || ok.Content == "" {
		t.Fatalf("unexpected success result: %+v", ok)
	}
	if ok.Title != "Errgroup" {
		t.Fatalf("title must come from the tab snapshot, got %q", ok.Title)
	}

	for _, path := range []string{"/missing", "/pdf"} {
		res := ex.Extract(context.Background(), organize.Tab{ID: 2, URL: srv.URL + path})
		if res.Success || !res.Searchable {
			t.Fatalf("%s: expected searchable failure, got %+v", path, res)
		}
	}
}

func TestExtract_UnsupportedScheme(t *testing.T) {
	res := New(&stubSource{}, Config{}).Extract(context.Background(), organize.Tab{ID: 1, URL: "ftp://files.example.com/a"})
	if res.Category() != CategoryFailed || res.Searchable {
		t.Fatalf("unexpected result: %+v", res)
	}
}
