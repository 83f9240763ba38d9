package extract

import (
	"net/url"
	"strings"
)

var internalSchemes = []string{
	"chrome:", "chrome-extension:", "chrome-search:", "edge:", "about:",
	"moz-extension:", "view-source:", "devtools:", "file:", "brave:",
	"opera:", "vivaldi:", "data:", "blob:", "javascript:",
}

// restrictedPages are web pages where browsers block content scripts.
var restrictedPages = []struct {
	host   string
	prefix string
}{
	{host: "chromewebstore.google.com"},
	{host: "chrome.google.com", prefix: "/webstore"},
	{host: "addons.mozilla.org"},
	{host: "microsoftedge.microsoft.com", prefix: "/addons"},
}

// IsBrowserInternal reports whether raw is a browser or local page with no
// web equivalent.
func IsBrowserInternal(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// IsRestricted reports whether raw is a web page the host will not let
// extensions read.
func IsRestricted(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range restrictedPages {
		if host == p.host && strings.HasPrefix(u.Path, p.prefix) {
			return true
		}
	}
	return false
}

func isWebURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, u.Scheme == "http" || u.Scheme == "https"
}
