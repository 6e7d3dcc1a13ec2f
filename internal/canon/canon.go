// Package canon derives stable identities from article URLs.
package canon

import (
	"net/url"
	"regexp"
	"strings"

	"NewsRadar/internal/domain"
)

// Canonicalize reduces a URL to host+path: lowercased, without scheme, query,
// fragment, a leading "www." or trailing slashes. The result canonicalizes to itself.
func Canonicalize(raw string) domain.CanonicalKey {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := parse(raw)
	if err != nil {
		return domain.CanonicalKey(finish(stripScheme(raw)))
	}

	return domain.CanonicalKey(finish(u.Host + u.EscapedPath()))
}

// Domain returns the lowercased host of a URL without "www." and port.
func Domain(raw string) string {
	u, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SiteName labels an article by its source domain.
func SiteName(raw string) string {
	if d := Domain(raw); d != "" {
		return d
	}
	return "Unknown Source"
}

// MatchesDomain reports whether host equals domain or is one of its subdomains.
func MatchesDomain(host, domain string) bool {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// schemePrefix matches a leading "scheme://". A "://" later in the string
// belongs to the path.
var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

func parse(raw string) (*url.URL, error) {
	if !schemePrefix.MatchString(raw) && !strings.HasPrefix(raw, "//") {
		raw = "//" + raw
	}
	return url.Parse(raw)
}

func stripScheme(raw string) string {
	if loc := schemePrefix.FindStringIndex(raw); loc != nil {
		raw = raw[loc[1]:]
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

func finish(s string) string {
	s = strings.ToLower(s)
	for strings.HasPrefix(s, "www.") {
		s = s[len("www."):]
	}
	return strings.TrimRight(s, "/")
}
