// Package urlutil normalizes URLs and company identifiers so that keys,
// ancestry entries and duplicate checks always compare canonical forms.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalizes a URL for use as an entity key or ancestry entry:
// lowercased scheme and host, default ports and fragments stripped, trailing
// slash removed from the path, query preserved (listing URLs are often
// distinguished only by query parameters).
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty url")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + trimmed)
		if err != nil {
			return "", fmt.Errorf("parse url %q: %w", raw, err)
		}
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	} else {
		u.Path = ""
	}

	return u.String(), nil
}

// CompanyKey derives a stable company record key. Prefers the registrable
// domain of the company website when one is known (stripe.com and
// jobs.stripe.com collapse to the same key); falls back to a slug of the
// company name.
func CompanyKey(name, website string) string {
	if website != "" {
		if u, err := url.Parse(strings.TrimSpace(website)); err == nil {
			host := strings.ToLower(u.Hostname())
			if host == "" {
				// bare domains parse as a path
				host = strings.ToLower(strings.Split(u.Path, "/")[0])
			}
			if host != "" {
				if domain, derr := publicsuffix.EffectiveTLDPlusOne(host); derr == nil {
					return domain
				}
			}
		}
	}
	return Slug(name)
}

// Slug lowercases a name and collapses runs of non-alphanumerics to single
// hyphens.
func Slug(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
