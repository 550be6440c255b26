package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// SessionTokenParam is the query parameter carrying a session transfer token.
const SessionTokenParam = "session_token"

// RedirectPolicy restricts post-login redirects to the site's own origin.
type RedirectPolicy struct {
	site *url.URL
}

// NewRedirectPolicy parses the configured site URL. A trailing path on the
// site URL is kept as the fallback target.
func NewRedirectPolicy(siteURL string) (*RedirectPolicy, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("site URL %q must be an absolute http(s) URL", siteURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return &RedirectPolicy{site: u}, nil
}

// SiteRoot returns the fallback redirect target.
func (p *RedirectPolicy) SiteRoot() string {
	return p.site.String()
}

// Sanitize returns raw as an absolute same-origin URL, or the site root when
// raw is empty, unparsable or points elsewhere. Relative references are
// resolved against the site root. A stale session_token parameter is dropped.
func (p *RedirectPolicy) Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\r\n\\") {
		return p.SiteRoot()
	}

	u, err := url.Parse(raw)
	if err != nil {
		return p.SiteRoot()
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return p.SiteRoot()
	}
	if u.User != nil {
		return p.SiteRoot()
	}

	resolved := p.site.ResolveReference(u)
	if !p.SameOrigin(resolved) {
		return p.SiteRoot()
	}

	q := resolved.Query()
	if q.Has(SessionTokenParam) {
		q.Del(SessionTokenParam)
		resolved.RawQuery = q.Encode()
	}
	return resolved.String()
}

// OriginURL returns path on the site's origin. The broker's routes are
// mounted at the host root, so any path on the site URL is ignored.
func (p *RedirectPolicy) OriginURL(path string) string {
	u := url.URL{Scheme: p.site.Scheme, Host: p.site.Host, Path: path}
	return u.String()
}

// SameOrigin reports whether u shares scheme, host and port with the site.
func (p *RedirectPolicy) SameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, p.site.Scheme) && strings.EqualFold(u.Host, p.site.Host)
}
