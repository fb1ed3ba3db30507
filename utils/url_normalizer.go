// Package utils provides shared helpers for the Feedly sync sidecar
package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are dropped from article links; any utm_* key is dropped too
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_eid":  {},
	"mc_cid":  {},
	"msclkid": {},
	"ref_src": {},
}

// NormalizeURL returns rawURL with tracking parameters, the fragment and any
// trailing path slash removed, and the scheme and host lowercased.
// Only absolute http(s) URLs are accepted.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	query := parsed.Query()
	for key := range query {
		if _, tracking := trackingParams[key]; tracking || strings.HasPrefix(key, "utm_") {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()

	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	return parsed.String(), nil
}
