package auth

import (
	"net/http"
	"strings"
)

// Policy decides which request paths bypass identity resolution. Health and
// metrics endpoints must stay reachable by probes and scrapers that carry no
// credentials, and ingest endpoints authenticate with a signature scheme of
// their own.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a policy exempting the given exact paths and path
// prefixes.
func NewDefaultPolicy(paths []string, prefixes []string) *Policy {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return &Policy{ExemptPaths: set, ExemptPrefixes: prefixes}
}

// IsExempt reports whether the request path bypasses auth.
func (p *Policy) IsExempt(r *http.Request) bool {
	if p == nil {
		return false
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}
