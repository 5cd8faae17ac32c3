package audit

import (
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL prepares a user-supplied address for navigation: a missing
// http(s) scheme defaults to https, and a single trailing slash is stripped
// so the result doubles as the origin prefix for link matching.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if !schemeRe.MatchString(u) {
		u = "https://" + u
	}
	return strings.TrimSuffix(u, "/")
}
