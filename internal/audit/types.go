package audit

import (
	"strings"
)

// Role names one of the three page roles an audit captures.
type Role string

const (
	RoleHomepage   Role = "homepage"
	RoleCollection Role = "collection"
	RoleProduct    Role = "product"
)

// Title returns the role with its first letter uppercased, for suggestion
// title prefixes like "[Homepage]".
func (r Role) Title() string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PageTarget is one page selected for capture. Created during discovery,
// immutable afterwards.
type PageTarget struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Role Role   `json:"role"`
}

// NewTarget builds a target whose key embeds a slug of the discovered link's
// display name: lowercased, whitespace collapsed to underscores, capped at
// 20 characters.
func NewTarget(role Role, name, url string) PageTarget {
	key := string(role)
	if role != RoleHomepage {
		key = key + "_" + slugify(name)
	}
	return PageTarget{Key: key, URL: url, Role: role}
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "_")
	// Truncate on rune boundaries; interactively discovered names (image alt
	// text) can carry multibyte characters and a byte slice would leave
	// invalid UTF-8 in filenames.
	if r := []rune(s); len(r) > 20 {
		s = string(r[:20])
	}
	return s
}

// Type reports the audit mode requested by the caller.
type Type string

const (
	TypeSite    Type = "site"
	TypeProduct Type = "product"
)

// ScreenshotArtifact records one captured image.
type ScreenshotArtifact struct {
	TargetKey  string `json:"targetKey"`
	Device     string `json:"device"`
	Fold       int    `json:"fold"`
	Filename   string `json:"filename"`
	PublicPath string `json:"publicPath"`
}

// ScreenshotSet pairs the first desktop and mobile artifact of a target, the
// unit the suggestion engine consumes.
type ScreenshotSet struct {
	Role    Role
	Desktop ScreenshotArtifact
	Mobile  ScreenshotArtifact
}

// Report is the response payload of one audit run.
type Report struct {
	Screenshots    map[string][]string `json:"screenshots"`
	Classification *Classification     `json:"classification,omitempty"`
	Suggestions    []Suggestion        `json:"suggestions,omitempty"`
}
