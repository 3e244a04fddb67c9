package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// SiteCode identifies one storefront deployment (com, uk, de, fr, ...)
type SiteCode string

var siteCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,15}$`)

// ParseSiteCode normalizes and validates a site code
func ParseSiteCode(raw string) (SiteCode, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if !siteCodePattern.MatchString(code) {
		return "", NewDomainError("INVALID_SITE", fmt.Sprintf("invalid site code %q", raw))
	}
	return SiteCode(code), nil
}

// IsValid reports whether the code has an acceptable shape
func (s SiteCode) IsValid() bool {
	return siteCodePattern.MatchString(string(s))
}

// String returns the string representation
func (s SiteCode) String() string {
	return string(s)
}

// SiteSet is an ordered, de-duplicated list of sites.
// The first element is the reference site.
type SiteSet []SiteCode

// NewSiteSet builds a SiteSet from raw codes, keeping first occurrence order
func NewSiteSet(raw ...string) (SiteSet, error) {
	set := make(SiteSet, 0, len(raw))
	seen := make(map[SiteCode]struct{}, len(raw))
	for _, r := range raw {
		code, err := ParseSiteCode(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		set = append(set, code)
	}
	return set, nil
}

// Contains reports whether the set holds the site
func (s SiteSet) Contains(site SiteCode) bool {
	for _, c := range s {
		if c == site {
			return true
		}
	}
	return false
}

// Reference returns the reference site, or "" for an empty set
func (s SiteSet) Reference() SiteCode {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Strings returns the codes as plain strings
func (s SiteSet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}

// Restrict returns the requested sites that are part of s, in request order.
// Unknown sites are returned separately.
func (s SiteSet) Restrict(requested []SiteCode) (known SiteSet, unknown []SiteCode) {
	seen := make(map[SiteCode]struct{}, len(requested))
	for _, r := range requested {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if s.Contains(r) {
			known = append(known, r)
		} else {
			unknown = append(unknown, r)
		}
	}
	return known, unknown
}
