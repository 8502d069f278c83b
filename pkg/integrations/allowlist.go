// Package integrations supplies the allow-list of integration slugs a
// blueprint may reference.
package integrations

import (
	"sort"
	"strings"
)

// AllowList answers whether an integration slug is known to the workspace.
// The validator checks integration-call nodes against it; the vocabulary is
// supplied by the caller, never hardcoded in the engine.
type AllowList interface {
	Known(slug string) bool
	Slugs() []string
}

// StaticAllowList is an in-memory allow-list built from a fixed slug set.
type StaticAllowList struct {
	slugs map[string]struct{}
}

// NewStaticAllowList builds an allow-list from the given slugs. Slugs are
// case-insensitive and surrounding whitespace is ignored.
func NewStaticAllowList(slugs ...string) *StaticAllowList {
	list := &StaticAllowList{slugs: make(map[string]struct{}, len(slugs))}

	for _, slug := range slugs {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug == "" {
			continue
		}

		list.slugs[slug] = struct{}{}
	}

	return list
}

// Known reports whether the slug is in the allow-list.
func (l *StaticAllowList) Known(slug string) bool {
	_, ok := l.slugs[strings.ToLower(strings.TrimSpace(slug))]

	return ok
}

// Slugs returns the allowed slugs in sorted order.
func (l *StaticAllowList) Slugs() []string {
	slugs := make([]string, 0, len(l.slugs))
	for slug := range l.slugs {
		slugs = append(slugs, slug)
	}

	sort.Strings(slugs)

	return slugs
}
