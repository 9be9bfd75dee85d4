package topo

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and strips whitespace and slashes so that
// "주방 / 식당" and "주방식당" compare equal.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) || r == '/' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// substringEither reports whether one string contains the other. Empty
// strings never match.
func substringEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

type labelGroup struct {
	name  string
	terms []string
}

type labelRule struct {
	spaceType SpaceType
	labels    []string
}

// LabelResolver classifies free-text space labels. It is read-only after
// construction and safe for concurrent use.
type LabelResolver struct {
	groups  []labelGroup
	outside []string
	rules   []labelRule
}

// NewLabelResolver normalizes the tables of cfg once.
func NewLabelResolver(cfg *Config) *LabelResolver {
	r := &LabelResolver{}
	for _, g := range cfg.SynonymGroups {
		lg := labelGroup{name: g.Name}
		for _, t := range g.Terms {
			if n := Normalize(t); n != "" {
				lg.terms = append(lg.terms, n)
			}
		}
		r.groups = append(r.groups, lg)
	}
	for _, o := range cfg.OutsideSpaces {
		if n := Normalize(o); n != "" {
			r.outside = append(r.outside, n)
		}
	}
	for _, rule := range cfg.SpaceTypeRules {
		lr := labelRule{spaceType: rule.Type}
		for _, l := range rule.Labels {
			if n := Normalize(l); n != "" {
				lr.labels = append(lr.labels, n)
			}
		}
		r.rules = append(r.rules, lr)
	}
	return r
}

// AreSynonyms reports whether two labels name the same kind of space: equal
// after normalization, or both matching terms of one synonym group.
func (r *LabelResolver) AreSynonyms(t1, t2 string) bool {
	n1, n2 := Normalize(t1), Normalize(t2)
	if n1 == "" || n2 == "" {
		return false
	}
	if n1 == n2 {
		return true
	}
	for _, g := range r.groups {
		if g.matches(n1) && g.matches(n2) {
			return true
		}
	}
	return false
}

func (g labelGroup) matches(n string) bool {
	for _, t := range g.terms {
		if substringEither(n, t) {
			return true
		}
	}
	return false
}

// Canonical returns the synonym group name for label. Exact term matches win
// over substring matches.
func (r *LabelResolver) Canonical(label string) (string, bool) {
	n := Normalize(label)
	if n == "" {
		return "", false
	}
	for _, g := range r.groups {
		for _, t := range g.terms {
			if t == n {
				return g.name, true
			}
		}
	}
	for _, g := range r.groups {
		if g.matches(n) {
			return g.name, true
		}
	}
	return "", false
}

// IsOutsideSpace reports whether label names an exterior space such as a
// balcony or terrace.
func (r *LabelResolver) IsOutsideSpace(label string) bool {
	n := Normalize(label)
	for _, o := range r.outside {
		if substringEither(n, o) {
			return true
		}
	}
	return false
}

// ResolveSpaceType classifies label. The outside list is checked first, then
// the canonical group name (or the raw label when no group matches) is looked
// up in the rule table.
func (r *LabelResolver) ResolveSpaceType(label string) SpaceType {
	if r.IsOutsideSpace(label) {
		return SpaceOutside
	}
	key := Normalize(label)
	if canonical, ok := r.Canonical(label); ok {
		key = Normalize(canonical)
	}
	for _, rule := range r.rules {
		for _, l := range rule.labels {
			if substringEither(key, l) {
				return rule.spaceType
			}
		}
	}
	return SpaceUnclassified
}
