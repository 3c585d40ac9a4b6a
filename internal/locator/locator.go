// Package locator implements the element locator mini-language used by UI
// steps. A locator string is parsed into a Locator, compiled to a CSS or
// XPath query, and run against anything that implements Querier.
//
// Forms, checked in order:
//
//	nth=N:<locator>      N-th match (0-indexed) of the inner locator
//	text=<value>         element whose visible text contains value
//	text=exact:<value>   element whose visible text equals value
//	placeholder=<value>  input whose placeholder contains value
//	role=<role>          element with the given ARIA role
//	role=<role>[name=v]  ... whose accessible name contains v
//	label=<value>        form control labelled by value
//	data-testid=<value>  elements with data-testid=value
//	xpath=<expr>         XPath 1.0 expression
//	<anything else>      CSS selector
package locator

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies a locator form.
type Kind int

const (
	KindCSS Kind = iota
	KindXPath
	KindTestID
	KindLabel
	KindRole
	KindPlaceholder
	KindText
	KindNth
)

func (k Kind) String() string {
	switch k {
	case KindCSS:
		return "css"
	case KindXPath:
		return "xpath"
	case KindTestID:
		return "data-testid"
	case KindLabel:
		return "label"
	case KindRole:
		return "role"
	case KindPlaceholder:
		return "placeholder"
	case KindText:
		return "text"
	case KindNth:
		return "nth"
	}
	return "unknown"
}

// Locator is a parsed locator string.
type Locator struct {
	Kind Kind
	// Value is the CSS selector, XPath expression, test id, label,
	// placeholder, text or role, depending on Kind.
	Value string
	// Exact requests whole-string text matching (KindText).
	Exact bool
	// Name filters a role by accessible name (KindRole).
	Name    string
	HasName bool
	// Index and Inner describe KindNth.
	Index int
	Inner *Locator
}

var (
	nthPattern  = regexp.MustCompile(`^nth=(\d+):(.+)$`)
	rolePattern = regexp.MustCompile(`^(\w+)\[name=(.+)\]$`)
)

// Parse turns a locator string into a Locator. It never fails: anything not
// recognised as a prefixed form is a CSS selector.
func Parse(s string) Locator {
	if m := nthPattern.FindStringSubmatch(s); m != nil {
		if idx, err := strconv.Atoi(m[1]); err == nil {
			inner := Parse(m[2])
			return Locator{Kind: KindNth, Index: idx, Inner: &inner}
		}
	}

	switch {
	case strings.HasPrefix(s, "text="):
		text := strings.TrimPrefix(s, "text=")
		if exact, ok := strings.CutPrefix(text, "exact:"); ok {
			return Locator{Kind: KindText, Value: exact, Exact: true}
		}
		return Locator{Kind: KindText, Value: text}
	case strings.HasPrefix(s, "placeholder="):
		return Locator{Kind: KindPlaceholder, Value: strings.TrimPrefix(s, "placeholder=")}
	case strings.HasPrefix(s, "role="):
		role := strings.TrimPrefix(s, "role=")
		if m := rolePattern.FindStringSubmatch(role); m != nil {
			return Locator{Kind: KindRole, Value: m[1], Name: m[2], HasName: true}
		}
		return Locator{Kind: KindRole, Value: role}
	case strings.HasPrefix(s, "label="):
		return Locator{Kind: KindLabel, Value: strings.TrimPrefix(s, "label=")}
	case strings.HasPrefix(s, "data-testid="):
		return Locator{Kind: KindTestID, Value: strings.TrimPrefix(s, "data-testid=")}
	case strings.HasPrefix(s, "xpath="):
		return Locator{Kind: KindXPath, Value: strings.TrimPrefix(s, "xpath=")}
	}
	return Locator{Kind: KindCSS, Value: s}
}

// NarrowsToFirst reports whether only the first match is kept when the
// locator is not wrapped by nth=.
func (l Locator) NarrowsToFirst() bool {
	switch l.Kind {
	case KindText, KindPlaceholder, KindRole, KindLabel:
		return true
	}
	return false
}
