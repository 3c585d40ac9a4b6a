package locator

import (
	"fmt"
	"strings"
)

// Language is the query language a locator compiles to.
type Language int

const (
	CSS Language = iota
	XPath
)

// Query is a compiled locator.
type Query struct {
	Language Language
	Expr     string
}

func (q Query) String() string {
	if q.Language == XPath {
		return "xpath=" + q.Expr
	}
	return q.Expr
}

const (
	upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lower = "abcdefghijklmnopqrstuvwxyz"
)

// Elements whose text is never visible.
const invisible = "self::script or self::style or self::head or self::title or self::noscript or self::template"

// implicitRoles maps ARIA roles to the XPath test for elements that carry
// the role without an explicit role attribute.
var implicitRoles = map[string]string{
	"button":      "self::button or (self::input and (@type='button' or @type='submit' or @type='reset' or @type='image'))",
	"link":        "(self::a or self::area) and @href",
	"heading":     "self::h1 or self::h2 or self::h3 or self::h4 or self::h5 or self::h6",
	"textbox":     "self::textarea or (self::input and (not(@type) or @type='text' or @type='email' or @type='tel' or @type='url'))",
	"searchbox":   "self::input and @type='search'",
	"checkbox":    "self::input and @type='checkbox'",
	"radio":       "self::input and @type='radio'",
	"combobox":    "self::select",
	"option":      "self::option",
	"img":         "self::img",
	"list":        "self::ul or self::ol",
	"listitem":    "self::li",
	"navigation":  "self::nav",
	"main":        "self::main",
	"form":        "self::form",
	"table":       "self::table",
	"row":         "self::tr",
	"cell":        "self::td",
	"dialog":      "self::dialog",
	"article":     "self::article",
	"banner":      "self::header",
	"contentinfo": "self::footer",
}

// Compile returns the query for l. Nth locators compile to their inner
// query; the index is applied by the resolver.
func (l Locator) Compile() Query {
	switch l.Kind {
	case KindNth:
		return l.Inner.Compile()
	case KindXPath:
		return Query{Language: XPath, Expr: l.Value}
	case KindTestID:
		return Query{Language: XPath, Expr: fmt.Sprintf("//*[@data-testid=%s]", literal(l.Value))}
	case KindText:
		return Query{Language: XPath, Expr: textQuery(l.Value, l.Exact)}
	case KindPlaceholder:
		return Query{Language: XPath, Expr: fmt.Sprintf("//*[@placeholder and %s]",
			containsFold("@placeholder", l.Value))}
	case KindLabel:
		return Query{Language: XPath, Expr: labelQuery(l.Value)}
	case KindRole:
		return Query{Language: XPath, Expr: roleQuery(l.Value, l.Name, l.HasName)}
	}
	return Query{Language: CSS, Expr: l.Value}
}

// textQuery selects the innermost elements whose normalised text matches.
func textQuery(value string, exact bool) string {
	var match string
	if exact {
		match = "normalize-space(.)=" + literal(strings.Join(strings.Fields(value), " "))
	} else {
		match = containsFold("normalize-space(.)", value)
	}
	return fmt.Sprintf("//*[not(%s) and %s and not(*[%s])]", invisible, match, match)
}

func labelQuery(value string) string {
	labelled := containsFold("normalize-space(.)", value)
	return fmt.Sprintf(
		"//*[(self::input or self::textarea or self::select or self::button) and "+
			"(@id = //label[%s]/@for or ancestor::label[%s] or (@aria-label and %s))]",
		labelled, labelled, containsFold("@aria-label", value))
}

func roleQuery(role, name string, hasName bool) string {
	cond := "@role=" + literal(role)
	if implicit, ok := implicitRoles[strings.ToLower(role)]; ok {
		cond = fmt.Sprintf("%s or (not(@role) and (%s))", cond, implicit)
	}
	expr := fmt.Sprintf("//*[%s]", cond)
	if hasName {
		expr += fmt.Sprintf("[%s or %s or %s or %s or %s]",
			containsFold("@aria-label", name),
			containsFold("normalize-space(.)", name),
			containsFold("@title", name),
			containsFold("@alt", name),
			containsFold("@value", name))
	}
	return expr
}

// containsFold is an ASCII case-insensitive XPath substring test.
func containsFold(expr, value string) string {
	return fmt.Sprintf("contains(translate(%s, '%s', '%s'), %s)",
		expr, upper, lower, literal(strings.ToLower(value)))
}

// literal quotes s as an XPath 1.0 string literal. XPath has no escapes,
// so strings holding both quote kinds are assembled with concat().
func literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if p != "" {
			args = append(args, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}
