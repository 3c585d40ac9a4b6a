package ui

import (
	"regexp"
	"strings"
)

// globPattern compiles a URL glob: "**" matches anything, "*" anything but
// "/", and "?" one character. The whole URL must match.
func globPattern(glob string) (*regexp.Regexp, error) {
	runes := []rune(glob)
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
