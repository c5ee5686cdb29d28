// Package names maps user-typed symbol names onto identifiers the code
// generator can emit, and knows which identifiers are reserved.
package names

import (
	"strings"
	"unicode"
)

var substitutions = map[rune]string{
	'Ä': "Ae", 'Ö': "Oe", 'Ü': "Ue",
	'ä': "ae", 'ö': "oe", 'ü': "ue",
	'ß': "ss",
	'å': "aa", 'æ': "ae", 'ø': "oe",
	'þ': "th", 'ð': "d", 'đ': "dj",
	' ': "_", '!': "_", '\'': "_", '*': "_", '=': "_", '?': "_", '^': "_",
	'_': "_", '`': "_", '{': "_", '|': "_", '}': "_", '~': "_", '.': "_",
	'[': "_", ']': "_",
	'#': "_hash_",
	'$': "_dollar_",
	'%': "_percent_",
	'&': "_and_",
	'+': "_plus_",
	'-': "_minus_",
	'@': "_at_",
	'€': "_euro_",
}

// reserved holds the runtime entry points and the C++ keywords the
// generated program could collide with.
var reserved = map[string]struct{}{
	"setup": {}, "loop": {}, "run": {}, "bob3": {},

	"auto": {}, "bool": {}, "break": {}, "case": {}, "char": {}, "class": {},
	"const": {}, "continue": {}, "default": {}, "delete": {}, "do": {},
	"double": {}, "else": {}, "enum": {}, "false": {}, "float": {}, "for": {},
	"goto": {}, "if": {}, "int": {}, "long": {}, "new": {}, "return": {},
	"short": {}, "signed": {}, "sizeof": {}, "static": {}, "struct": {},
	"switch": {}, "true": {}, "unsigned": {}, "void": {}, "while": {},
}

// Normalize maps s onto an identifier of the form [A-Za-z_][A-Za-z0-9_]*.
// It reports false when nothing usable remains or the result would start
// with a digit. Normalize is idempotent.
func Normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if sub, ok := substitutions[r]; ok {
			b.WriteString(sub)
			continue
		}
		if isIdentRune(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		return "", false
	}
	return out, true
}

// IsReserved reports whether name is on the fixed blacklist. The check is
// done on the raw name, so "Loop" is allowed but "loop" is not.
func IsReserved(name string) bool {
	_, ok := reserved[strings.TrimSpace(name)]
	return ok
}

// Same reports whether two names normalize to the same identifier. Names
// that do not normalize never match anything.
func Same(a, b string) bool {
	na, okA := Normalize(a)
	nb, okB := Normalize(b)
	return okA && okB && na == nb
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
