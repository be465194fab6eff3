// Package naming holds the string helpers shared by the translator and the
// generator: property key quoting, trailing comments and case conversion.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyContext tells a key-rename hook where a key is being emitted.
type KeyContext string

const (
	KeyParam  KeyContext = "param"
	KeySchema KeyContext = "schema"
)

var safeKeyRe = regexp.MustCompile(`^[A-Za-z$_]\w*_?$`)

// SafePropKey returns key unchanged when it can be used as a bare object key,
// otherwise the key as a single-quoted string literal.
func SafePropKey(key string) string {
	if safeKeyRe.MatchString(key) {
		return key
	}
	return Quote(key)
}

// Quote renders s as a single-quoted TypeScript string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// JoinComment turns text into a trailing line comment. Empty text yields "".
func JoinComment(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	return " // " + text
}

// Words splits s on every rune that is neither a letter nor a digit.
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Pascal converts s to PascalCase. Existing capitals inside a word are kept,
// so "userDTO" becomes "UserDTO" and "/users/list" becomes "UsersList".
func Pascal(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// Camel is Pascal with a lower-case first rune.
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return ""
	}
	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Kebab converts s to kebab-case: "UserController" -> "user-controller".
func Kebab(s string) string {
	var parts []string
	for _, w := range Words(s) {
		var b strings.Builder
		runes := []rune(w)
		for i, r := range runes {
			if unicode.IsUpper(r) && i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteRune('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "-")
}

// UpperFirst upper-cases the first rune of s.
func UpperFirst(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Indent prefixes every line after the first with pad, so a multi-line type
// expression can be embedded at the current nesting level.
func Indent(s, pad string) string {
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}

// Record renders member lines as a structural record literal. No lines yields "{}".
func Record(lines []string) string {
	if len(lines) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, l := range lines {
		b.WriteString("  ")
		b.WriteString(Indent(l, "  "))
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// IsRecord reports whether s is a single brace-delimited record literal, i.e.
// the brace opening at s[0] is the one closing at the last byte.
func IsRecord(s string) bool {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return false
	}
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '\'' {
				inQuote = false
			}
		case c == '\'':
			inQuote = true
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}
