package translate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

var (
	placeholderRe = regexp.MustCompile(`\{[^}]*\}`)
	apiPrefixRe   = regexp.MustCompile(`(?i)^api\.`)
)

// RefTypeName formats a referenced schema name as a type name. It depends on
// nothing but its input, so one schema always gets one name.
func RefTypeName(raw string) string {
	return naming.Pascal(apiPrefixRe.ReplaceAllString(raw, ""))
}

// funcName derives "<method><Pascal(source)>" where source is the operation
// id, or else the URL with its placeholders removed.
func (t *Translator) funcName(tag, url string, op *spec.Operation) string {
	source := op.OperationID
	if source == "" {
		source = url
		if t.opts.URLToNameReplacer != nil {
			source = t.opts.URLToNameReplacer(url)
		}
		source = placeholderRe.ReplaceAllString(source, "")
	}
	dup := regexp.MustCompile(`^(?i)(` + regexp.QuoteMeta(tag) + `_)?(` + regexp.QuoteMeta(op.Method) + `)?`)
	source = dup.ReplaceAllString(source, "")
	return op.Method + naming.Pascal(source)
}

type nameSet map[string]int

// unique returns name, or name with the lowest free numeric suffix.
func (s nameSet) unique(name string) string {
	n := s[name]
	s[name] = n + 1
	if n == 0 {
		return name
	}
	for i := n + 1; ; i++ {
		candidate := name + strconv.Itoa(i)
		if s[candidate] == 0 {
			s[candidate] = 1
			return candidate
		}
	}
}

func (t *Translator) normalizeURL(url string) string {
	if t.opts.RemoveURLPrefix != "" {
		return strings.TrimPrefix(url, t.opts.RemoveURLPrefix)
	}
	return url
}
