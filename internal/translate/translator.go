// Package translate walks an API document and turns its operations and
// schemas into TypeScript type expressions grouped by tag.
package translate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// DefaultTag groups operations that declare no tag.
const DefaultTag = "main"

var httpVerbs = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Options configures one translation pass.
type Options struct {
	Include []string
	Exclude []string

	// PropKeyReplacer renames a key before it is emitted.
	PropKeyReplacer func(key string, kc naming.KeyContext) string
	// URLToNameReplacer replaces the URL as the source of a function name
	// when the operation has no id.
	URLToNameReplacer func(url string) string
	// GetTag overrides tag derivation. It receives the URL with
	// RemoveURLPrefix already stripped.
	GetTag func(url, method string, op *spec.Operation) string

	RemoveURLPrefix string

	// ManualTypes is keyed by the exact document URL, then the method.
	ManualTypes map[string]map[string]Overrides

	Logger *slog.Logger
}

// RequestItem is the translated form of one operation. Type fields are
// empty when the operation has no such part.
type RequestItem struct {
	Name        string
	URL         string
	Method      string
	Summary     string
	Description string
	Deprecated  bool
	Tag         string

	PathType     string
	QueryType    string
	BodyType     string
	ResponseType string

	IsFormData bool
	// QueryRequired is set when at least one query parameter is required.
	QueryRequired bool
	// PathKeys maps a path placeholder to the key it was emitted under.
	PathKeys map[string]string
}

// Group is the items of one tag in discovery order.
type Group struct {
	Tag   string
	Items []*RequestItem
}

// RefType is the declaration backing one referenced schema.
type RefType struct {
	Name        string
	Description string
	Expr        string
	Deprecated  bool
}

// Result is everything one pass produced.
type Result struct {
	Dialect  spec.Dialect
	Groups   []*Group
	RefTypes []RefType
	// Refs holds every reference name met, including dangling ones.
	Refs map[string]bool
}

// Translator converts one document. It holds no state between passes.
type Translator struct {
	doc     *spec.Document
	opts    Options
	dialect dialect
	filter  *TagFilter
	log     *slog.Logger
}

// New picks the dialect adapter from the document.
func New(doc *spec.Document, opts Options) *Translator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var d dialect = v3Dialect{}
	if doc.Dialect == spec.DialectV2 {
		d = v2Dialect{}
	}
	return &Translator{
		doc:     doc,
		opts:    opts,
		dialect: d,
		filter:  NewTagFilter(opts.Include, opts.Exclude),
		log:     log.With("dialect", doc.Dialect.String()),
	}
}

// pass owns the mutable state of one Parse call.
type pass struct {
	t        *Translator
	refs     map[string]bool
	refTypes []RefType
}

func (t *Translator) newPass() *pass {
	return &pass{t: t, refs: map[string]bool{}}
}

// Parse translates every accepted operation, then resolves manual overrides.
func (t *Translator) Parse(ctx context.Context) (*Result, error) {
	p := t.newPass()
	names := nameSet{}
	groups := map[string]*Group{}
	var order []*Group
	var pending []override

	for _, item := range t.doc.Paths {
		for _, op := range item.Operations {
			if !httpVerbs[op.Method] {
				continue
			}
			tag := t.tagOf(item.URL, op)
			if !t.filter.Validate(tag) {
				t.log.Debug("operation filtered out", "tag", tag, "method", op.Method, "url", item.URL)
				continue
			}
			ri := p.requestItem(tag, item.URL, op)
			ri.Name = names.unique(t.funcName(tag, t.normalizeURL(item.URL), op))

			g := groups[tag]
			if g == nil {
				g = &Group{Tag: tag}
				groups[tag] = g
				order = append(order, g)
			}
			g.Items = append(g.Items, ri)
			pending = append(pending, t.overridesFor(ri)...)
		}
	}

	if err := resolveOverrides(ctx, pending); err != nil {
		return nil, err
	}
	t.log.Debug("translated", "groups", len(order), "refs", len(p.refs))
	return &Result{Dialect: t.doc.Dialect, Groups: order, RefTypes: p.refTypes, Refs: p.refs}, nil
}

func (t *Translator) tagOf(url string, op *spec.Operation) string {
	if t.opts.GetTag != nil {
		if tag := t.opts.GetTag(t.normalizeURL(url), op.Method, op); tag != "" {
			return tag
		}
	}
	if len(op.Tags) > 0 && op.Tags[0] != "" {
		return op.Tags[0]
	}
	return DefaultTag
}

func (p *pass) requestItem(tag, url string, op *spec.Operation) *RequestItem {
	ri := &RequestItem{
		URL:         url,
		Method:      op.Method,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
		Tag:         tag,
	}
	p.parameters(ri, op)
	p.t.dialect.requestBody(p, ri, op)
	ri.ResponseType = p.response(ri, op)
	return ri
}

func (p *pass) key(name string, kc naming.KeyContext) string {
	if p.t.opts.PropKeyReplacer != nil {
		name = p.t.opts.PropKeyReplacer(name, kc)
	}
	return naming.SafePropKey(name)
}

// unionMember parenthesizes an expression that would otherwise bind looser
// than the operator it is placed next to. A lone record literal never does.
func unionMember(expr string) string {
	if strings.ContainsAny(expr, "|&") && !naming.IsRecord(expr) {
		return "(" + expr + ")"
	}
	return expr
}

func orAny(expr string) string {
	if expr == "" {
		return "any"
	}
	return expr
}
