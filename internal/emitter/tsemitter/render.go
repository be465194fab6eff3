// Package tsemitter renders translated operations as TypeScript request
// functions and ambient type declarations, and writes them to disk.
package tsemitter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/translate"
)

const (
	generatedHeader      = "/* eslint-disable */\n// This file is generated by swagger2ts. Do not edit.\n"
	defaultRequestImport = "@/utils/request"
	envelopeName         = "ResponseROOT"
)

var placeholderRe = regexp.MustCompile(`\{[^}]*\}`)

var bodyMethods = map[string]bool{"post": true, "put": true, "patch": true, "delete": true}

// EnvelopeField is one member of the response envelope interface. The type
// may use the parameter T for the wrapped payload.
type EnvelopeField struct {
	Name string
	Type string
}

// SSR selects the operations that also get a server-context variant.
type SSR struct {
	All     bool
	Methods []string
}

// Enabled reports whether method gets an SSR variant.
func (s SSR) Enabled(method string) bool {
	if s.All {
		return true
	}
	for _, m := range s.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// RenderOptions controls the generated source.
type RenderOptions struct {
	// Scope is the document namespace under API; it is Pascal-cased.
	Scope string
	// ResponseRoot declares an envelope wrapping every response.
	ResponseRoot []EnvelopeField
	// ReturnPath projects the payload out of the envelope at the call site.
	ReturnPath      string
	SSR             SSR
	URLPrefix       string
	RemoveURLPrefix string
	RequestImport   string
}

// File is one rendered file relative to the document output directory.
type File struct {
	RelPath string
	Content []byte
}

type renderer struct {
	res   *translate.Result
	opts  RenderOptions
	scope string
}

// Render produces the request modules, their declarations, the aggregate
// declaration and the barrel for one translation result. Files are sorted by
// path.
func Render(res *translate.Result, opts RenderOptions) ([]File, error) {
	if res == nil {
		return nil, fmt.Errorf("tsemitter: nil result")
	}
	scope := naming.Pascal(opts.Scope)
	if scope == "" {
		return nil, fmt.Errorf("tsemitter: scope %q has no usable characters", opts.Scope)
	}
	if opts.RequestImport == "" {
		opts.RequestImport = defaultRequestImport
	}
	r := &renderer{res: res, opts: opts, scope: scope}

	var files []File
	var barrel strings.Builder
	barrel.WriteString(generatedHeader)
	modules, namespaces := map[string]int{}, map[string]int{}
	for _, g := range res.Groups {
		module := dedupe(modules, naming.Kebab(g.Tag), "default", "-")
		ns := dedupe(namespaces, naming.Pascal(g.Tag), "Default", "")
		files = append(files,
			File{RelPath: module + ".ts", Content: []byte(r.requestModule(g, ns))},
			File{RelPath: "typings/" + module + ".d.ts", Content: []byte(r.groupTypings(g, ns))},
		)
		fmt.Fprintf(&barrel, "export * as %s from './%s'\n", naming.Camel(module), module)
	}
	files = append(files,
		File{RelPath: "typings/index.d.ts", Content: []byte(r.indexTypings())},
		File{RelPath: "index.ts", Content: []byte(barrel.String())},
	)
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// dedupe returns name, or name with a numeric suffix when an earlier group
// already took it.
func dedupe(used map[string]int, name, fallback, sep string) string {
	if name == "" {
		name = fallback
	}
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s%s%d", name, sep, n)
	}
	return name
}

func (r *renderer) requestModule(g *translate.Group, ns string) string {
	var b strings.Builder
	b.WriteString(generatedHeader)
	fmt.Fprintf(&b, "import { request } from '%s'\n", r.opts.RequestImport)
	types := "RequestConfig"
	for _, it := range g.Items {
		if r.opts.SSR.Enabled(it.Method) {
			types += ", RequestContext"
			break
		}
	}
	fmt.Fprintf(&b, "import type { %s } from '%s'\n", types, r.opts.RequestImport)

	qualifier := "API." + r.scope + "." + ns + "."
	for _, it := range g.Items {
		b.WriteString("\n")
		r.function(&b, qualifier, it, false)
		if r.opts.SSR.Enabled(it.Method) {
			b.WriteString("\n")
			r.function(&b, qualifier, it, true)
		}
	}
	return b.String()
}

func typeName(it *translate.RequestItem, suffix string) string {
	return naming.UpperFirst(it.Name) + suffix
}

func hasBody(it *translate.RequestItem) bool {
	return it.BodyType != "" && bodyMethods[it.Method]
}

func (r *renderer) function(b *strings.Builder, qualifier string, it *translate.RequestItem, ssr bool) {
	writeDoc(b, "", docLines(it.Summary, it.Description), it.Deprecated)

	name := it.Name
	var params []string
	if ssr {
		name += "SSR"
		params = append(params, "ctx: RequestContext")
	}
	if it.PathType != "" {
		params = append(params, "path: "+qualifier+typeName(it, "Path"))
	}
	if hasBody(it) {
		arg := "body"
		if it.IsFormData {
			arg = "formData"
		}
		params = append(params, arg+": "+qualifier+typeName(it, "Body"))
	}
	if it.QueryType != "" {
		opt := "?"
		if it.QueryRequired {
			opt = ""
		}
		params = append(params, "query"+opt+": "+qualifier+typeName(it, "Query"))
	}
	params = append(params, "config?: RequestConfig")

	generic, then := r.responseCall(qualifier, it)
	fmt.Fprintf(b, "export function %s(%s) {\n", name, strings.Join(params, ", "))
	fmt.Fprintf(b, "  return request%s({\n", generic)
	if ssr {
		b.WriteString("    ctx,\n")
	}
	fmt.Fprintf(b, "    method: '%s',\n", strings.ToUpper(it.Method))
	fmt.Fprintf(b, "    url: %s,\n", r.url(it))
	if hasBody(it) {
		if it.IsFormData {
			b.WriteString("    formData: formData,\n")
		} else {
			b.WriteString("    data: body,\n")
		}
	}
	if it.QueryType != "" {
		b.WriteString("    params: query,\n")
	}
	b.WriteString("    ...config,\n")
	fmt.Fprintf(b, "  })%s\n}\n", then)
}

func (r *renderer) envelope() bool { return len(r.opts.ResponseRoot) > 0 }

// responseCall returns the request type argument and, when the payload is
// projected out of the envelope, the trailing then call.
func (r *renderer) responseCall(qualifier string, it *translate.RequestItem) (generic, then string) {
	if r.envelope() && r.opts.ReturnPath != "" {
		inner := "any"
		if it.ResponseType != "" {
			inner = qualifier + typeName(it, "Response")
		}
		path := strings.Trim(r.opts.ReturnPath, ".")
		return "<API." + r.scope + "." + envelopeName + "<" + inner + ">>", ".then((res) => res." + path + ")"
	}
	if it.ResponseType == "" {
		return "", ""
	}
	return "<" + qualifier + typeName(it, "Response") + ">", ""
}

func (r *renderer) url(it *translate.RequestItem) string {
	u := it.URL
	if r.opts.RemoveURLPrefix != "" {
		u = strings.TrimPrefix(u, r.opts.RemoveURLPrefix)
	}
	u = r.opts.URLPrefix + u
	if it.PathType != "" {
		u = placeholderRe.ReplaceAllStringFunc(u, func(m string) string {
			name := m[1 : len(m)-1]
			if name == "" {
				return m
			}
			// Placeholders without a declared parameter, as with an
			// overridden path type, use the placeholder name itself.
			key, ok := it.PathKeys[name]
			if !ok {
				key = naming.SafePropKey(name)
			}
			if strings.HasPrefix(key, "'") {
				return "${path[" + key + "]}"
			}
			return "${path." + key + "}"
		})
	}
	return "`" + strings.ReplaceAll(u, "`", "\\`") + "`"
}

func (r *renderer) groupTypings(g *translate.Group, ns string) string {
	var decls []string
	for _, it := range g.Items {
		for _, slot := range []struct{ suffix, expr string }{
			{"Path", it.PathType},
			{"Query", it.QueryType},
			{"Body", it.BodyType},
			{"Response", it.ResponseType},
		} {
			if slot.expr == "" {
				continue
			}
			name := typeName(it, slot.suffix)
			if slot.suffix == "Response" && r.envelope() && r.opts.ReturnPath == "" {
				decls = append(decls, "type "+name+" = "+envelopeName+"<"+r.qualify(slot.expr)+">;")
				continue
			}
			decls = append(decls, r.declare(name, slot.expr))
		}
	}
	return r.namespaces([]string{r.scope, ns}, decls)
}

// qualify turns a bare reference to a known schema into its full name.
func (r *renderer) qualify(expr string) string {
	if r.res.Refs[expr] {
		return "API." + r.scope + "." + expr
	}
	return expr
}

func (r *renderer) declare(name, expr string) string {
	switch {
	case r.res.Refs[expr]:
		return "type " + name + " = " + r.qualify(expr) + ";"
	case naming.IsRecord(expr):
		return "interface " + name + " " + expr
	}
	return "type " + name + " = " + expr + ";"
}

func (r *renderer) indexTypings() string {
	var decls []string
	if r.envelope() {
		lines := make([]string, 0, len(r.opts.ResponseRoot))
		for _, f := range r.opts.ResponseRoot {
			lines = append(lines, naming.SafePropKey(f.Name)+": "+f.Type+";")
		}
		decls = append(decls, "interface "+envelopeName+"<T = any> "+naming.Record(lines))
	}
	for _, rt := range r.res.RefTypes {
		var b strings.Builder
		writeDoc(&b, "", docLines(rt.Description), rt.Deprecated)
		if naming.IsRecord(rt.Expr) {
			b.WriteString("interface " + rt.Name + " " + rt.Expr)
		} else {
			b.WriteString("type " + rt.Name + " = " + rt.Expr + ";")
		}
		decls = append(decls, b.String())
	}
	return r.namespaces([]string{r.scope}, decls)
}

// namespaces nests decls under API and then each of names.
func (r *renderer) namespaces(names []string, decls []string) string {
	var b strings.Builder
	b.WriteString(generatedHeader)
	b.WriteString("declare namespace API {\n")
	pad := "  "
	for _, n := range names {
		b.WriteString(pad + "namespace " + n + " {\n")
		pad += "  "
	}
	for i, d := range decls {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pad + naming.Indent(strings.TrimRight(d, "\n"), pad) + "\n")
	}
	for range names {
		pad = pad[2:]
		b.WriteString(pad + "}\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func docLines(texts ...string) []string {
	var out []string
	for _, t := range texts {
		for _, l := range strings.Split(strings.TrimSpace(t), "\n") {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, strings.ReplaceAll(l, "*/", "*\\/"))
			}
		}
	}
	return out
}

func writeDoc(b *strings.Builder, pad string, lines []string, deprecated bool) {
	if len(lines) == 0 && !deprecated {
		return
	}
	b.WriteString(pad + "/**\n")
	for _, l := range lines {
		b.WriteString(pad + " * " + l + "\n")
	}
	if deprecated {
		b.WriteString(pad + " * @deprecated\n")
	}
	b.WriteString(pad + " */\n")
}
