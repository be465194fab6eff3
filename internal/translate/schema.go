package translate

import (
	"strings"

	"github.com/mark3labs/swagger2ts/internal/jsontype"
	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

const deprecatedMarker = "/** @deprecated */ "

// schema translates a node into a type expression. An absent node yields ""
// which callers keep apart from "any".
func (p *pass) schema(n *spec.Node) string {
	if n == nil {
		return ""
	}
	if n.IsRef() {
		return p.ref(n)
	}
	s := n.Schema
	if s == nil {
		return ""
	}
	if members, op := combinator(s); members != nil {
		parts := make([]string, 0, len(members))
		for _, m := range members {
			parts = append(parts, orAny(p.schema(m)))
		}
		return "(" + strings.Join(parts, op) + ") | null"
	}

	types := s.Types
	if len(types) == 0 {
		switch {
		case len(s.Properties) > 0 || s.AdditionalProperties != nil:
			types = []string{"object"}
		case len(s.Items) > 0:
			types = []string{"array"}
		default:
			return ""
		}
	}
	if len(types) > 1 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = p.literal(t)
		}
		return strings.Join(names, " | ")
	}

	switch types[0] {
	case "string":
		if len(s.Enum) > 0 {
			lits := make([]string, len(s.Enum))
			for i, v := range s.Enum {
				lits[i] = naming.Quote(v)
			}
			return strings.Join(lits, " | ")
		}
		return "string"
	case "array":
		return p.array(s)
	case "object":
		return p.object(s)
	}
	return p.literal(types[0])
}

// ref registers the referenced schema and returns its type name. The name is
// marked seen before the body is translated so cycles terminate.
func (p *pass) ref(n *spec.Node) string {
	raw := n.RefName()
	name := RefTypeName(raw)
	if p.refs[name] {
		return name
	}
	p.refs[name] = true

	target, ok := p.t.doc.Schema(raw)
	if !ok {
		p.t.log.Debug("reference has no schema", "ref", n.Ref)
		return name
	}
	rt := RefType{Name: name, Expr: orAny(p.schema(target))}
	if target.IsRef() {
		rt.Description, rt.Deprecated = target.Description, target.Deprecated
	} else if target.Schema != nil {
		rt.Description, rt.Deprecated = target.Schema.Description, target.Schema.Deprecated
	}
	p.refTypes = append(p.refTypes, rt)
	return name
}

func combinator(s *spec.Schema) ([]*spec.Node, string) {
	switch {
	case len(s.AllOf) > 0:
		return s.AllOf, " & "
	case len(s.OneOf) > 0:
		return s.OneOf, " | "
	case len(s.AnyOf) > 0:
		return s.AnyOf, " | "
	}
	return nil, ""
}

// literal maps a declared type name that has no structure of its own.
func (p *pass) literal(t string) string {
	switch t {
	case "integer":
		return "number"
	case "array":
		return "any[]"
	case "object":
		return "Record<string, any>"
	case "file":
		if p.t.dialect.permissive() {
			return "File"
		}
	}
	return t
}

func (p *pass) array(s *spec.Schema) string {
	var item string
	switch {
	case len(s.Items) == 0:
	case s.ItemsList && p.t.dialect.permissive():
		parts := make([]string, len(s.Items))
		for i, it := range s.Items {
			parts[i] = orAny(p.schema(it))
		}
		item = strings.Join(parts, " | ")
	default:
		item = p.schema(s.Items[0])
	}
	return unionMember(orAny(item)) + "[]"
}

func (p *pass) object(s *spec.Schema) string {
	var rec string
	if lines := p.properties(s); len(lines) > 0 {
		rec = naming.Record(lines)
	}
	var ext string
	if ap := s.AdditionalProperties; ap != nil {
		if ap.Node != nil {
			ext = p.t.dialect.additional(p, ap.Node)
		} else if ap.Allowed {
			ext = jsontype.AnyMap
		}
	}
	switch {
	case rec != "" && ext != "":
		return rec + " & " + unionMember(ext)
	case ext != "":
		return ext
	case rec != "":
		return rec
	}
	return "Record<string, any>"
}

// properties renders one record line per property in declared order.
func (p *pass) properties(s *spec.Schema) []string {
	lines := make([]string, 0, len(s.Properties))
	for _, prop := range s.Properties {
		var line strings.Builder
		if deprecated(prop.Node) {
			line.WriteString(deprecatedMarker)
		}
		line.WriteString(p.key(prop.Name, naming.KeySchema))
		if !s.IsRequired(prop.Name) {
			line.WriteString("?")
		}
		line.WriteString(": ")
		line.WriteString(orAny(p.schema(prop.Node)))
		line.WriteString(";")
		if prop.Node != nil && !prop.Node.IsRef() && prop.Node.Schema != nil {
			line.WriteString(naming.JoinComment(prop.Node.Schema.Description))
		}
		lines = append(lines, line.String())
	}
	return lines
}

func deprecated(n *spec.Node) bool {
	if n == nil {
		return false
	}
	return n.Deprecated || (n.Schema != nil && n.Schema.Deprecated)
}
