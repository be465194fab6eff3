package spec

import (
	"errors"
	"net/url"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/jsontype"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotObject is returned when the document root is not a mapping.
	ErrNotObject = errors.New("document root is not an object")
	// ErrAliasCycle marks a YAML alias that leads back into its own anchor.
	ErrAliasCycle = errors.New("yaml alias cycle")
)

// DetectDialect probes for a top-level "swagger" member.
func DetectDialect(root *yaml.Node) Dialect {
	if get(root, "swagger") != nil {
		return DialectV2
	}
	return DialectV3
}

// Decode parses JSON or YAML document text into a Document.
func Decode(raw []byte) (*Document, error) {
	root, err := jsontype.ParseAny(raw)
	if err != nil {
		return nil, err
	}
	return DecodeNode(root)
}

// DecodeNode builds a Document from an already parsed tree. Entries with an
// unexpected shape are skipped; only a non-mapping root is an error.
func DecodeNode(root *yaml.Node) (*Document, error) {
	root = resolve(root)
	if root != nil && root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolve(root.Content[0])
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, ErrNotObject
	}

	d := &decoder{root: root, dialect: DetectDialect(root)}
	doc := &Document{
		Dialect: d.dialect,
		Schemas: map[string]*Node{},
	}
	if info := get(root, "info"); info != nil {
		doc.Title = str(get(info, "title"))
		doc.Version = str(get(info, "version"))
	}

	container := get(root, "definitions")
	if d.dialect == DialectV3 {
		container = get(get(root, "components"), "schemas")
	}
	eachPair(container, func(name string, v *yaml.Node) {
		doc.Schemas[name] = decodeNode(v)
		doc.SchemaOrder = append(doc.SchemaOrder, name)
	})

	eachPair(get(root, "paths"), func(u string, v *yaml.Node) {
		if v.Kind != yaml.MappingNode {
			return
		}
		doc.Paths = append(doc.Paths, d.pathItem(u, v))
	})
	return doc, nil
}

type decoder struct {
	root    *yaml.Node
	dialect Dialect
}

func (d *decoder) pathItem(u string, n *yaml.Node) *PathItem {
	item := &PathItem{URL: u}
	var shared []*Parameter
	if ps := get(n, "parameters"); ps != nil {
		shared = d.parameters(ps)
	}
	eachPair(n, func(key string, v *yaml.Node) {
		if key == "parameters" || v.Kind != yaml.MappingNode {
			return
		}
		op := d.operation(strings.ToLower(key), v)
		op.Parameters = mergeParameters(shared, op.Parameters)
		item.Operations = append(item.Operations, op)
	})
	return item
}

func (d *decoder) operation(method string, n *yaml.Node) *Operation {
	op := &Operation{
		Method:      method,
		OperationID: str(get(n, "operationId")),
		Summary:     str(get(n, "summary")),
		Description: str(get(n, "description")),
		Deprecated:  boolean(get(n, "deprecated")),
		Tags:        strs(get(n, "tags")),
	}
	if ps := get(n, "parameters"); ps != nil {
		op.Parameters = d.parameters(ps)
	}
	if rb := get(n, "requestBody"); rb != nil && rb.Kind == yaml.MappingNode {
		op.RequestBody = &RequestBody{
			Ref:         str(get(rb, "$ref")),
			Description: str(get(rb, "description")),
			Required:    boolean(get(rb, "required")),
			Content:     mediaList(get(rb, "content")),
		}
	}
	eachPair(get(n, "responses"), func(status string, v *yaml.Node) {
		if v.Kind != yaml.MappingNode {
			return
		}
		if op.Responses == nil {
			op.Responses = map[string]*Response{}
		}
		op.Responses[status] = d.response(v)
	})
	return op
}

func (d *decoder) parameters(n *yaml.Node) []*Parameter {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*Parameter, 0, len(n.Content))
	for _, pn := range n.Content {
		pn = resolve(pn)
		if pn == nil || pn.Kind != yaml.MappingNode {
			continue
		}
		if ref := str(get(pn, "$ref")); ref != "" {
			out = append(out, &Parameter{Ref: ref})
			continue
		}
		p := &Parameter{
			Name:        str(get(pn, "name")),
			In:          str(get(pn, "in")),
			Description: str(get(pn, "description")),
			Required:    boolean(get(pn, "required")),
			Deprecated:  boolean(get(pn, "deprecated")),
			Schema:      decodeNode(get(pn, "schema")),
		}
		if get(pn, "type") != nil || get(pn, "items") != nil || get(pn, "enum") != nil {
			p.Self = decodeNode(pn)
		}
		out = append(out, p)
	}
	return out
}

func (d *decoder) response(n *yaml.Node) *Response {
	if ref := str(get(n, "$ref")); ref != "" {
		container := get(d.root, "responses")
		if d.dialect == DialectV3 {
			container = get(get(d.root, "components"), "responses")
		}
		target := resolve(get(container, refName(ref)))
		if target == nil || target.Kind != yaml.MappingNode {
			return &Response{}
		}
		n = target
	}
	r := &Response{
		Description: str(get(n, "description")),
		Schema:      decodeNode(get(n, "schema")),
		Content:     mediaList(get(n, "content")),
	}
	if ex := resolve(get(n, "examples")); ex != nil && ex.Kind == yaml.MappingNode && len(ex.Content) >= 2 {
		r.Example = get(ex, "application/json")
		if r.Example == nil {
			r.Example = resolve(ex.Content[1])
		}
	}
	return r
}

func mediaList(n *yaml.Node) []*Media {
	var out []*Media
	eachPair(n, func(mime string, v *yaml.Node) {
		if v.Kind != yaml.MappingNode {
			return
		}
		out = append(out, &Media{
			Mime:    mime,
			Schema:  decodeNode(get(v, "schema")),
			Example: get(v, "example"),
		})
	})
	return out
}

// mergeParameters puts path-level parameters first unless an operation-level
// parameter with the same location and name replaces them.
func mergeParameters(shared, own []*Parameter) []*Parameter {
	if len(shared) == 0 {
		return own
	}
	key := func(p *Parameter) string { return p.In + ":" + p.Name }
	overridden := make(map[string]bool, len(own))
	for _, p := range own {
		if p.Ref == "" {
			overridden[key(p)] = true
		}
	}
	out := make([]*Parameter, 0, len(shared)+len(own))
	for _, p := range shared {
		if p.Ref != "" || !overridden[key(p)] {
			out = append(out, p)
		}
	}
	return append(out, own...)
}

func decodeNode(n *yaml.Node) *Node {
	return (&nodeDecoder{active: map[*yaml.Node]bool{}}).node(n)
}

// nodeDecoder tracks the mappings on the current decode path. An alias that
// leads back into one of them decodes as an absent node.
type nodeDecoder struct {
	active map[*yaml.Node]bool
}

func (d *nodeDecoder) node(n *yaml.Node) *Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode || d.active[n] {
		return nil
	}
	d.active[n] = true
	defer delete(d.active, n)
	if ref := get(n, "$ref"); ref != nil {
		return &Node{
			Kind:        NodeRef,
			Ref:         str(ref),
			Deprecated:  boolean(get(n, "deprecated")),
			Description: str(get(n, "description")),
		}
	}

	s := &Schema{
		Format:      str(get(n, "format")),
		Description: str(get(n, "description")),
		Deprecated:  boolean(get(n, "deprecated")),
		Example:     get(n, "example"),
	}
	if t := resolve(get(n, "type")); t != nil {
		if t.Kind == yaml.SequenceNode {
			s.Types = strs(t)
		} else if t.Value != "" {
			s.Types = []string{t.Value}
		}
	}
	if e := resolve(get(n, "enum")); e != nil && e.Kind == yaml.SequenceNode {
		for _, v := range e.Content {
			v = resolve(v)
			if v.Kind == yaml.ScalarNode && v.ShortTag() != "!!null" {
				s.Enum = append(s.Enum, v.Value)
			}
		}
	}
	eachPair(get(n, "properties"), func(name string, v *yaml.Node) {
		s.Properties = append(s.Properties, &Property{Name: name, Node: d.node(v)})
	})
	if r := resolve(get(n, "required")); r != nil && r.Kind == yaml.SequenceNode {
		s.Required = strs(r)
	}
	if items := resolve(get(n, "items")); items != nil {
		switch items.Kind {
		case yaml.SequenceNode:
			s.ItemsList = true
			for _, it := range items.Content {
				s.Items = append(s.Items, d.node(it))
			}
		case yaml.MappingNode:
			s.Items = []*Node{d.node(items)}
		}
	}
	if ap := resolve(get(n, "additionalProperties")); ap != nil {
		switch {
		case ap.Kind == yaml.ScalarNode:
			s.AdditionalProperties = &Additional{Allowed: boolean(ap)}
		case ap.Kind == yaml.MappingNode && len(ap.Content) == 0:
			s.AdditionalProperties = &Additional{Allowed: true}
		case ap.Kind == yaml.MappingNode:
			s.AdditionalProperties = &Additional{Node: d.node(ap)}
		}
	}
	s.AllOf = d.list(get(n, "allOf"))
	s.OneOf = d.list(get(n, "oneOf"))
	s.AnyOf = d.list(get(n, "anyOf"))
	return &Node{Kind: NodeInline, Schema: s}
}

func (d *nodeDecoder) list(n *yaml.Node) []*Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*Node, 0, len(n.Content))
	for _, c := range n.Content {
		if dn := d.node(c); dn != nil {
			out = append(out, dn)
		}
	}
	return out
}

// refName takes the final segment of a reference path and undoes JSON
// pointer and URL escaping.
func refName(ref string) string {
	seg := ref
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		seg = ref[i+1:]
	}
	seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
	if un, err := url.PathUnescape(seg); err == nil {
		seg = un
	}
	return seg
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func get(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

func eachPair(n *yaml.Node, fn func(key string, v *yaml.Node)) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		v := resolve(n.Content[i+1])
		if v == nil {
			continue
		}
		fn(n.Content[i].Value, v)
	}
}

func str(n *yaml.Node) string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" {
		return ""
	}
	return n.Value
}

func boolean(n *yaml.Node) bool {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return false
	}
	switch strings.ToLower(n.Value) {
	case "true", "yes", "on":
		return true
	}
	return false
}

func strs(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if s := str(c); s != "" {
			out = append(out, s)
		}
	}
	return out
}
