package spec

import "gopkg.in/yaml.v3"

// Document model shared by both dialects. Decoding validates shapes once at
// the boundary; everything downstream works on these types only.

// Dialect identifies the shape of the source document.
type Dialect int

const (
	// DialectV3 stores reusable schemas under components.schemas.
	DialectV3 Dialect = iota
	// DialectV2 stores them under definitions and models bodies as parameters.
	DialectV2
)

func (d Dialect) String() string {
	if d == DialectV2 {
		return "swagger2"
	}
	return "openapi3"
}

// SchemaContainer is the reference prefix of the dialect's schema map.
func (d Dialect) SchemaContainer() string {
	if d == DialectV2 {
		return "#/definitions/"
	}
	return "#/components/schemas/"
}

type Document struct {
	Dialect Dialect
	Title   string
	Version string
	Paths   []*PathItem
	// Schemas holds the named reusable schemas by their raw key.
	Schemas     map[string]*Node
	SchemaOrder []string
}

// Schema looks up a named schema by its raw key.
func (d *Document) Schema(name string) (*Node, bool) {
	n, ok := d.Schemas[name]
	return n, ok && n != nil
}

type PathItem struct {
	URL        string
	Operations []*Operation
}

// Operation is one mapping-valued entry of a path item. Method is the key as
// declared, lower-cased; it is not guaranteed to be an HTTP verb.
type Operation struct {
	Method      string
	OperationID string
	Summary     string
	Description string
	Deprecated  bool
	Tags        []string
	Parameters  []*Parameter
	RequestBody *RequestBody
	Responses   map[string]*Response
}

type Parameter struct {
	// Ref is set when the parameter itself is a reference; no other field is.
	Ref         string
	Name        string
	In          string // path|query|header|cookie|formData|body
	Description string
	Required    bool
	Deprecated  bool
	// Schema is the "schema" member.
	Schema *Node
	// Self is the parameter object read as a schema (type, items, enum...),
	// which is how V2 describes non-body parameters.
	Self *Node
}

type RequestBody struct {
	Ref         string
	Description string
	Required    bool
	Content     []*Media
}

type Media struct {
	Mime    string
	Schema  *Node
	Example *yaml.Node
}

type Response struct {
	Description string
	// Schema is the V2 response schema.
	Schema *Node
	// Content is the V3 media map in declared order.
	Content []*Media
	// Example is the V2 examples['application/json'] value.
	Example *yaml.Node
}

// NodeKind discriminates schema nodes.
type NodeKind int

const (
	NodeInline NodeKind = iota
	NodeRef
)

// Node is a schema position: either a reference or an inline schema.
type Node struct {
	Kind NodeKind
	// Ref is the reference path of a NodeRef.
	Ref string
	// Schema is the body of a NodeInline.
	Schema *Schema
	// Deprecated and Description may sit next to a $ref.
	Deprecated  bool
	Description string
}

// IsRef reports whether n is a reference node.
func (n *Node) IsRef() bool { return n != nil && n.Kind == NodeRef }

// RefName is the final path segment of the reference, unescaped.
func (n *Node) RefName() string {
	if !n.IsRef() {
		return ""
	}
	return refName(n.Ref)
}

type Schema struct {
	// Types are the declared type names; empty when untyped.
	Types       []string
	Format      string
	Description string
	Deprecated  bool
	Enum        []string
	Properties  []*Property
	Required    []string
	Items       []*Node
	// ItemsList is set when items was declared as a sequence.
	ItemsList            bool
	AdditionalProperties *Additional
	AllOf                []*Node
	OneOf                []*Node
	AnyOf                []*Node
	Example              *yaml.Node
}

// HasType reports whether t is one of the declared types.
func (s *Schema) HasType(t string) bool {
	for _, have := range s.Types {
		if have == t {
			return true
		}
	}
	return false
}

// IsRequired reports whether the property name is listed as required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

type Property struct {
	Name string
	Node *Node
}

// Additional is additionalProperties: either a boolean or a schema node.
type Additional struct {
	Allowed bool
	Node    *Node
}
